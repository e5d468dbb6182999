// Package pset provides size-aware set algebra (union, difference) over an
// immutable ordered set, built directly on rbtree so the two components
// share one rebalancing implementation. Operations always rebuild the
// smaller side into the larger, giving O(|smaller| log(|larger|)) cost.
package pset

import "github.com/sshockwave/axilogic/internal/rbtree"

func sizeCombine[K any](left int, _ K, right int) int { return left + right + 1 }

// Set is an immutable ordered set with O(1) Size.
type Set[K any] struct {
	tree rbtree.Tree[K, int]
	cmp  rbtree.Comparer[K]
}

// New creates an empty set ordered by cmp.
func New[K any](cmp rbtree.Comparer[K]) Set[K] {
	return Set[K]{tree: rbtree.New[K, int](cmp, sizeCombine[K]), cmp: cmp}
}

// Size returns the number of elements in O(1).
func (s Set[K]) Size() int { return s.tree.Size() }

// Contains reports whether key is a member.
func (s Set[K]) Contains(key K) bool {
	_, ok := s.tree.Get(rbtree.ByKey[K, int](s.cmp, key))
	return ok
}

// Insert returns a new set with key added (a no-op if already present).
func (s Set[K]) Insert(key K) Set[K] {
	s.tree = s.tree.Add(key)
	return s
}

// Remove returns a new set with key removed, if present.
func (s Set[K]) Remove(key K) Set[K] {
	newTree, _, ok := s.tree.Del(rbtree.ByKey[K, int](s.cmp, key))
	if ok {
		s.tree = newTree
	}
	return s
}

// Keys lists members in ascending order.
func (s Set[K]) Keys() []K { return s.tree.Keys() }

func union[K any](base, other Set[K]) Set[K] {
	it := other.tree.Iter()
	for {
		k, ok := it.Next()
		if !ok {
			break
		}
		base = base.Insert(k)
	}
	return base
}

// Union returns a ∪ b, rebuilding the smaller set into the larger:
// O(|smaller| log(|larger|)).
func Union[K any](a, b Set[K]) Set[K] {
	if a.Size() >= b.Size() {
		return union(a, b)
	}
	return union(b, a)
}

func diffRebuild[K any](a, b Set[K]) Set[K] {
	out := New[K](a.cmp)
	it := a.tree.Iter()
	for {
		k, ok := it.Next()
		if !ok {
			break
		}
		if !b.Contains(k) {
			out = out.Insert(k)
		}
	}
	return out
}

func diffRemove[K any](a, b Set[K]) Set[K] {
	it := b.tree.Iter()
	for {
		k, ok := it.Next()
		if !ok {
			break
		}
		a = a.Remove(k)
	}
	return a
}

// Difference returns a \ b. If a is the smaller side it is filter-rebuilt
// from scratch; otherwise each element of b is removed from a copy of a.
func Difference[K any](a, b Set[K]) Set[K] {
	if a.Size() < b.Size() {
		return diffRebuild(a, b)
	}
	return diffRemove(a, b)
}
