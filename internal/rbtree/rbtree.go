// Package rbtree implements a persistent ordered container with the
// observable contract of a red-black tree: point get/add/del, an explicit
// tracked black height, and O(log n) join (cat) and split (cut).
//
// Internally the tree is maintained as an AA tree -- a well known
// restricted red-black tree in which red links only ever lean right and
// node "level" stands in for black height (every black step down the tree
// increases level by one; a red, same-level link costs nothing). AA trees
// are a faithful red-black tree: translating level to color (a child is
// red iff its level equals its parent's) gives exactly a red-black tree in
// which "no red node has a red child" and "every root-to-leaf path has the
// same black height" hold by construction, via the two local invariant
// restoring moves skew and split instead of a four-way rotation case
// analysis. Every public operation (Add, Del, Cat, Cut) is built from
// these same two moves, so there is a single place where rebalancing
// correctness can go wrong instead of one per operation.
package rbtree

// Comparer orders two keys the way sort.Search does: negative if a<b, zero
// if equal, positive if a>b.
type Comparer[K any] func(a, b K) int

// Combiner recomputes a node's summary Info from its children's Info and
// its own key. The empty subtree's Info is always the zero value of I, so
// Combiner never needs an "is present" flag.
type Combiner[K any, I any] func(left I, key K, right I) I

// Searcher drives get/del without requiring a concrete key: at each node it
// is shown the node's key plus the Info of the left and right children (the
// empty subtree's Info is the zero value) and returns a three-way order:
// negative to continue into the left child, zero if this is the target,
// positive to continue into the right child. Searchers may be stateful
// (e.g. order-statistics search that counts down a rank as it descends).
type Searcher[K any, I any] interface {
	Compare(left I, key K, right I) int
}

type keySearcher[K any, I any] struct {
	cmp Comparer[K]
	key K
}

func (s keySearcher[K, I]) Compare(_ I, key K, _ I) int { return s.cmp(s.key, key) }

// funcSearcher adapts a plain function into a Searcher.
type funcSearcher[K any, I any] func(left I, key K, right I) int

func (f funcSearcher[K, I]) Compare(left I, key K, right I) int { return f(left, key, right) }

// BySearchFunc builds a Searcher from a plain comparison function.
func BySearchFunc[K any, I any](f func(left I, key K, right I) int) Searcher[K, I] {
	return funcSearcher[K, I](f)
}

// ByKey builds a Searcher that navigates toward the given key using cmp,
// ignoring Info entirely. This is what Get/Del usually want.
func ByKey[K any, I any](cmp Comparer[K], key K) Searcher[K, I] {
	return keySearcher[K, I]{cmp: cmp, key: key}
}

type node[K any, I any] struct {
	key         K
	level       int
	count       int
	left, right *node[K, I]
	info        I
}

func levelOf[K any, I any](n *node[K, I]) int {
	if n == nil {
		return 0
	}
	return n.level
}

func countOf[K any, I any](n *node[K, I]) int {
	if n == nil {
		return 0
	}
	return n.count
}

func infoOf[K any, I any](n *node[K, I]) I {
	if n == nil {
		var zero I
		return zero
	}
	return n.info
}

func makeNode[K any, I any](key K, left, right *node[K, I], level int, combine Combiner[K, I]) *node[K, I] {
	return &node[K, I]{
		key:   key,
		level: level,
		count: countOf(left) + countOf(right) + 1,
		left:  left,
		right: right,
		info:  combine(infoOf(left), key, infoOf(right)),
	}
}

// skew eliminates a left horizontal link (t.left at the same level as t)
// by rotating it up.
func skew[K any, I any](t *node[K, I], combine Combiner[K, I]) *node[K, I] {
	if t == nil || t.left == nil || t.left.level != t.level {
		return t
	}
	l := t.left
	newT := makeNode(t.key, l.right, t.right, t.level, combine)
	return makeNode(l.key, l.left, newT, l.level, combine)
}

// split eliminates two consecutive right horizontal links by rotating the
// middle node up and bumping its level.
func split[K any, I any](t *node[K, I], combine Combiner[K, I]) *node[K, I] {
	if t == nil || t.right == nil || t.right.right == nil || t.right.right.level != t.level {
		return t
	}
	r := t.right
	newT := makeNode(t.key, t.left, r.left, t.level, combine)
	return makeNode(r.key, newT, r.right, r.level+1, combine)
}

// Tree is an immutable, structurally shared ordered container of K, each
// node carrying a Combiner-derived Info summary.
type Tree[K any, I any] struct {
	root    *node[K, I]
	cmp     Comparer[K]
	combine Combiner[K, I]
}

// New creates an empty tree. cmp orders keys; combine recomputes the Info
// summary at each node. combine must be pure and must treat the zero value
// of I as the summary of the empty subtree.
func New[K any, I any](cmp Comparer[K], combine Combiner[K, I]) Tree[K, I] {
	return Tree[K, I]{cmp: cmp, combine: combine}
}

// Size returns the number of keys in the tree in O(1).
func (t Tree[K, I]) Size() int {
	return countOf(t.root)
}

// BlackHeight returns the tree's explicitly tracked black height (the AA
// level of the root, 0 for an empty tree).
func (t Tree[K, I]) BlackHeight() int {
	return levelOf(t.root)
}

// Info returns the summary attached to the whole tree (the zero value of I
// for an empty tree).
func (t Tree[K, I]) Info() I {
	return infoOf(t.root)
}

func insertNode[K any, I any](t *node[K, I], key K, cmp Comparer[K], combine Combiner[K, I]) *node[K, I] {
	if t == nil {
		return makeNode(key, nil, nil, 1, combine)
	}
	var newT *node[K, I]
	switch c := cmp(key, t.key); {
	case c < 0:
		newT = makeNode(t.key, insertNode(t.left, key, cmp, combine), t.right, t.level, combine)
	case c > 0:
		newT = makeNode(t.key, t.left, insertNode(t.right, key, cmp, combine), t.level, combine)
	default:
		// replace in place: same structural position, new key value
		return makeNode(key, t.left, t.right, t.level, combine)
	}
	newT = skew(newT, combine)
	newT = split(newT, combine)
	return newT
}

// Add inserts key if absent, or replaces the occupant of the same
// structural position if an equal key is already present.
func (t Tree[K, I]) Add(key K) Tree[K, I] {
	t.root = insertNode(t.root, key, t.cmp, t.combine)
	return t
}

func getNode[K any, I any](t *node[K, I], s Searcher[K, I]) (K, bool) {
	for t != nil {
		switch dir := s.Compare(infoOf(t.left), t.key, infoOf(t.right)); {
		case dir < 0:
			t = t.left
		case dir > 0:
			t = t.right
		default:
			return t.key, true
		}
	}
	var zero K
	return zero, false
}

// Get returns the key matched by s, if any.
func (t Tree[K, I]) Get(s Searcher[K, I]) (K, bool) {
	return getNode(t.root, s)
}

func minLevel[K any, I any](a, b *node[K, I]) int {
	la, lb := levelOf(a), levelOf(b)
	if la < lb {
		return la
	}
	return lb
}

// rebalanceAfterDelete is the AA-tree delete fixup: decrease this node's
// level to match its children if a deletion hollowed out the subtree below
// it, then repair the (at most one) resulting horizontal-link violation on
// the way back up, exactly mirroring skew/split's role in insert.
func rebalanceAfterDelete[K any, I any](t *node[K, I], combine Combiner[K, I]) *node[K, I] {
	if t == nil {
		return nil
	}
	shouldBe := minLevel(t.left, t.right) + 1
	level := t.level
	right := t.right
	if shouldBe < level {
		level = shouldBe
		if right != nil && shouldBe < right.level {
			right = makeNode(right.key, right.left, right.right, shouldBe, combine)
		}
	}
	t = makeNode(t.key, t.left, right, level, combine)

	t = skew(t, combine)
	if t.right != nil {
		t = makeNode(t.key, t.left, skew(t.right, combine), t.level, combine)
		if t.right != nil && t.right.right != nil {
			fixedRR := skew(t.right.right, combine)
			t = makeNode(t.key, t.left, makeNode(t.right.key, t.right.left, fixedRR, t.right.level, combine), t.level, combine)
		}
	}
	t = split(t, combine)
	if t.right != nil {
		t = makeNode(t.key, t.left, split(t.right, combine), t.level, combine)
	}
	return t
}

func deleteMin[K any, I any](t *node[K, I], combine Combiner[K, I]) (K, *node[K, I]) {
	if t.left == nil {
		return t.key, t.right
	}
	k, newLeft := deleteMin(t.left, combine)
	newT := makeNode(t.key, newLeft, t.right, t.level, combine)
	return k, rebalanceAfterDelete(newT, combine)
}

func deleteMax[K any, I any](t *node[K, I], combine Combiner[K, I]) (K, *node[K, I]) {
	if t.right == nil {
		return t.key, t.left
	}
	k, newRight := deleteMax(t.right, combine)
	newT := makeNode(t.key, t.left, newRight, t.level, combine)
	return k, rebalanceAfterDelete(newT, combine)
}

func delNode[K any, I any](t *node[K, I], s Searcher[K, I], combine Combiner[K, I]) (*node[K, I], K, bool) {
	if t == nil {
		var zero K
		return nil, zero, false
	}
	switch dir := s.Compare(infoOf(t.left), t.key, infoOf(t.right)); {
	case dir < 0:
		newLeft, removed, ok := delNode(t.left, s, combine)
		if !ok {
			return t, removed, false
		}
		newT := makeNode(t.key, newLeft, t.right, t.level, combine)
		return rebalanceAfterDelete(newT, combine), removed, true
	case dir > 0:
		newRight, removed, ok := delNode(t.right, s, combine)
		if !ok {
			return t, removed, false
		}
		newT := makeNode(t.key, t.left, newRight, t.level, combine)
		return rebalanceAfterDelete(newT, combine), removed, true
	default:
		removed := t.key
		switch {
		case t.left == nil && t.right == nil:
			return nil, removed, true
		case t.left == nil:
			succKey, newRight := deleteMin(t.right, combine)
			newT := makeNode(succKey, nil, newRight, t.level, combine)
			return rebalanceAfterDelete(newT, combine), removed, true
		default:
			predKey, newLeft := deleteMax(t.left, combine)
			newT := makeNode(predKey, newLeft, t.right, t.level, combine)
			return rebalanceAfterDelete(newT, combine), removed, true
		}
	}
}

// Del removes the key matched by s, if present, returning the updated tree
// and the removed key.
func (t Tree[K, I]) Del(s Searcher[K, I]) (Tree[K, I], K, bool) {
	newRoot, removed, ok := delNode(t.root, s, t.combine)
	if !ok {
		var zero K
		return t, zero, false
	}
	t.root = newRoot
	return t, removed, true
}

// join grafts mid between L and R, all of whose keys are assumed to sit
// strictly below mid and above mid respectively. It descends the spine of
// whichever side is taller (by level) until the levels match, splices in a
// new node there, and repairs the single local violation the splice can
// introduce on the way back up -- the same join-by-rank technique cat/cut
// are specified to use.
func join[K any, I any](l *node[K, I], mid K, r *node[K, I], combine Combiner[K, I]) *node[K, I] {
	switch lv, rv := levelOf(l), levelOf(r); {
	case lv == rv:
		return makeNode(mid, l, r, lv+1, combine)
	case lv > rv:
		newRight := join(l.right, mid, r, combine)
		t := makeNode(l.key, l.left, newRight, l.level, combine)
		return split(t, combine)
	default:
		newLeft := join(l, mid, r.left, combine)
		t := makeNode(r.key, newLeft, r.right, r.level, combine)
		return skew(t, combine)
	}
}

// join2 concatenates l and r with no explicit middle key, by borrowing r's
// minimum (or l's maximum, if r is empty) to use as the join key.
func join2[K any, I any](l, r *node[K, I], combine Combiner[K, I]) *node[K, I] {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	mid, newR := deleteMin(r, combine)
	return join(l, mid, newR, combine)
}

// Cat concatenates t and other, which must contain only keys respectively
// below and above every key already present; O(log n).
func (t Tree[K, I]) Cat(other Tree[K, I]) Tree[K, I] {
	t.root = join2(t.root, other.root, t.combine)
	if t.cmp == nil {
		t.cmp = other.cmp
	}
	return t
}

func cutNode[K any, I any](t *node[K, I], s Searcher[K, I], combine Combiner[K, I]) (*node[K, I], *node[K, I]) {
	if t == nil {
		return nil, nil
	}
	switch dir := s.Compare(infoOf(t.left), t.key, infoOf(t.right)); {
	case dir < 0:
		left, right := cutNode(t.left, s, combine)
		return left, join(right, t.key, t.right, combine)
	case dir > 0:
		left, right := cutNode(t.right, s, combine)
		return join(t.left, t.key, left, combine), right
	default:
		// A conforming searcher never reports equal for cut; fall back to
		// excluding the matched key from both halves.
		return t.left, t.right
	}
}

// Cut splits the tree into (left, right) at the boundary described by s,
// which must never report a node as equal; O(log n).
func (t Tree[K, I]) Cut(s Searcher[K, I]) (Tree[K, I], Tree[K, I]) {
	l, r := cutNode(t.root, s, t.combine)
	left := Tree[K, I]{root: l, cmp: t.cmp, combine: t.combine}
	right := Tree[K, I]{root: r, cmp: t.cmp, combine: t.combine}
	return left, right
}

// Iterator performs a lazy left-to-right walk of a Tree snapshot. It is
// unaffected by later Adds/Dels against the Tree it was built from, since
// those build new trees rather than mutating this one's nodes.
type Iterator[K any, I any] struct {
	stack []*node[K, I]
}

// Iter starts an in-order traversal.
func (t Tree[K, I]) Iter() *Iterator[K, I] {
	it := &Iterator[K, I]{}
	it.pushLeftSpine(t.root)
	return it
}

func (it *Iterator[K, I]) pushLeftSpine(n *node[K, I]) {
	for n != nil {
		it.stack = append(it.stack, n)
		n = n.left
	}
}

// Next returns the next key in ascending order, or ok=false when exhausted.
func (it *Iterator[K, I]) Next() (K, bool) {
	if len(it.stack) == 0 {
		var zero K
		return zero, false
	}
	n := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	it.pushLeftSpine(n.right)
	return n.key, true
}

// Keys collects every key in ascending order. Mainly useful in tests.
func (t Tree[K, I]) Keys() []K {
	out := make([]K, 0, t.Size())
	it := t.Iter()
	for {
		k, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, k)
	}
	return out
}
