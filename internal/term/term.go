// Package term implements the verifier's term algebra: a small set of
// primitive shapes (Variable, Object, Universal, Application) plus two
// delayed shapes (Bind, RefShift) used to keep application O(1) at
// construction time. Delayed shapes are forced on demand and the result is
// memoized in the same cell, so repeated queries after the first force are
// O(1) regardless of how many times a shared subterm is touched.
package term

import (
	axerr "github.com/sshockwave/axilogic/internal/errors"
	"github.com/sshockwave/axilogic/internal/types"
)

// ObjectID names a declared object constructor; arity is fixed at
// declaration and enforced by whoever builds the Object's argument slice.
type ObjectID uint64

// Kind distinguishes a term's current shape. Bind and RefShift are
// implementation-internal: they never escape this package in a way that
// lets a caller branch on them directly (Kind() forces first).
type Kind int

const (
	KindVariable Kind = iota
	KindObject
	KindUniversal
	KindApplication
	KindBind
	KindRefShift
)

// Term is an opaque, reference-counted-by-GC handle. Observers get
// read-only access through Ty, MaxRef, CheckEqual, and the As* accessors;
// the only mutation performed on a Term after construction is the one-way
// Bind/RefShift -> primitive transition, which is monotone and safe under
// this package's single-threaded usage contract.
type Term struct {
	kind Kind
	ty   types.Type
	reg  *types.Registry

	maxRef    int
	maxRefSet bool

	// Variable
	pos   int
	spine []*Term

	// Object
	objID ObjectID
	args  []*Term

	// Universal.body, Application.{fn,arg}, Bind.{func,arg}, RefShift.target
	left    *Term
	right   *Term
	shiftBy int
}

// Ty returns the term's type. Types never change under substitution or
// shifting, so this never needs to force the term.
func (t *Term) Ty() types.Type { return t.ty }

// Kind forces t to a primitive shape and reports it.
func (t *Term) Kind() Kind {
	t.unwrapOne()
	return t.kind
}

// NewVariable builds a 1-based positional reference with an empty spine.
func NewVariable(reg *types.Registry, pos int, ty types.Type) *Term {
	return &Term{kind: KindVariable, pos: pos, ty: ty, reg: reg}
}

// NewObject builds a named constructor applied to args. Arity is whatever
// len(args) is; the caller is responsible for matching the declaration.
func NewObject(reg *types.Registry, id ObjectID, args []*Term, ty types.Type) *Term {
	return &Term{kind: KindObject, objID: id, args: args, ty: ty, reg: reg}
}

// NewUniversal binds one fresh position over body. domType is the type of
// the bound position; the universal's own type is arrow(domType, body.Ty()).
func NewUniversal(reg *types.Registry, domType types.Type, body *Term) *Term {
	return &Term{kind: KindUniversal, left: body, ty: reg.Arrow(domType, body.Ty()), reg: reg}
}

// NewBind builds the delayed application "apply arg to fn". Construction is
// O(1): the substitution that fn's shape may call for is deferred until the
// term is forced. The type is computed eagerly (types are cheap pointer
// operations) so an ill-typed application is rejected immediately, before
// ever reaching the stack.
func NewBind(reg *types.Registry, fn, arg *Term) (*Term, error) {
	cod, err := reg.Apply(fn.Ty(), arg.Ty())
	if err != nil {
		return nil, err
	}
	return &Term{kind: KindBind, left: fn, right: arg, ty: cod, reg: reg}, nil
}

// AsVariable forces t and, if it is a Variable, returns its position and
// spine (already-applied, not-yet-reduced arguments).
func (t *Term) AsVariable() (pos int, spine []*Term, ok bool) {
	t.unwrapOne()
	if t.kind != KindVariable {
		return 0, nil, false
	}
	return t.pos, t.spine, true
}

// AsObject forces t and, if it is an Object, returns its id and arguments.
func (t *Term) AsObject() (id ObjectID, args []*Term, ok bool) {
	t.unwrapOne()
	if t.kind != KindObject {
		return 0, nil, false
	}
	return t.objID, t.args, true
}

// AsUniversal forces t and, if it is a Universal, returns its body.
func (t *Term) AsUniversal() (body *Term, ok bool) {
	t.unwrapOne()
	if t.kind != KindUniversal {
		return nil, false
	}
	return t.left, true
}

// MaxRef is the largest positional index referenced anywhere in t, or 0 if
// t is closed. A term with MaxRef() == 0 is exportable (definable).
func (t *Term) MaxRef() int {
	t.unwrapOne()
	if t.maxRefSet {
		return t.maxRef
	}
	var mr int
	switch t.kind {
	case KindVariable:
		mr = t.pos
		for _, s := range t.spine {
			if m := s.MaxRef(); m > mr {
				mr = m
			}
		}
	case KindObject:
		for _, a := range t.args {
			if m := a.MaxRef(); m > mr {
				mr = m
			}
		}
	case KindUniversal:
		b := t.left.MaxRef()
		if b < 1 {
			b = 1
		}
		mr = b - 1
	case KindApplication:
		mr = t.left.MaxRef()
		if m := t.right.MaxRef(); m > mr {
			mr = m
		}
	}
	t.maxRef = mr
	t.maxRefSet = true
	return mr
}

// IsExportable reports whether t has no free positional references, i.e.
// can be def'd/hyp'd.
func (t *Term) IsExportable() bool { return t.MaxRef() == 0 }

// CheckEqual is deep structural equality modulo normalization: an O(1)
// identity fast path, then a cheap cached-attribute short-circuit, then a
// forced structural comparison.
func CheckEqual(a, b *Term) bool {
	if a == b {
		return true
	}
	if !types.Equal(a.ty, b.ty) {
		return false
	}
	if a.MaxRef() != b.MaxRef() {
		return false
	}
	a.unwrapOne()
	b.unwrapOne()
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindVariable:
		if a.pos != b.pos || len(a.spine) != len(b.spine) {
			return false
		}
		for i := range a.spine {
			if !CheckEqual(a.spine[i], b.spine[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.objID != b.objID || len(a.args) != len(b.args) {
			return false
		}
		for i := range a.args {
			if !CheckEqual(a.args[i], b.args[i]) {
				return false
			}
		}
		return true
	case KindUniversal:
		return CheckEqual(a.left, b.left)
	case KindApplication:
		return CheckEqual(a.left, b.left) && CheckEqual(a.right, b.right)
	default:
		return false
	}
}

// unwrapOne forces a Bind or RefShift cell to a primitive shape in place;
// already-primitive terms are untouched. The transition is one-way: once a
// cell holds a primitive shape it never reverts, which is what makes the
// memoization sound under the single-threaded usage contract in §5.
func (t *Term) unwrapOne() {
	for {
		switch t.kind {
		case KindBind:
			result := applyOne(t.left, t.right)
			t.adopt(result)
		case KindRefShift:
			result := shiftFree(t.left, t.shiftBy, 1)
			t.adopt(result)
		default:
			return
		}
	}
}

// adopt copies result's shape into t in place, preserving t's own cached ty
// (substitution and shifting never change a term's type).
func (t *Term) adopt(result *Term) {
	t.kind = result.kind
	t.pos = result.pos
	t.spine = result.spine
	t.objID = result.objID
	t.args = result.args
	t.left = result.left
	t.right = result.right
	t.shiftBy = result.shiftBy
}

// applyOne applies fn (forced as needed) to arg, producing a new term: beta
// reduction through a Universal, spine growth on a Variable, or a stuck
// Application otherwise.
func applyOne(fn, arg *Term) *Term {
	fn.unwrapOne()
	switch fn.kind {
	case KindUniversal:
		return substituteAt(fn.left, arg, 1)
	case KindVariable:
		spine := make([]*Term, len(fn.spine)+1)
		copy(spine, fn.spine)
		spine[len(fn.spine)] = arg
		return newVariableRaw(fn, fn.pos, spine)
	default: // KindObject, KindApplication: cannot reduce further
		return newApplicationRaw(fn, arg)
	}
}

// substituteAt returns a term equal to t with the free reference at
// position level replaced by v and every free reference above level
// decremented by one -- the combined effect of consuming one binder. It
// forces only the nodes it actually visits, so sibling subterms stay
// untouched (and thus still lazy) until something else asks about them.
func substituteAt(t *Term, v *Term, level int) *Term {
	t.unwrapOne()
	switch t.kind {
	case KindVariable:
		spine, changed := substSpine(t.spine, v, level)
		switch {
		case t.pos < level:
			if !changed {
				return t
			}
			return newVariableRaw(t, t.pos, spine)
		case t.pos == level:
			return applySpine(splice(v, level-1), spine)
		default:
			return newVariableRaw(t, t.pos-1, spine)
		}
	case KindObject:
		args, changed := substSpine(t.args, v, level)
		if !changed {
			return t
		}
		return newObjectRaw(t, args)
	case KindUniversal:
		body := substituteAt(t.left, v, level+1)
		if body == t.left {
			return t
		}
		return newUniversalRaw(t, body)
	case KindApplication:
		fn := substituteAt(t.left, v, level)
		argT := substituteAt(t.right, v, level)
		if fn == t.left && argT == t.right {
			return t
		}
		return newApplicationRaw(fn, argT)
	default:
		panic("term: substituteAt on non-primitive shape")
	}
}

func substSpine(items []*Term, v *Term, level int) ([]*Term, bool) {
	out := make([]*Term, len(items))
	changed := false
	for i, it := range items {
		s := substituteAt(it, v, level)
		out[i] = s
		if s != it {
			changed = true
		}
	}
	return out, changed
}

// splice defers the shift that v needs before it can be spliced into a
// binder that is delta levels deeper than where v was built. delta == 0 is
// the common single-binder case (e.g. specializing an axiom once) and
// needs no wrapper at all.
func splice(v *Term, delta int) *Term {
	if delta == 0 {
		return v
	}
	return &Term{kind: KindRefShift, left: v, shiftBy: delta, ty: v.ty, reg: v.reg}
}

// applySpine folds a variable's already-pending arguments onto v in order.
func applySpine(v *Term, spine []*Term) *Term {
	result := v
	for _, s := range spine {
		result = applyOne(result, s)
	}
	return result
}

// shiftFree returns a term equal to t with every free reference at or
// above cutoff increased by delta.
func shiftFree(t *Term, delta, cutoff int) *Term {
	if delta == 0 {
		return t
	}
	t.unwrapOne()
	switch t.kind {
	case KindVariable:
		spine, changed := shiftSpine(t.spine, delta, cutoff)
		if t.pos < cutoff {
			if !changed {
				return t
			}
			return newVariableRaw(t, t.pos, spine)
		}
		return newVariableRaw(t, t.pos+delta, spine)
	case KindObject:
		args, changed := shiftSpine(t.args, delta, cutoff)
		if !changed {
			return t
		}
		return newObjectRaw(t, args)
	case KindUniversal:
		body := shiftFree(t.left, delta, cutoff+1)
		if body == t.left {
			return t
		}
		return newUniversalRaw(t, body)
	case KindApplication:
		fn := shiftFree(t.left, delta, cutoff)
		argT := shiftFree(t.right, delta, cutoff)
		if fn == t.left && argT == t.right {
			return t
		}
		return newApplicationRaw(fn, argT)
	default:
		panic("term: shiftFree on non-primitive shape")
	}
}

func shiftSpine(items []*Term, delta, cutoff int) ([]*Term, bool) {
	out := make([]*Term, len(items))
	changed := false
	for i, it := range items {
		s := shiftFree(it, delta, cutoff)
		out[i] = s
		if s != it {
			changed = true
		}
	}
	return out, changed
}

func newVariableRaw(src *Term, pos int, spine []*Term) *Term {
	return &Term{kind: KindVariable, pos: pos, spine: spine, ty: src.ty, reg: src.reg}
}

func newObjectRaw(src *Term, args []*Term) *Term {
	return &Term{kind: KindObject, objID: src.objID, args: args, ty: src.ty, reg: src.reg}
}

func newUniversalRaw(src *Term, body *Term) *Term {
	return &Term{kind: KindUniversal, left: body, ty: src.ty, reg: src.reg}
}

// newApplicationRaw builds a stuck application. fn and arg already passed a
// compatible NewBind check somewhere upstream (substitution and shifting
// preserve types), so a failure here means an invariant was broken, not a
// user error.
func newApplicationRaw(fn, arg *Term) *Term {
	cod, err := fn.reg.Apply(fn.ty, arg.ty)
	if err != nil {
		panic(axerr.New(axerr.TypeMismatch, "stuck application ill-typed after substitution: %v", err))
	}
	return &Term{kind: KindApplication, left: fn, right: arg, ty: cod, reg: fn.reg}
}
