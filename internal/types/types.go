// Package types implements the verifier's type registry: a tiny
// Hindley-style applicative fragment (one base sort plus arrow) used to
// reject ill-formed term compositions before any logical checking happens.
// Types are interned so that handle equality is address equality -- every
// apply/subsumption check is a pointer chase, never a deep compare.
package types

import (
	"github.com/sshockwave/axilogic/internal/dedup"
	axerr "github.com/sshockwave/axilogic/internal/errors"
)

// typeKey is the dedup.Registry key for a type: either the base sort or an
// arrow naming its (already interned) domain and codomain handles.
type typeKey struct {
	isArrow bool
	dom, cod *dedup.Handle[typeKey]
}

// Type is an interned type handle. Two Types are the same type iff they
// are the same handle (pointer equality).
type Type struct {
	h *dedup.Handle[typeKey]
}

// Equal reports whether a and b name the same interned type.
func Equal(a, b Type) bool {
	return a.h == b.h
}

// Registry builds and interns types, and type-checks applications.
type Registry struct {
	reg  *dedup.Registry[typeKey]
	sort Type
}

// NewRegistry creates a registry with its base sort already interned.
func NewRegistry() *Registry {
	r := &Registry{reg: dedup.New[typeKey]()}
	r.sort = Type{h: r.reg.Get(typeKey{})}
	return r
}

// Sort returns the unique base sort handle (@).
func (r *Registry) Sort() Type {
	return r.sort
}

// Arrow returns the interned function type from dom to cod.
func (r *Registry) Arrow(dom, cod Type) Type {
	return Type{h: r.reg.Get(typeKey{isArrow: true, dom: dom.h, cod: cod.h})}
}

// IsArrow reports whether t is an Arrow, returning its domain and codomain.
func (t Type) IsArrow() (dom, cod Type, ok bool) {
	k := t.h.Key()
	if !k.isArrow {
		return Type{}, Type{}, false
	}
	return Type{h: k.dom}, Type{h: k.cod}, true
}

// IsSort reports whether t is the base sort.
func (t Type) IsSort() bool {
	return !t.h.Key().isArrow
}

// dfsCheck is the covariant subsumption rule: a subsumes b iff a is the
// base sort, or both are arrows and domains/codomains recursively subsume.
func dfsCheck(a, b Type) bool {
	if a.h == b.h {
		return true
	}
	if a.IsSort() {
		return true
	}
	if b.IsSort() {
		return false
	}
	aDom, aCod, _ := a.IsArrow()
	bDom, bCod, _ := b.IsArrow()
	return dfsCheck(aDom, bDom) && dfsCheck(aCod, bCod)
}

// Subsumes reports whether a subsumes b per the §4.4 rule, the same check
// Apply performs on a function's domain.
func Subsumes(a, b Type) bool {
	return dfsCheck(a, b)
}

// Apply type-checks applying a function of type t to an argument of type
// spec, returning t's codomain if spec is subsumed by t's domain.
func (r *Registry) Apply(t Type, spec Type) (Type, error) {
	dom, cod, ok := t.IsArrow()
	if !ok {
		return Type{}, axerr.New(axerr.CannotApplySymbol, "cannot apply symbol type")
	}
	if !dfsCheck(dom, spec) {
		return Type{}, axerr.New(axerr.TypeMismatch, "type mismatch for application")
	}
	return cod, nil
}
