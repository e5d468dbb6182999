// Package kit is a small expression-builder convenience layer over the vm
// package: composable closures that know how to emit the instruction
// sequence for a common logical form (a bound parameter reference, a named
// concept applied to arguments, a universally-quantified body). It is used
// by Bootstrap to assemble the three axiom schemas from primitives, and is
// not otherwise part of the verification core.
package kit

import "github.com/sshockwave/axilogic/internal/vm"

// Expr emits instructions that leave exactly one new Element on top of the
// VM's stack. Every Expr assumes it runs with at least one synthetic scope
// already open around it (Forall and Bootstrap are responsible for that).
type Expr func(v *vm.VM) error

// Arg references the n-th bound parameter (1-based, from the top of the
// currently open argument frame).
func Arg(n int) Expr {
	return func(v *vm.VM) error { return v.Arg(n) }
}

// Concept loads a previously declared or derived symbol by name, applying
// it in turn to each of args. Each argument is built under its own fresh
// synthetic scope, matching app's stack-effect contract.
func Concept(name string, args ...Expr) Expr {
	return func(v *vm.VM) error {
		if err := v.Req(name); err != nil {
			return err
		}
		for _, arg := range args {
			if err := v.Syn(); err != nil {
				return err
			}
			if err := arg(v); err != nil {
				return err
			}
			if err := v.App(); err != nil {
				return err
			}
		}
		return nil
	}
}

// Imply builds sys::imply(a, b).
func Imply(a, b Expr) Expr {
	return Concept("sys::imply", a, b)
}

// Not builds sys::not(a).
func Not(a Expr) Expr {
	return Concept("sys::not", a)
}

// Forall builds "forall x1 ... xn. body", where body references the bound
// parameters with Arg(n) (the first-declared, outermost parameter) down to
// Arg(1) (the last-declared, innermost one). It opens its own synthetic
// scope for the duration of the construction; the caller closes that scope
// by exporting the result with hyp (def requires real mode, so it rejects
// the result while that scope is open).
func Forall(v *vm.VM, n int, body Expr) error {
	if err := v.Syn(); err != nil {
		return err
	}
	if err := v.Uni(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := v.Var(); err != nil {
			return err
		}
	}
	if err := v.Qed(); err != nil {
		return err
	}
	if err := body(v); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := v.Qed(); err != nil {
			return err
		}
	}
	return nil
}

// DefineTheorem builds expr as the body of a forall over n parameters and
// exports it as a theorem under name.
func DefineTheorem(v *vm.VM, name string, n int, body Expr) error {
	if err := Forall(v, n, body); err != nil {
		return err
	}
	return v.Def(name)
}

// DeclareHypothesis builds expr as the body of a forall over n parameters
// and exports it as a hypothesis under name.
func DeclareHypothesis(v *vm.VM, name string, n int, body Expr) error {
	if err := Forall(v, n, body); err != nil {
		return err
	}
	return v.Hyp(name)
}

// Bootstrap installs the three axiom schemas from §4.6 on a freshly
// constructed VM (which already has sys::imply/sys::not declared by
// vm.New), building each with Forall/Concept as a hypothesis and then
// promoting it to a theorem. This promotion is the one place that writes
// is_real = true without a matching derivation, and outside tests Bootstrap
// is its only caller.
func Bootstrap(v *vm.VM) error {
	// L1: a => (b => a)
	if err := DeclareHypothesis(v, "sys::l1", 2, Imply(Arg(2), Imply(Arg(1), Arg(2)))); err != nil {
		return err
	}
	if err := v.PromoteToTheorem("sys::l1"); err != nil {
		return err
	}

	// L2: (a => (b => c)) => ((a => b) => (a => c))
	l2 := Imply(
		Imply(Arg(3), Imply(Arg(2), Arg(1))),
		Imply(Imply(Arg(3), Arg(2)), Imply(Arg(3), Arg(1))),
	)
	if err := DeclareHypothesis(v, "sys::l2", 3, l2); err != nil {
		return err
	}
	if err := v.PromoteToTheorem("sys::l2"); err != nil {
		return err
	}

	// L3: (not b => not a) => (a => b)
	l3 := Imply(
		Imply(Not(Arg(1)), Not(Arg(2))),
		Imply(Arg(2), Arg(1)),
	)
	if err := DeclareHypothesis(v, "sys::l3", 2, l3); err != nil {
		return err
	}
	if err := v.PromoteToTheorem("sys::l3"); err != nil {
		return err
	}

	return nil
}
