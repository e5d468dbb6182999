// Package errors defines the error taxonomy surfaced by the verification
// kernel. The kernel never knows about source files or line numbers -- a
// driver maps a Kind and Message onto a diagnostic using tokenizer
// positions it tracks itself.
package errors

import "fmt"

// Kind classifies a verification failure. Equivalent classifications are
// required by callers; the exact strings are not part of any contract.
type Kind string

const (
	StackUnderflow       Kind = "StackUnderflow"
	WrongStackShape      Kind = "WrongStackShape"
	ModeViolation        Kind = "ModeViolation"
	ArgOutOfRange        Kind = "ArgOutOfRange"
	UnboundedExport      Kind = "UnboundedExport"
	SymbolNotFound       Kind = "SymbolNotFound"
	SymbolAlreadyExists  Kind = "SymbolAlreadyExists"
	ConditionNotMet      Kind = "ConditionNotMet"
	NotImplyObject       Kind = "NotImplyObject"
	TypeMismatch         Kind = "TypeMismatch"
	CannotApplySymbol    Kind = "CannotApplySymbol"
)

// VerifyError is the single error type produced by the kernel. It carries
// no location: the caller supplies that from its own tokenizer state.
type VerifyError struct {
	Kind    Kind
	Message string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds a VerifyError of the given kind.
func New(kind Kind, format string, args ...any) *VerifyError {
	return &VerifyError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a VerifyError of the given kind, so callers can
// use errors.Is-style checks without importing the stdlib errors package
// just for this.
func Is(err error, kind Kind) bool {
	ve, ok := err.(*VerifyError)
	return ok && ve.Kind == kind
}
