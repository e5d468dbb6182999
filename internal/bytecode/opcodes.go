// Package bytecode defines the on-the-wire encoding of the proof
// instruction stream: a flat byte array plus a constant pool for symbol
// names.
package bytecode

// OpCode is one of the 13 proof instructions from §4.6.
type OpCode byte

const (
	// OpSyn enters synthetic mode. No operands.
	OpSyn OpCode = iota
	// OpUni opens a universal-introduction block. No operands.
	OpUni
	// OpVar declares one bound variable in the open block. No operands.
	OpVar
	// OpHkt builds a higher-kinded type from the top two types in the block. No operands.
	OpHkt
	// OpQed closes a block (Types or body). No operands.
	OpQed
	// OpArg pushes the n-th argument. One operand: a 1-based index byte.
	OpArg
	// OpReq loads a named symbol. One operand: a constant-pool index.
	OpReq
	// OpApp applies a function to a synthetically-built argument. No operands.
	OpApp
	// OpMp is modus ponens. No operands.
	OpMp
	// OpSat is the real-mode "unquestioned" modus ponens. No operands.
	OpSat
	// OpDef exports a term as a theorem. One operand: a constant-pool index.
	OpDef
	// OpHyp exports a term as a hypothesis. One operand: a constant-pool index.
	OpHyp
	// OpObj declares an object constructor. Two operands: an arity byte and
	// a constant-pool index for its name.
	OpObj
)

// String names an opcode for disassembly and error messages.
func (op OpCode) String() string {
	switch op {
	case OpSyn:
		return "syn"
	case OpUni:
		return "uni"
	case OpVar:
		return "var"
	case OpHkt:
		return "hkt"
	case OpQed:
		return "qed"
	case OpArg:
		return "arg"
	case OpReq:
		return "req"
	case OpApp:
		return "app"
	case OpMp:
		return "mp"
	case OpSat:
		return "sat"
	case OpDef:
		return "def"
	case OpHyp:
		return "hyp"
	case OpObj:
		return "obj"
	default:
		return "unknown"
	}
}
