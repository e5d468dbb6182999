// Package vm implements the verification virtual machine (C6): a
// single-threaded stack machine that executes the 13-instruction proof
// bytecode from §4.6, maintaining the symbol table, argument frame, and
// synthetic/real mode discipline that make its accepted derivations
// trustworthy.
package vm

import (
	"strings"

	"github.com/sshockwave/axilogic/internal/bytecode"
	axerr "github.com/sshockwave/axilogic/internal/errors"
	"github.com/sshockwave/axilogic/internal/idgen"
	"github.com/sshockwave/axilogic/internal/pset"
	"github.com/sshockwave/axilogic/internal/rbtree"
	"github.com/sshockwave/axilogic/internal/term"
	"github.com/sshockwave/axilogic/internal/types"
)

type elemKind int

const (
	elemArgument elemKind = iota
	elemSynthetic
	elemTypes
	elemElement
)

type stackItem struct {
	kind     elemKind
	typesVec []types.Type
	term     *term.Term
}

type symbolEntry struct {
	isReal bool
	term   *term.Term
}

// namedSymbol is the rbtree key for the symbol table: keys order by name
// alone, so a Get/Add searcher only ever inspects the name field.
type namedSymbol struct {
	name  string
	entry symbolEntry
}

func compareSymbolNames(a, b namedSymbol) int {
	return strings.Compare(a.name, b.name)
}

// symbolInfo carries nothing; the symbol table needs no order-statistics
// summary, just the ordered-container substrate C3 provides.
type symbolInfo = struct{}

func combineSymbolInfo(_ symbolInfo, _ namedSymbol, _ symbolInfo) symbolInfo {
	return symbolInfo{}
}

// Hook observes each decoded instruction as Run executes it, for tracing or
// building a human-readable proof log. It never influences verification.
type Hook interface {
	OnInstruction(op bytecode.OpCode, err error)
}

// VM is one verification session: its own symbol table, type registry, id
// generator, and evaluation stack. Nothing is shared between VM instances.
type VM struct {
	types   *types.Registry
	ids     *idgen.Generator
	symbols rbtree.Tree[namedSymbol, symbolInfo]

	// usedSymbols records every name ever loaded via req, for dependency
	// bookkeeping (§2: "C1 is used ... for dependency bookkeeping"):
	// introspection over a verification session can ask what it drew on
	// without re-walking every derivation's instruction history.
	usedSymbols pset.Set[string]

	stack []stackItem
	frame []types.Type

	synCount int

	implyID term.ObjectID
	notID   term.ObjectID

	hook Hook
}

// New returns a fresh VM with sys::imply (arity 2) and sys::not (arity 1)
// already declared as hypothesis-typed object constructors. Axiom schemas
// L1/L2/L3 are not installed here; that is the bootstrap code's job (see
// the kit package), which builds them from these two primitives and
// promotes them to theorems.
func New() *VM {
	v := &VM{
		types:       types.NewRegistry(),
		ids:         idgen.New(),
		symbols:     rbtree.New[namedSymbol, symbolInfo](compareSymbolNames, combineSymbolInfo),
		usedSymbols: pset.New[string](strings.Compare),
	}
	implyID, err := v.declareObjectSymbol(2, "sys::imply")
	if err != nil {
		panic("vm: fresh VM failed to declare sys::imply: " + err.Error())
	}
	notID, err := v.declareObjectSymbol(1, "sys::not")
	if err != nil {
		panic("vm: fresh VM failed to declare sys::not: " + err.Error())
	}
	v.implyID = implyID
	v.notID = notID
	return v
}

// SetHook installs an optional instruction observer for Run.
func (v *VM) SetHook(h Hook) { v.hook = h }

// Types exposes the VM's type registry so bootstrap/builder code can build
// compound argument types ahead of a var/hkt sequence.
func (v *VM) Types() *types.Registry { return v.types }

// ImplyID and NotID are the distinguished object ids installed by New,
// exposed so callers can recognise imply/not objects in a normalized term.
func (v *VM) ImplyID() term.ObjectID { return v.implyID }
func (v *VM) NotID() term.ObjectID   { return v.notID }

// lookupSymbol finds name's entry in the symbol table, if any.
func (v *VM) lookupSymbol(name string) (symbolEntry, bool) {
	k, ok := v.symbols.Get(rbtree.ByKey[namedSymbol, symbolInfo](compareSymbolNames, namedSymbol{name: name}))
	if !ok {
		return symbolEntry{}, false
	}
	return k.entry, true
}

// putSymbol installs or replaces name's entry.
func (v *VM) putSymbol(name string, entry symbolEntry) {
	v.symbols = v.symbols.Add(namedSymbol{name: name, entry: entry})
}

// Lookup returns a previously def'd or hyp'd symbol.
func (v *VM) Lookup(name string) (t *term.Term, isReal bool, ok bool) {
	entry, exists := v.lookupSymbol(name)
	if !exists {
		return nil, false, false
	}
	return entry.term, entry.isReal, true
}

// UsedSymbols lists, in ascending order, every name this VM has loaded via
// req since creation -- the C1-backed dependency bookkeeping of §2.
func (v *VM) UsedSymbols() []string {
	return v.usedSymbols.Keys()
}

// SynCount reports the current synthetic-mode nesting depth.
func (v *VM) SynCount() int { return v.synCount }

// StackLen reports the number of items on the evaluation stack.
func (v *VM) StackLen() int { return len(v.stack) }

// AssertClean reports whether the VM is in the state an accepted top-level
// derivation must end in: real mode, empty stack (P8).
func (v *VM) AssertClean() error {
	if v.synCount != 0 {
		return axerr.New(axerr.ModeViolation, "vm left in synthetic mode (syn_count=%d)", v.synCount)
	}
	if len(v.stack) != 0 {
		return axerr.New(axerr.WrongStackShape, "vm stack not empty at top level (%d items)", len(v.stack))
	}
	return nil
}

func (v *VM) declareObjectSymbol(n int, name string) (term.ObjectID, error) {
	if _, exists := v.lookupSymbol(name); exists {
		return 0, axerr.New(axerr.SymbolAlreadyExists, "symbol %q already exists", name)
	}
	id := term.ObjectID(v.ids.Fresh())
	sort := v.types.Sort()
	args := make([]*term.Term, n)
	for i := 1; i <= n; i++ {
		args[i-1] = term.NewVariable(v.types, n-i+1, sort)
	}
	t := term.NewObject(v.types, id, args, sort)
	for i := 0; i < n; i++ {
		t = term.NewUniversal(v.types, sort, t)
	}
	v.putSymbol(name, symbolEntry{isReal: false, term: t})
	return id, nil
}

// PromoteToTheorem flips a previously hyp'd symbol to is_real = true without
// requiring a matching derivation. It exists for exactly one caller: the
// trusted bootstrap step that installs L1/L2/L3 (§4.6). No other VM method
// writes is_real without going through a verified mp/sat/app chain.
func (v *VM) PromoteToTheorem(name string) error {
	entry, ok := v.lookupSymbol(name)
	if !ok {
		return axerr.New(axerr.SymbolNotFound, "cannot promote unknown symbol %q", name)
	}
	entry.isReal = true
	v.putSymbol(name, entry)
	return nil
}

func (v *VM) push(item stackItem) { v.stack = append(v.stack, item) }

func (v *VM) peekTop() (stackItem, bool) {
	if len(v.stack) == 0 {
		return stackItem{}, false
	}
	return v.stack[len(v.stack)-1], true
}

// pop removes and returns the top stack item directly, bypassing any named
// instruction's shape checks. Only test code reaches for this, to inspect
// an intermediate, not-yet-closed construction.
func (v *VM) pop() (stackItem, error) {
	top, ok := v.peekTop()
	if !ok {
		return stackItem{}, axerr.New(axerr.StackUnderflow, "pop: stack is empty")
	}
	v.stack = v.stack[:len(v.stack)-1]
	return top, nil
}

// Syn enters synthetic mode.
func (v *VM) Syn() error {
	v.push(stackItem{kind: elemSynthetic})
	v.synCount++
	return nil
}

// Uni opens a universal-introduction block.
func (v *VM) Uni() error {
	v.push(stackItem{kind: elemTypes})
	return nil
}

// Var declares one bound variable (of the base sort) in the open block.
func (v *VM) Var() error {
	top, ok := v.peekTop()
	if !ok {
		return axerr.New(axerr.StackUnderflow, "var: stack is empty")
	}
	if top.kind != elemTypes {
		return axerr.New(axerr.WrongStackShape, "var expects an open Types block on top")
	}
	vec := make([]types.Type, len(top.typesVec)+1)
	copy(vec, top.typesVec)
	vec[len(top.typesVec)] = v.types.Sort()
	v.stack[len(v.stack)-1] = stackItem{kind: elemTypes, typesVec: vec}
	return nil
}

// Hkt builds arrow(p, q) from the top two types in the open block.
func (v *VM) Hkt() error {
	top, ok := v.peekTop()
	if !ok {
		return axerr.New(axerr.StackUnderflow, "hkt: stack is empty")
	}
	if top.kind != elemTypes {
		return axerr.New(axerr.WrongStackShape, "hkt expects an open Types block on top")
	}
	if len(top.typesVec) < 2 {
		return axerr.New(axerr.WrongStackShape, "hkt needs at least two types in the open block")
	}
	n := len(top.typesVec)
	p, q := top.typesVec[n-2], top.typesVec[n-1]
	vec := make([]types.Type, n-1)
	copy(vec, top.typesVec[:n-2])
	vec[n-2] = v.types.Arrow(p, q)
	v.stack[len(v.stack)-1] = stackItem{kind: elemTypes, typesVec: vec}
	return nil
}

// Qed closes a block: a Types block installs each type as an argument-frame
// entry plus an Argument marker; an Element body pops one argument-frame
// entry and wraps the body in a Universal over it.
func (v *VM) Qed() error {
	top, ok := v.peekTop()
	if !ok {
		return axerr.New(axerr.StackUnderflow, "qed: stack is empty")
	}
	switch top.kind {
	case elemTypes:
		v.stack = v.stack[:len(v.stack)-1]
		for _, ty := range top.typesVec {
			v.frame = append(v.frame, ty)
			v.push(stackItem{kind: elemArgument})
		}
		return nil
	case elemElement:
		if len(v.frame) == 0 {
			return axerr.New(axerr.WrongStackShape, "qed: no open argument to close over")
		}
		if len(v.stack) < 2 || v.stack[len(v.stack)-2].kind != elemArgument {
			return axerr.New(axerr.WrongStackShape, "qed: no Argument marker beneath the body")
		}
		domType := v.frame[len(v.frame)-1]
		u := term.NewUniversal(v.types, domType, top.term)
		v.frame = v.frame[:len(v.frame)-1]
		v.stack = v.stack[:len(v.stack)-2]
		v.push(stackItem{kind: elemElement, term: u})
		return nil
	default:
		return axerr.New(axerr.WrongStackShape, "qed expects Types or Element on top")
	}
}

// Arg pushes the n-th argument (1-based, counted from the top of the
// argument frame). Only legal in synthetic mode.
func (v *VM) Arg(n int) error {
	if v.synCount == 0 {
		return axerr.New(axerr.ModeViolation, "arg requires synthetic mode")
	}
	if n < 1 || n > len(v.frame) {
		return axerr.New(axerr.ArgOutOfRange, "argument index %d out of range (frame size %d)", n, len(v.frame))
	}
	ty := v.frame[len(v.frame)-n]
	v.push(stackItem{kind: elemElement, term: term.NewVariable(v.types, n, ty)})
	return nil
}

// Req loads a named symbol. Hypothesis symbols require synthetic mode;
// theorems may be referenced from either mode.
func (v *VM) Req(name string) error {
	entry, ok := v.lookupSymbol(name)
	if !ok {
		return axerr.New(axerr.SymbolNotFound, "symbol %q not found", name)
	}
	if !entry.isReal && v.synCount == 0 {
		return axerr.New(axerr.ModeViolation, "hypothesis %q referenced outside synthetic mode", name)
	}
	v.usedSymbols = v.usedSymbols.Insert(name)
	v.push(stackItem{kind: elemElement, term: entry.term})
	return nil
}

// App applies a function to a synthetically-built argument, consuming the
// Synthetic marker the argument was built under.
func (v *VM) App() error {
	if len(v.stack) < 3 {
		return axerr.New(axerr.StackUnderflow, "app requires three stack items")
	}
	n := len(v.stack)
	xItem, synItem, fItem := v.stack[n-1], v.stack[n-2], v.stack[n-3]
	if xItem.kind != elemElement {
		return axerr.New(axerr.WrongStackShape, "app expects an Element on top")
	}
	if synItem.kind != elemSynthetic {
		return axerr.New(axerr.WrongStackShape, "app expects a Synthetic marker beneath the argument")
	}
	if fItem.kind != elemElement {
		return axerr.New(axerr.WrongStackShape, "app expects an Element beneath the synthetic marker")
	}
	bound, err := term.NewBind(v.types, fItem.term, xItem.term)
	if err != nil {
		return err
	}
	v.stack = v.stack[:n-3]
	v.push(stackItem{kind: elemElement, term: bound})
	v.synCount--
	return nil
}

// popImply requires t to normalize to sys::imply(a, b), returning a, b.
func (v *VM) popImply(t *term.Term) (*term.Term, *term.Term, error) {
	id, args, ok := t.AsObject()
	if !ok || id != v.implyID || len(args) != 2 {
		return nil, nil, axerr.New(axerr.NotImplyObject, "expected an implication")
	}
	return args[0], args[1], nil
}

// Mp is modus ponens: from p=>q and p, derive q, checking p structurally.
// Only legal in synthetic mode.
func (v *VM) Mp() error {
	if v.synCount == 0 {
		return axerr.New(axerr.ModeViolation, "mp requires synthetic mode")
	}
	if len(v.stack) < 2 {
		return axerr.New(axerr.StackUnderflow, "mp requires two stack items")
	}
	n := len(v.stack)
	pItem, pqItem := v.stack[n-1], v.stack[n-2]
	if pItem.kind != elemElement || pqItem.kind != elemElement {
		return axerr.New(axerr.WrongStackShape, "mp expects two Elements")
	}
	a, b, err := v.popImply(pqItem.term)
	if err != nil {
		return err
	}
	if !term.CheckEqual(a, pItem.term) {
		return axerr.New(axerr.ConditionNotMet, "mp: popped predecessor does not match the antecedent")
	}
	v.stack = v.stack[:n-2]
	v.push(stackItem{kind: elemElement, term: b})
	return nil
}

// Sat is the real-mode "unquestioned" modus ponens: strip the antecedent of
// an implication, trusting it was produced by verified synthetic work. Only
// legal in real mode.
func (v *VM) Sat() error {
	if v.synCount != 0 {
		return axerr.New(axerr.ModeViolation, "sat requires real mode")
	}
	top, ok := v.peekTop()
	if !ok {
		return axerr.New(axerr.StackUnderflow, "sat: stack is empty")
	}
	if top.kind != elemElement {
		return axerr.New(axerr.WrongStackShape, "sat expects an Element")
	}
	_, b, err := v.popImply(top.term)
	if err != nil {
		return err
	}
	v.stack[len(v.stack)-1] = stackItem{kind: elemElement, term: b}
	return nil
}

// Def exports a closed term as a theorem. Only legal in real mode.
func (v *VM) Def(name string) error {
	if v.synCount != 0 {
		return axerr.New(axerr.ModeViolation, "def requires real mode")
	}
	top, ok := v.peekTop()
	if !ok {
		return axerr.New(axerr.StackUnderflow, "def: stack is empty")
	}
	if top.kind != elemElement {
		return axerr.New(axerr.WrongStackShape, "def expects an Element")
	}
	if !top.term.IsExportable() {
		return axerr.New(axerr.UnboundedExport, "def: term has unbound references")
	}
	if _, exists := v.lookupSymbol(name); exists {
		return axerr.New(axerr.SymbolAlreadyExists, "symbol %q already exists", name)
	}
	v.stack = v.stack[:len(v.stack)-1]
	v.putSymbol(name, symbolEntry{isReal: true, term: top.term})
	return nil
}

// Hyp exports a closed term as a hypothesis, consuming the Synthetic marker
// it was derived under.
func (v *VM) Hyp(name string) error {
	if len(v.stack) < 2 {
		return axerr.New(axerr.StackUnderflow, "hyp requires two stack items")
	}
	n := len(v.stack)
	xItem, synItem := v.stack[n-1], v.stack[n-2]
	if xItem.kind != elemElement {
		return axerr.New(axerr.WrongStackShape, "hyp expects an Element on top")
	}
	if synItem.kind != elemSynthetic {
		return axerr.New(axerr.WrongStackShape, "hyp expects a Synthetic marker beneath the element")
	}
	if !xItem.term.IsExportable() {
		return axerr.New(axerr.UnboundedExport, "hyp: term has unbound references")
	}
	if _, exists := v.lookupSymbol(name); exists {
		return axerr.New(axerr.SymbolAlreadyExists, "symbol %q already exists", name)
	}
	v.stack = v.stack[:n-2]
	v.putSymbol(name, symbolEntry{isReal: false, term: xItem.term})
	v.synCount--
	return nil
}

// Obj declares a new object constructor of arity n, bound under name as a
// hypothesis-typed symbol whose term is the fully-curried schema
// forall...forall. OBJECT(id, [Var(n), ..., Var(1)]), so the first argument
// applied to it becomes the object's first component.
func (v *VM) Obj(n int, name string) error {
	_, err := v.declareObjectSymbol(n, name)
	return err
}

// Run decodes and executes chunk from its first instruction, stopping at
// the first error. Run does not require the VM to end clean; callers that
// need the full top-level-accepted guarantee should call AssertClean after.
func (v *VM) Run(chunk *bytecode.Chunk) error {
	code := chunk.Code
	ip := 0
	for ip < len(code) {
		op := bytecode.OpCode(code[ip])
		ip++
		var err error
		switch op {
		case bytecode.OpSyn:
			err = v.Syn()
		case bytecode.OpUni:
			err = v.Uni()
		case bytecode.OpVar:
			err = v.Var()
		case bytecode.OpHkt:
			err = v.Hkt()
		case bytecode.OpQed:
			err = v.Qed()
		case bytecode.OpArg:
			var n int
			n, ip, err = readArg(code, ip)
			if err == nil {
				err = v.Arg(n)
			}
		case bytecode.OpReq:
			var name string
			name, ip, err = readName(chunk, code, ip)
			if err == nil {
				err = v.Req(name)
			}
		case bytecode.OpApp:
			err = v.App()
		case bytecode.OpMp:
			err = v.Mp()
		case bytecode.OpSat:
			err = v.Sat()
		case bytecode.OpDef:
			var name string
			name, ip, err = readName(chunk, code, ip)
			if err == nil {
				err = v.Def(name)
			}
		case bytecode.OpHyp:
			var name string
			name, ip, err = readName(chunk, code, ip)
			if err == nil {
				err = v.Hyp(name)
			}
		case bytecode.OpObj:
			var arity int
			arity, ip, err = readArg(code, ip)
			if err == nil {
				var name string
				name, ip, err = readName(chunk, code, ip)
				if err == nil {
					err = v.Obj(arity, name)
				}
			}
		default:
			err = axerr.New(axerr.WrongStackShape, "unknown opcode %d", op)
		}
		if v.hook != nil {
			v.hook.OnInstruction(op, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readArg(code []byte, ip int) (int, int, error) {
	if ip >= len(code) {
		return 0, ip, axerr.New(axerr.StackUnderflow, "truncated instruction operand")
	}
	return int(code[ip]), ip + 1, nil
}

func readName(chunk *bytecode.Chunk, code []byte, ip int) (string, int, error) {
	if ip+1 >= len(code) {
		return "", ip, axerr.New(axerr.StackUnderflow, "truncated name operand")
	}
	idx := int(code[ip])<<8 | int(code[ip+1])
	if idx < 0 || idx >= len(chunk.Constants) {
		return "", ip, axerr.New(axerr.SymbolNotFound, "constant pool index %d out of range", idx)
	}
	return chunk.Constants[idx], ip + 2, nil
}
