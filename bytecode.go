package vela

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Opcode is the dispatch tag of one instruction. Unlike the teacher's
// variable-length byte-encoded instruction stream (vm_instructions.go,
// vm_encoder.go -- built for a parsing VM whose operands are runes and
// charsets), vela's instruction set is homogeneous enough (registers
// and small integer immediates, never a variable-length payload) that
// a flat slice of fixed-shape Instruction structs is the idiomatic Go
// rendition: no encoder/decoder pair is needed, and the dispatch loop
// in vm.go indexes it directly. This trade is recorded in DESIGN.md.
type Opcode uint16

const (
	OpNop Opcode = iota
	OpLoadLiteral        // A=dst, imm=literal pool index
	OpLoadUndefined      // A=dst
	OpLoadNull           // A=dst
	OpLoadBool           // A=dst, B=0/1
	OpMove               // A=dst, B=src
	OpLoadByStackIndex   // A=dst, B=slot
	OpStoreByStackIndex  // A=slot, B=src
	OpLoadByHeapIndex    // A=dst, B=depth, C=slot
	OpStoreByHeapIndex   // A=depth, B=slot, C=src
	OpLoadByName         // A=dst, imm=name pool index
	OpStoreByName        // A=name pool index, B=src
	OpGetObject          // A=dst, B=objReg, C=keyReg (inline-cached)
	OpSetObject          // A=objReg, B=keyReg, C=src
	OpGetObjectByName    // A=dst, B=objReg, imm=name pool index (inline-cached)
	OpSetObjectByName    // A=objReg, B=name pool index, C=src
	OpCreateArray        // A=dst, imm=length hint
	OpCreateObject       // A=dst
	OpDefineOwnProperty  // A=objReg, B=keyReg, C=valueReg
	OpGetIndexed         // A=dst, B=objReg, C=idxReg
	OpSetIndexed         // A=objReg, B=idxReg, C=valueReg
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEqual
	OpNotEqual
	OpStrictEqual
	OpStrictNotEqual
	OpLessThan
	OpLessThanEqual
	OpGreaterThan
	OpGreaterThanEqual
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr
	OpInstanceOf
	OpIn
	OpNeg
	OpUnaryPlus
	OpNot
	OpBitNot
	OpTypeof
	OpVoid
	OpDeleteProperty // A=dst, B=objReg, C=keyReg
	OpInc            // A=dst(=src), in-place ++/-- with overflow to Double
	OpDec
	OpJump               // imm=target pc
	OpJumpIfFalsy        // A=testReg, imm=target pc
	OpJumpIfTruthy       // A=testReg, imm=target pc
	OpCall               // A=dst, B=calleeReg, C=thisReg, imm=argBase<<16|argc
	OpConstruct          // A=dst, B=calleeReg, imm=argBase<<16|argc
	OpReturn             // A=srcReg
	OpThrow              // A=srcReg
	OpEnterTryRegion     // imm=try-region table index
	OpLeaveTryRegion
	OpMakeClosure // A=dst, imm=child block index
	OpSpreadAppend // A=arrayReg, B=iterableReg, C=nextIndexReg (updated in place)
	OpNewRegExp    // A=dst, imm=sourceLiteralIdx<<16|flagsLiteralIdx
	OpHalt
)

// Instruction is one fixed-shape bytecode record: an opcode plus up
// to three register/immediate operand slots and an extra immediate
// for literal/name-pool/jump-target operands.
type Instruction struct {
	Op  Opcode
	A   int
	B   int
	C   int
	Imm int
}

// TryRegion is one entry of a BytecodeBlock's exception-handler
// table (spec.md §4.5): [PCStart, PCEnd) is covered by this region;
// CatchPC is where control transfers on a Throw inside the range (-1
// if this region only exists to run a finally); FinallyPC likewise.
type TryRegion struct {
	PCStart, PCEnd int
	CatchPC        int
	FinallyPC      int
	CatchSlot      int // stack slot the caught error binds to, or -1
}

// InlineCache is the per-call-site memo GetObject/SetObject/GetObjectByName
// consult before falling back to Structure.Lookup (spec.md §4.5): a
// cache hit skips hashing entirely. Monomorphic only, per spec.md's
// "polymorphic tiering is out of scope".
type InlineCache struct {
	StructureID uint64
	Slot        int
	Valid       bool
}

// BytecodeBlock is the unit the interpreter executes: one per
// function (plus one for the top-level program), mirroring
// vm_program.go's Program but lowered from ECMAScript source instead
// of a PEG grammar.
type BytecodeBlock struct {
	Name       string
	ParamCount int
	Code       []Instruction
	Literals   []Value
	Names      []string // interned property/variable name pool
	SourceLoc  []Range  // SourceLoc[i] corresponds to Code[i]

	TryRegions []TryRegion
	Caches     []InlineCache // one slot per GetObject/SetObject/GetObjectByName site

	Children []*BytecodeBlock // nested function bodies, for OpMakeClosure

	MaxRegister int
	StrictMode  bool

	// ShouldClearStack marks blocks whose final instruction guarantees
	// an empty evaluation stack at exit (spec.md §3). Neither the
	// compiler nor the interpreter sets or reads it.
	ShouldClearStack bool

	nameIndex    map[string]int
	literalIndex map[Value]int
}

func NewBytecodeBlock(name string) *BytecodeBlock {
	return &BytecodeBlock{
		Name:         name,
		nameIndex:    make(map[string]int),
		literalIndex: make(map[Value]int),
	}
}

// internString returns (allocating if necessary) the Names-pool index
// for s, so repeated identifiers in one block share a single entry.
func (b *BytecodeBlock) internString(s string) int {
	if idx, ok := b.nameIndex[s]; ok {
		return idx
	}
	idx := len(b.Names)
	b.Names = append(b.Names, s)
	b.nameIndex[s] = idx
	return idx
}

// internLiteral likewise deduplicates literal-pool entries; Values
// containing a heap pointer are never deduplicated against a
// different pointer (map key equality on Value compares tag/bits/ptr,
// which is exactly pointer identity for heap values).
func (b *BytecodeBlock) internLiteral(v Value) int {
	if idx, ok := b.literalIndex[v]; ok {
		return idx
	}
	idx := len(b.Literals)
	b.Literals = append(b.Literals, v)
	b.literalIndex[v] = idx
	return idx
}

func (b *BytecodeBlock) addCache() int {
	b.Caches = append(b.Caches, InlineCache{})
	return len(b.Caches) - 1
}

// Dump renders the block (and, recursively, every nested Children
// block a closure captures) as an indented instruction listing, the
// bytecode-side counterpart of ast_printer.go's treeprint-based
// PrettyString -- grounded on the teacher's vm_program.go disassembly
// but built on treeprint's AddBranch/AddNode instead of hand-rolled
// indentation.
func (b *BytecodeBlock) Dump() string {
	root := treeprint.New()
	b.render(root)
	return root.String()
}

func (b *BytecodeBlock) render(parent treeprint.Tree) {
	branch := parent.AddBranch(fmt.Sprintf("%s(params=%d, registers=%d)", b.Name, b.ParamCount, b.MaxRegister+1))
	for pc, ins := range b.Code {
		branch.AddNode(fmt.Sprintf("%04d  %s", pc, b.formatInstruction(ins)))
	}
	for _, child := range b.Children {
		child.render(branch)
	}
}

func (b *BytecodeBlock) formatInstruction(ins Instruction) string {
	switch ins.Op {
	case OpLoadLiteral, OpLoadByName, OpJump, OpJumpIfFalsy, OpJumpIfTruthy, OpMakeClosure, OpEnterTryRegion, OpNewRegExp:
		return fmt.Sprintf("%-20s A=%d imm=%d", ins.Op, ins.A, ins.Imm)
	case OpStoreByName, OpGetObjectByName, OpSetObjectByName:
		return fmt.Sprintf("%-20s A=%d B=%d imm=%d", ins.Op, ins.A, ins.B, ins.Imm)
	case OpCall, OpConstruct:
		return fmt.Sprintf("%-20s A=%d B=%d C=%d imm=%d", ins.Op, ins.A, ins.B, ins.C, ins.Imm)
	default:
		return fmt.Sprintf("%-20s A=%d B=%d C=%d", ins.Op, ins.A, ins.B, ins.C)
	}
}

// findTryRegion returns the innermost TryRegion covering pc, per
// spec.md §4.5's exception-propagation walk: regions are appended
// parent-then-children during emission (see compiler.go's try/catch
// lowering), so scanning from the end finds the innermost match
// first.
func (b *BytecodeBlock) findTryRegion(pc int) (TryRegion, bool) {
	for i := len(b.TryRegions) - 1; i >= 0; i-- {
		r := b.TryRegions[i]
		if pc >= r.PCStart && pc < r.PCEnd {
			return r, true
		}
	}
	return TryRegion{}, false
}

func (op Opcode) String() string {
	names := map[Opcode]string{
		OpNop: "Nop", OpLoadLiteral: "LoadLiteral", OpLoadUndefined: "LoadUndefined",
		OpLoadNull: "LoadNull", OpLoadBool: "LoadBool", OpMove: "Move",
		OpLoadByStackIndex: "LoadByStackIndex", OpStoreByStackIndex: "StoreByStackIndex",
		OpLoadByHeapIndex: "LoadByHeapIndex", OpStoreByHeapIndex: "StoreByHeapIndex",
		OpLoadByName: "LoadByName", OpStoreByName: "StoreByName",
		OpGetObject: "GetObject", OpSetObject: "SetObject",
		OpGetObjectByName: "GetObjectByName", OpSetObjectByName: "SetObjectByName",
		OpCreateArray: "CreateArray", OpCreateObject: "CreateObject",
		OpDefineOwnProperty: "ObjectDefineOwnPropertyOperation",
		OpGetIndexed:        "GetIndexed", OpSetIndexed: "SetIndexed",
		OpAdd: "Plus", OpSub: "Minus", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod",
		OpEqual: "Equal", OpNotEqual: "NotEqual", OpStrictEqual: "StrictEqual", OpStrictNotEqual: "StrictNotEqual",
		OpLessThan: "LessThan", OpLessThanEqual: "LessThanEqual",
		OpGreaterThan: "GreaterThan", OpGreaterThanEqual: "GreaterThanEqual",
		OpBitAnd: "BitAnd", OpBitOr: "BitOr", OpBitXor: "BitXor",
		OpShl: "Shl", OpShr: "Shr", OpUShr: "UShr",
		OpInstanceOf: "InstanceOf", OpIn: "In",
		OpNeg: "Neg", OpUnaryPlus: "UnaryPlus", OpNot: "Not", OpBitNot: "BitNot",
		OpTypeof: "Typeof", OpVoid: "Void", OpDeleteProperty: "DeleteProperty",
		OpInc: "Inc", OpDec: "Dec",
		OpJump: "Jump", OpJumpIfFalsy: "JumpIfFalsy", OpJumpIfTruthy: "JumpIfTruthy",
		OpCall: "Call", OpConstruct: "Construct", OpReturn: "Return", OpThrow: "Throw",
		OpEnterTryRegion: "EnterTryRegion", OpLeaveTryRegion: "LeaveTryRegion",
		OpMakeClosure: "MakeClosure", OpSpreadAppend: "SpreadAppend", OpNewRegExp: "NewRegExp", OpHalt: "Halt",
	}
	if name, ok := names[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", op)
}
