// Package bytecode implements the Hebi register-ISA wire format: opcodes,
// variable-width operand encoding/decoding, and disassembly. It has no
// dependency on the value or vm packages — constant-pool contents are
// rendered via a caller-supplied formatter (see Disassemble).
package bytecode

// Opcode is a single instruction's operation code.
type Opcode byte

const (
	// Loads/stores
	Load Opcode = iota
	Store
	LoadConst
	LoadUpvalue
	StoreUpvalue
	LoadModuleVar
	StoreModuleVar
	LoadGlobal
	StoreGlobal
	LoadSelf
	LoadSuper
	LoadNone
	LoadTrue
	LoadFalse
	LoadSmi

	// Field/index
	LoadField
	LoadFieldOpt
	StoreField
	LoadIndex
	LoadIndexOpt
	StoreIndex

	// Constructors
	MakeFn
	MakeClass
	MakeClassDerived
	MakeList
	MakeListEmpty
	MakeTable
	MakeTableEmpty

	// Arithmetic / logic
	Add
	Sub
	Mul
	Div
	Rem
	Pow
	Inv
	Not
	CmpEq
	CmpNe
	CmpGt
	CmpGe
	CmpLt
	CmpLe
	CmpType
	Contains
	IsNone

	// Control flow
	Jump
	JumpConst
	JumpLoop
	JumpIfFalse
	JumpIfFalseConst
	Return
	Yield

	// Calls
	Call
	Call0
	Import
	FinalizeModule
	Print
	PrintN

	opcodeCount
)

// Width-prefix pseudo-opcodes. These never appear in the opcode table
// below; the dispatcher and disassembler special-case them before
// decoding operands (spec.md §4.C/§4.F).
const (
	Wide16 Opcode = 0xFE
	Wide32 Opcode = 0xFF
)

var opcodeNames = [...]string{
	Load: "Load", Store: "Store", LoadConst: "LoadConst", LoadUpvalue: "LoadUpvalue",
	StoreUpvalue: "StoreUpvalue", LoadModuleVar: "LoadModuleVar", StoreModuleVar: "StoreModuleVar",
	LoadGlobal: "LoadGlobal", StoreGlobal: "StoreGlobal", LoadSelf: "LoadSelf", LoadSuper: "LoadSuper",
	LoadNone: "LoadNone", LoadTrue: "LoadTrue", LoadFalse: "LoadFalse", LoadSmi: "LoadSmi",
	LoadField: "LoadField", LoadFieldOpt: "LoadFieldOpt", StoreField: "StoreField",
	LoadIndex: "LoadIndex", LoadIndexOpt: "LoadIndexOpt", StoreIndex: "StoreIndex",
	MakeFn: "MakeFn", MakeClass: "MakeClass", MakeClassDerived: "MakeClassDerived",
	MakeList: "MakeList", MakeListEmpty: "MakeListEmpty", MakeTable: "MakeTable", MakeTableEmpty: "MakeTableEmpty",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Rem: "Rem", Pow: "Pow", Inv: "Inv", Not: "Not",
	CmpEq: "CmpEq", CmpNe: "CmpNe", CmpGt: "CmpGt", CmpGe: "CmpGe", CmpLt: "CmpLt", CmpLe: "CmpLe",
	CmpType: "CmpType", Contains: "Contains", IsNone: "IsNone",
	Jump: "Jump", JumpConst: "JumpConst", JumpLoop: "JumpLoop", JumpIfFalse: "JumpIfFalse",
	JumpIfFalseConst: "JumpIfFalseConst", Return: "Return", Yield: "Yield",
	Call: "Call", Call0: "Call0", Import: "Import", FinalizeModule: "FinalizeModule",
	Print: "Print", PrintN: "PrintN",
}

func (op Opcode) String() string {
	if op == Wide16 {
		return "Wide16"
	}
	if op == Wide32 {
		return "Wide32"
	}
	if int(op) < len(opcodeNames) {
		if n := opcodeNames[op]; n != "" {
			return n
		}
	}
	return "Opcode(?)"
}

// OperandKind classifies one operand slot, per spec.md §4.C.
type OperandKind uint8

const (
	OperandRegister OperandKind = iota
	OperandConstant
	OperandUpvalue
	OperandModuleVar
	OperandCount
	OperandSmi   // signed small immediate
	OperandOffset // signed jump offset
)

func (k OperandKind) signed() bool { return k == OperandSmi || k == OperandOffset }

// info describes one opcode's fixed operand layout.
type info struct {
	operands []OperandKind
}

var table = [opcodeCount]info{
	Load:          {[]OperandKind{OperandRegister}},
	Store:         {[]OperandKind{OperandRegister}},
	LoadConst:     {[]OperandKind{OperandConstant}},
	LoadUpvalue:   {[]OperandKind{OperandUpvalue}},
	StoreUpvalue:  {[]OperandKind{OperandUpvalue}},
	LoadModuleVar: {[]OperandKind{OperandModuleVar}},
	StoreModuleVar: {[]OperandKind{OperandModuleVar}},
	LoadGlobal:    {[]OperandKind{OperandConstant}},
	StoreGlobal:   {[]OperandKind{OperandConstant}},
	LoadSelf:      {nil},
	LoadSuper:     {nil},
	LoadNone:      {nil},
	LoadTrue:      {nil},
	LoadFalse:     {nil},
	LoadSmi:       {[]OperandKind{OperandSmi}},

	LoadField:    {[]OperandKind{OperandConstant}},
	LoadFieldOpt: {[]OperandKind{OperandConstant}},
	StoreField:   {[]OperandKind{OperandRegister, OperandConstant}},
	LoadIndex:    {[]OperandKind{OperandRegister}},
	LoadIndexOpt: {[]OperandKind{OperandRegister}},
	StoreIndex:   {[]OperandKind{OperandRegister, OperandRegister}},

	MakeFn:           {[]OperandKind{OperandConstant}},
	MakeClass:        {[]OperandKind{OperandConstant}},
	MakeClassDerived: {[]OperandKind{OperandConstant}},
	MakeList:         {[]OperandKind{OperandRegister, OperandCount}},
	MakeListEmpty:    {nil},
	MakeTable:        {[]OperandKind{OperandRegister, OperandCount}},
	MakeTableEmpty:   {nil},

	Add: {[]OperandKind{OperandRegister}}, Sub: {[]OperandKind{OperandRegister}},
	Mul: {[]OperandKind{OperandRegister}}, Div: {[]OperandKind{OperandRegister}},
	Rem: {[]OperandKind{OperandRegister}}, Pow: {[]OperandKind{OperandRegister}},
	Inv: {nil}, Not: {nil},
	CmpEq: {[]OperandKind{OperandRegister}}, CmpNe: {[]OperandKind{OperandRegister}},
	CmpGt: {[]OperandKind{OperandRegister}}, CmpGe: {[]OperandKind{OperandRegister}},
	CmpLt: {[]OperandKind{OperandRegister}}, CmpLe: {[]OperandKind{OperandRegister}},
	CmpType:  {[]OperandKind{OperandRegister}},
	Contains: {[]OperandKind{OperandRegister}},
	IsNone:   {nil},

	Jump:             {[]OperandKind{OperandOffset}},
	JumpConst:        {[]OperandKind{OperandConstant}},
	JumpLoop:         {[]OperandKind{OperandOffset}},
	JumpIfFalse:      {[]OperandKind{OperandOffset}},
	JumpIfFalseConst: {[]OperandKind{OperandConstant}},
	Return:           {nil},
	Yield:            {nil},

	Call:           {[]OperandKind{OperandRegister, OperandCount}},
	Call0:          {[]OperandKind{OperandRegister}},
	Import:         {[]OperandKind{OperandConstant, OperandRegister}},
	FinalizeModule: {nil},
	Print:          {nil},
	PrintN:         {[]OperandKind{OperandRegister, OperandCount}},
}

// Operands returns op's fixed operand-kind list.
func Operands(op Opcode) []OperandKind { return table[op].operands }
