package bytecode

import "fmt"

// Width scales every operand of the instruction it prefixes. It is the
// sole mechanism for operand sizing: there is no per-operand width
// (spec.md §4.C).
type Width uint8

const (
	WidthSingle Width = 1
	Width16     Width = 2
	Width32     Width = 4
)

// Operand is one decoded operand: its kind and its value, sign-extended
// to int64 for OperandSmi/OperandOffset and zero-extended otherwise.
type Operand struct {
	Kind  OperandKind
	Value int64
}

// Instruction is one fully decoded instruction.
type Instruction struct {
	Op       Opcode
	Operands []Operand
	// Size is the number of bytes this instruction occupied in the
	// stream, not counting any width-prefix byte.
	Size int
}

// Decode reads one instruction (opcode + operands, no width prefix) from
// code starting at pc, using the given operand width. Callers are
// responsible for consuming any Wide16/Wide32 prefix byte first via
// PeekWidthPrefix.
func Decode(code []byte, pc int, width Width) (Instruction, error) {
	if pc >= len(code) {
		return Instruction{}, fmt.Errorf("bytecode: truncated instruction at %d", pc)
	}
	op := Opcode(code[pc])
	if op >= opcodeCount {
		return Instruction{}, fmt.Errorf("bytecode: invalid opcode %d at %d", code[pc], pc)
	}
	kinds := Operands(op)
	size := 1
	operands := make([]Operand, len(kinds))
	for i, k := range kinds {
		start := pc + size
		end := start + int(width)
		if end > len(code) {
			return Instruction{}, fmt.Errorf("bytecode: truncated operand for %s at %d", op, pc)
		}
		raw := readUint(code[start:end], width)
		v := int64(raw)
		if k.signed() {
			v = signExtend(raw, width)
		}
		operands[i] = Operand{Kind: k, Value: v}
		size += int(width)
	}
	return Instruction{Op: op, Operands: operands, Size: size}, nil
}

// PeekWidthPrefix reports whether code[pc] is a Wide16/Wide32 prefix
// byte, returning the width it selects and the new pc past the prefix.
func PeekWidthPrefix(code []byte, pc int) (Width, int, bool) {
	if pc >= len(code) {
		return WidthSingle, pc, false
	}
	switch Opcode(code[pc]) {
	case Wide16:
		return Width16, pc + 1, true
	case Wide32:
		return Width32, pc + 1, true
	default:
		return WidthSingle, pc, false
	}
}

func readUint(b []byte, width Width) uint32 {
	switch width {
	case WidthSingle:
		return uint32(b[0])
	case Width16:
		return uint32(b[0]) | uint32(b[1])<<8
	case Width32:
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	default:
		panic("bytecode: invalid width")
	}
}

func signExtend(raw uint32, width Width) int64 {
	switch width {
	case WidthSingle:
		return int64(int8(raw))
	case Width16:
		return int64(int16(raw))
	case Width32:
		return int64(int32(raw))
	default:
		panic("bytecode: invalid width")
	}
}

func writeUint(buf []byte, width Width, v uint32) {
	switch width {
	case WidthSingle:
		buf[0] = byte(v)
	case Width16:
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
	case Width32:
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
		buf[2] = byte(v >> 16)
		buf[3] = byte(v >> 24)
	default:
		panic("bytecode: invalid width")
	}
}

// FitsWidth reports whether signed value v can be represented in width
// bytes, used by the emitter-side jump-patching decision (spec.md §4.C).
func FitsWidth(v int64, width Width) bool {
	switch width {
	case WidthSingle:
		return v >= -128 && v <= 127
	case Width16:
		return v >= -32768 && v <= 32767
	case Width32:
		return v >= -(1<<31) && v <= (1<<31)-1
	default:
		return false
	}
}

// FitsWidthUnsigned reports whether unsigned value v fits in width bytes.
func FitsWidthUnsigned(v uint32, width Width) bool {
	switch width {
	case WidthSingle:
		return v <= 0xFF
	case Width16:
		return v <= 0xFFFF
	default:
		return true
	}
}

// WidthFor returns the narrowest width an unsigned value fits in.
func WidthFor(v uint32) Width {
	switch {
	case v <= 0xFF:
		return WidthSingle
	case v <= 0xFFFF:
		return Width16
	default:
		return Width32
	}
}

// WidthForSigned returns the narrowest width a signed value fits in.
func WidthForSigned(v int64) Width {
	switch {
	case FitsWidth(v, WidthSingle):
		return WidthSingle
	case FitsWidth(v, Width16):
		return Width16
	default:
		return Width32
	}
}
