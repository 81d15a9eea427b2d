package bytecode

import (
	"fmt"
	"strings"
)

// ConstFormatter renders constant-pool slot idx for disassembly. The
// bytecode package has no notion of what a constant pool holds (that is
// value.FunctionDescriptor's job), so the caller supplies this.
type ConstFormatter func(idx uint32) string

// Disassemble renders code as one line per instruction:
// `<offset>  <mnemonic> <operands...>`. Width prefixes are folded into
// the instruction they scale rather than printed as their own line.
func Disassemble(code []byte, fmtConst ConstFormatter) (string, error) {
	var b strings.Builder
	pc := 0
	for pc < len(code) {
		start := pc
		width := WidthSingle
		if w, next, ok := PeekWidthPrefix(code, pc); ok {
			width = w
			pc = next
		}
		inst, err := Decode(code, pc, width)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%4d  %-18s", start, inst.Op)
		for i, operand := range inst.Operands {
			if i > 0 {
				b.WriteByte(' ')
			}
			switch operand.Kind {
			case OperandConstant:
				name := fmt.Sprintf("const[%d]", operand.Value)
				if fmtConst != nil {
					name += "=" + fmtConst(uint32(operand.Value))
				}
				b.WriteString(name)
			case OperandRegister:
				fmt.Fprintf(&b, "r%d", operand.Value)
			case OperandUpvalue:
				fmt.Fprintf(&b, "uv%d", operand.Value)
			case OperandModuleVar:
				fmt.Fprintf(&b, "mv%d", operand.Value)
			case OperandCount:
				fmt.Fprintf(&b, "#%d", operand.Value)
			case OperandSmi, OperandOffset:
				fmt.Fprintf(&b, "%d", operand.Value)
			}
		}
		b.WriteByte('\n')
		pc += inst.Size
	}
	return b.String(), nil
}
