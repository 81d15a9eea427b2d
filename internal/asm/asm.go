// Package asm is a small fluent builder for hand-constructing
// *value.FunctionDescriptor / *value.ClassDescriptor / *value.ModuleDescriptor
// values that satisfy the emitter contract (spec.md §4.D). It exists only
// because the lexer/parser/emitter are out of scope for this module: it is
// used by this module's own tests, and it never touches source text. Modeled on
// _examples/original_source/src/bytecode/builder.rs and
// src/instruction/builder.rs.
package asm

import (
	"fmt"

	"github.com/wudi/hebi/bytecode"
	"github.com/wudi/hebi/value"
)

// Label is an unresolved jump target. Bind it once the target address is
// known; it may be referenced by a jump before that point.
type Label struct {
	id int
}

type pendingJump struct {
	opcodePos int
	label     int
}

// Func builds one FunctionDescriptor. Every register operand emitted is
// tracked so frame size can be computed automatically; always emits at
// Width32 to sidestep width-fitting heuristics (a full two-pass/deferred-
// width emitter is the lexer/parser/emitter's job, out of scope here) —
// the VM's dispatch loop remains fully width-general regardless.
type Func struct {
	name      string
	params    value.ParamSpec
	isGen     bool
	w         *bytecode.Writer
	constants []value.Constant
	labels    []int // label id -> resolved offset, -1 if unbound
	pending   []pendingJump
	maxReg    int
	upvalues  []value.UpvalueDesc
}

func NewFunc(name string) *Func {
	return &Func{name: name, w: bytecode.NewWriter(), maxReg: -1}
}

func (f *Func) SetParams(p value.ParamSpec) *Func { f.params = p; return f }
func (f *Func) SetGenerator(b bool) *Func         { f.isGen = b; return f }

// Const appends a constant and returns its pool index.
func (f *Func) Const(c value.Constant) uint32 {
	f.constants = append(f.constants, c)
	return uint32(len(f.constants) - 1)
}

// ConstString is a convenience wrapper over Const(value.StringConstant(...)).
func (f *Func) ConstString(interner *value.Interner, s string) uint32 {
	return f.Const(value.StringConstant(interner.Intern(s)))
}

// AddUpvalue declares an upvalue captured either from the immediately
// enclosing frame's register (fromParentRegister=true, index=register) or
// forwarded from the parent function's own upvalue list
// (fromParentRegister=false, index=upvalue index). Returns this
// function's upvalue index.
func (f *Func) AddUpvalue(fromParentRegister bool, index uint32) uint32 {
	f.upvalues = append(f.upvalues, value.UpvalueDesc{FromParent: fromParentRegister, Index: index})
	return uint32(len(f.upvalues) - 1)
}

// Label allocates a new, initially-unbound label.
func (f *Func) Label() Label {
	f.labels = append(f.labels, -1)
	return Label{id: len(f.labels) - 1}
}

// Bind fixes lbl's address to the current write position.
func (f *Func) Bind(lbl Label) {
	f.labels[lbl.id] = f.w.Len()
}

func (f *Func) touchReg(r int) {
	if r > f.maxReg {
		f.maxReg = r
	}
}

// Emit appends a plain (non-jump) instruction, always at Width32.
func (f *Func) Emit(op bytecode.Opcode, operands ...int64) {
	for i, k := range bytecode.Operands(op) {
		if k == bytecode.OperandRegister {
			f.touchReg(int(operands[i]))
		}
	}
	f.w.EmitWidthPrefix(bytecode.Width32)
	f.w.Emit(op, bytecode.Width32, operands...)
}

// Jump emits a forward- or backward-referencing jump to lbl. op must be
// one of Jump/JumpLoop/JumpIfFalse (never the *Const variants — those are
// chosen automatically were this builder to need deferred-offset
// patching, which it never does since it always emits at Width32).
func (f *Func) Jump(op bytecode.Opcode, lbl Label) {
	f.w.EmitWidthPrefix(bytecode.Width32)
	pos := f.w.Emit(op, bytecode.Width32, 0)
	f.pending = append(f.pending, pendingJump{opcodePos: pos, label: lbl.id})
}

func (f *Func) resolveJumps() error {
	for _, p := range f.pending {
		target := f.labels[p.label]
		if target < 0 {
			return fmt.Errorf("asm: label %d never bound", p.label)
		}
		// Offset is relative to the start of the jump instruction itself
		// (spec.md §4.F): width-prefix byte + opcode byte + 4-byte operand.
		instStart := p.opcodePos - 1 // the Width32 prefix byte we emitted
		offset := int64(target - instStart)
		f.w.PatchOperand(p.opcodePos, bytecode.Width32, 0, offset)
	}
	return nil
}

// Build validates the emitter contract (register/jump/constant bounds per
// spec.md §4.D) and returns the finished descriptor.
func (f *Func) Build() (*value.FunctionDescriptor, error) {
	if err := f.resolveJumps(); err != nil {
		return nil, err
	}
	code := f.w.Bytes()
	frameSize := f.maxReg + 1
	if frameSize < 4 {
		frameSize = 4
	}

	if err := verify(code, f.constants, frameSize); err != nil {
		return nil, err
	}

	desc := value.NewFunctionDescriptor(f.name)
	desc.Params = f.params
	desc.IsGenerator = f.isGen
	desc.Constants = f.constants
	desc.Code = code
	desc.Upvalues = f.upvalues
	desc.FrameSize = frameSize
	return desc, nil
}

// verify walks the encoded instruction stream checking every operand
// against the bounds the emitter contract requires: register indices
// < frame_size, jump targets inside the instruction buffer, constant
// indices < len(constants). Upvalue-index operands are not checked.
func verify(code []byte, constants []value.Constant, frameSize int) error {
	pc := 0
	for pc < len(code) {
		width := bytecode.WidthSingle
		if w, next, ok := bytecode.PeekWidthPrefix(code, pc); ok {
			width = w
			pc = next
		}
		inst, err := bytecode.Decode(code, pc, width)
		if err != nil {
			return err
		}
		instStart := pc
		if width != bytecode.WidthSingle {
			instStart--
		}
		for _, op := range inst.Operands {
			switch op.Kind {
			case bytecode.OperandRegister:
				if op.Value < 0 || int(op.Value) >= frameSize {
					return fmt.Errorf("asm: register operand %d out of range (frame size %d)", op.Value, frameSize)
				}
			case bytecode.OperandConstant:
				if op.Value < 0 || int(op.Value) >= len(constants) {
					return fmt.Errorf("asm: constant index %d out of range (pool size %d)", op.Value, len(constants))
				}
			case bytecode.OperandOffset:
				target := instStart + int(op.Value)
				if target < 0 || target > len(code) {
					return fmt.Errorf("asm: jump target %d out of bounds (code length %d)", target, len(code))
				}
			}
		}
		pc += inst.Size
	}
	return nil
}
