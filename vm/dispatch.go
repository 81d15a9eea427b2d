package vm

import (
	"fmt"

	"github.com/wudi/hebi/bytecode"
	"github.com/wudi/hebi/value"
)

// run decode-executes the current (topmost) frame's instruction stream
// until it returns. Every opcode is re-decoded from scratch on each step
// rather than cached in any form, so self-modifying bytecode (an
// in-place opcode patch) is always observed on its very next execution
// (spec.md §9).
func (t *Thread) run() (value.Value, error) {
	f := t.frame()
	code := f.Function.Descriptor.Code

	for {
		width := bytecode.WidthSingle
		pos := f.PC
		if w, next, ok := bytecode.PeekWidthPrefix(code, pos); ok {
			width = w
			pos = next
		}
		inst, err := bytecode.Decode(code, pos, width)
		if err != nil {
			return value.Value{}, value.NewError(value.TypeMismatch, "decode error at pc %d: %v", f.PC, err)
		}
		instStart := f.PC
		f.PC = pos + inst.Size

		result, done, err := t.exec(f, inst, instStart)
		if err != nil {
			if verr, ok := err.(*value.Error); ok {
				verr.WithTrace(f.Function.Descriptor.Name, value.Span{})
			}
			return value.Value{}, err
		}
		if done {
			return result, nil
		}
	}
}

// exec executes one decoded instruction against frame f. instStart is
// the byte offset jump targets are computed relative to (the start of
// the width prefix, if any, else the opcode byte itself).
func (t *Thread) exec(f *Frame, inst bytecode.Instruction, instStart int) (value.Value, bool, error) {
	op := inst.Op
	operand := func(i int) int64 { return inst.Operands[i].Value }

	switch op {
	case bytecode.Load:
		f.Acc.Release()
		f.Acc = t.reg(int(operand(0))).Clone()

	case bytecode.Store:
		t.setReg(int(operand(0)), f.Acc.Clone())

	case bytecode.LoadConst:
		f.Acc.Release()
		f.Acc = constantValue(f, int(operand(0)))

	case bytecode.LoadUpvalue:
		f.Acc.Release()
		f.Acc = f.Function.Upvalues[operand(0)].Get()

	case bytecode.StoreUpvalue:
		f.Function.Upvalues[operand(0)].Set(f.Acc.Clone())

	case bytecode.LoadModuleVar:
		idx := int(operand(0))
		v, err := t.loadModuleVar(f, idx)
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = v

	case bytecode.StoreModuleVar:
		if err := t.storeModuleVar(f, int(operand(0)), f.Acc.Clone()); err != nil {
			return value.Value{}, false, err
		}

	case bytecode.LoadGlobal:
		name := constantString(f, int(operand(0)))
		v, ok := t.vm.globals.Get(name)
		if !ok {
			return value.Value{}, false, value.NewError(value.UnboundName, "unbound global `%s`", name)
		}
		f.Acc.Release()
		f.Acc = v.Clone()

	case bytecode.StoreGlobal:
		name := constantString(f, int(operand(0)))
		t.vm.globals.Set(name, f.Acc.Clone())

	case bytecode.LoadSelf:
		f.Acc.Release()
		f.Acc = t.reg(3).Clone()

	case bytecode.LoadSuper:
		fn := f.Function
		if fn.Super == nil {
			return value.Value{}, false, value.NewError(value.TypeMismatch, "`super` used outside a derived class method")
		}
		self := t.reg(3)
		f.Acc.Release()
		f.Acc = value.FromObject(value.NewSuperProxy(self, fn.Super))

	case bytecode.LoadNone:
		f.Acc.Release()
		f.Acc = value.None()

	case bytecode.LoadTrue:
		f.Acc.Release()
		f.Acc = value.Bool(true)

	case bytecode.LoadFalse:
		f.Acc.Release()
		f.Acc = value.Bool(false)

	case bytecode.LoadSmi:
		f.Acc.Release()
		f.Acc = value.Int(int32(operand(0)))

	case bytecode.LoadField:
		name := constantString(f, int(operand(0)))
		v, err := namedFieldOf(f.Acc, name)
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = v

	case bytecode.LoadFieldOpt:
		if f.Acc.IsNone() {
			break
		}
		name := constantString(f, int(operand(0)))
		v, err := namedFieldOf(f.Acc, name)
		if err != nil {
			if !isMissingFieldErr(err) {
				return value.Value{}, false, err
			}
			f.Acc.Release()
			f.Acc = value.None()
			break
		}
		f.Acc.Release()
		f.Acc = v

	case bytecode.StoreField:
		recv := t.reg(int(operand(0)))
		name := constantString(f, int(operand(1)))
		if err := setNamedFieldOf(recv, name, f.Acc.Clone()); err != nil {
			return value.Value{}, false, err
		}

	case bytecode.LoadIndex:
		recv := t.reg(int(operand(0)))
		v, err := keyedFieldOf(recv, f.Acc)
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = v

	case bytecode.LoadIndexOpt:
		recv := t.reg(int(operand(0)))
		if recv.IsNone() {
			break
		}
		v, err := keyedFieldOf(recv, f.Acc)
		if err != nil {
			if !isMissingFieldErr(err) {
				return value.Value{}, false, err
			}
			f.Acc.Release()
			f.Acc = value.None()
			break
		}
		f.Acc.Release()
		f.Acc = v

	case bytecode.StoreIndex:
		recv := t.reg(int(operand(0)))
		key := t.reg(int(operand(1)))
		if err := setKeyedFieldOf(recv, key, f.Acc.Clone()); err != nil {
			return value.Value{}, false, err
		}

	case bytecode.MakeFn:
		fnVal, err := t.makeClosure(f, int(operand(0)))
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = fnVal

	case bytecode.MakeClass:
		classVal, err := t.makeClass(f, int(operand(0)), nil)
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = classVal

	case bytecode.MakeClassDerived:
		parentObj, ok := f.Acc.ToObject()
		if !ok {
			return value.Value{}, false, value.NewError(value.TypeMismatch, "parent clause must evaluate to a class")
		}
		parent, ok := parentObj.(*value.Class)
		if !ok {
			return value.Value{}, false, value.NewError(value.TypeMismatch, "parent clause must evaluate to a class")
		}
		classVal, err := t.makeClass(f, int(operand(0)), parent)
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = classVal

	case bytecode.MakeList:
		start, count := int(operand(0)), int(operand(1))
		items := make([]value.Value, count)
		for i := 0; i < count; i++ {
			items[i] = t.reg(start + i).Clone()
		}
		f.Acc.Release()
		f.Acc = value.FromObject(value.NewList(items))

	case bytecode.MakeListEmpty:
		f.Acc.Release()
		f.Acc = value.FromObject(value.NewList(nil))

	case bytecode.MakeTable:
		start, count := int(operand(0)), int(operand(1))
		tbl := value.NewTable()
		for i := 0; i < count; i++ {
			keyV := t.reg(start + 2*i)
			valV := t.reg(start + 2*i + 1)
			keyObj, ok := keyV.ToObject()
			if !ok {
				tbl.Finalize()
				return value.Value{}, false, value.NewError(value.BadKey, "table key must be a string")
			}
			keyStr, ok := keyObj.(*value.String)
			if !ok {
				tbl.Finalize()
				return value.Value{}, false, value.NewError(value.BadKey, "table key must be a string")
			}
			tbl.Set(keyStr.Text(), valV.Clone())
		}
		f.Acc.Release()
		f.Acc = value.FromObject(tbl)

	case bytecode.MakeTableEmpty:
		f.Acc.Release()
		f.Acc = value.FromObject(value.NewTable())

	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Rem, bytecode.Pow:
		lhs := t.reg(int(operand(0)))
		res, err := arith(op, lhs, f.Acc)
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = res

	case bytecode.Inv:
		res, err := invert(f.Acc)
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = res

	case bytecode.Not:
		res := value.Bool(!f.Acc.Truthy())
		f.Acc.Release()
		f.Acc = res

	case bytecode.CmpEq:
		lhs := t.reg(int(operand(0)))
		res := value.Bool(valueEqual(lhs, f.Acc))
		f.Acc.Release()
		f.Acc = res

	case bytecode.CmpNe:
		lhs := t.reg(int(operand(0)))
		res := value.Bool(!valueEqual(lhs, f.Acc))
		f.Acc.Release()
		f.Acc = res

	case bytecode.CmpGt, bytecode.CmpGe, bytecode.CmpLt, bytecode.CmpLe:
		lhs := t.reg(int(operand(0)))
		c, err := compare(lhs, f.Acc)
		if err != nil {
			return value.Value{}, false, err
		}
		var res bool
		switch op {
		case bytecode.CmpGt:
			res = c > 0
		case bytecode.CmpGe:
			res = c >= 0
		case bytecode.CmpLt:
			res = c < 0
		case bytecode.CmpLe:
			res = c <= 0
		}
		f.Acc.Release()
		f.Acc = value.Bool(res)

	case bytecode.CmpType:
		lhs := t.reg(int(operand(0)))
		ok, err := cmpType(lhs, f.Acc)
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = value.Bool(ok)

	case bytecode.Contains:
		lhs := t.reg(int(operand(0)))
		ok, err := containsOp(lhs, f.Acc)
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = value.Bool(ok)

	case bytecode.IsNone:
		res := value.Bool(f.Acc.IsNone())
		f.Acc.Release()
		f.Acc = res

	case bytecode.Jump:
		f.PC = instStart + int(operand(0))

	case bytecode.JumpConst:
		off := constantOffset(f, int(operand(0)))
		f.PC = instStart + int(off)

	case bytecode.JumpLoop:
		f.PC = instStart + int(operand(0))

	case bytecode.JumpIfFalse:
		if !f.Acc.Truthy() {
			f.PC = instStart + int(operand(0))
		}

	case bytecode.JumpIfFalseConst:
		if !f.Acc.Truthy() {
			off := constantOffset(f, int(operand(0)))
			f.PC = instStart + int(off)
		}

	case bytecode.Return:
		result := f.Acc
		f.Acc = value.Value{}
		return result, true, nil

	case bytecode.Yield:
		v := t.doYield(f.Acc.Clone())
		f.Acc.Release()
		f.Acc = v

	case bytecode.Call, bytecode.Call0:
		var start, count int
		if op == bytecode.Call0 {
			start, count = int(operand(0)), 0
		} else {
			start, count = int(operand(0)), int(operand(1))
		}
		callee := t.reg(start)
		args := make([]value.Value, count)
		for i := 0; i < count; i++ {
			args[i] = t.reg(start + 1 + i).Clone()
		}
		res, err := t.call(callee, args, nil)
		for _, a := range args {
			a.Release()
		}
		if err != nil {
			return value.Value{}, false, err
		}
		f.Acc.Release()
		f.Acc = res

	case bytecode.Import:
		pathName := constantString(f, int(operand(0)))
		mod, err := t.importModule(pathName)
		if err != nil {
			return value.Value{}, false, err
		}
		t.setReg(int(operand(1)), mod)

	case bytecode.FinalizeModule:
		if f.Module != nil && f.Module.State == value.ModulePending {
			f.Module.MarkReady()
		}

	case bytecode.Print:
		t.vm.writeOutput(f.Acc.Display() + "\n")

	case bytecode.PrintN:
		start, count := int(operand(0)), int(operand(1))
		s := ""
		for i := 0; i < count; i++ {
			if i > 0 {
				s += " "
			}
			s += t.reg(start + i).Display()
		}
		t.vm.writeOutput(s + "\n")

	default:
		return value.Value{}, false, fmt.Errorf("vm: unhandled opcode %s", op)
	}

	return value.Value{}, false, nil
}

func valueEqual(lhs, rhs value.Value) bool {
	if lo, ok := lhs.ToObject(); ok {
		if ro, ok := rhs.ToObject(); ok {
			if lo == ro {
				return true
			}
			if c, err := lo.Cmp(rhs); err == nil {
				return c == 0
			}
			return false
		}
		return false
	}
	return lhs.Equal(rhs)
}

func containsOp(container, needle value.Value) (bool, error) {
	o, ok := container.ToObject()
	if !ok {
		return false, value.NewError(value.TypeMismatch, "`in` requires a container on the left, got `%s`", container.TypeName())
	}
	return o.Contains(needle)
}

// isMissingFieldErr reports whether err is the kind of lookup failure
// LoadFieldOpt/LoadIndexOpt must swallow into `none` rather than propagate
// (spec.md §4.H): an unbound name or a bad/absent key, as opposed to a
// receiver that isn't indexable/fieldable at all.
func isMissingFieldErr(err error) bool {
	e, ok := err.(*value.Error)
	if !ok {
		return false
	}
	return e.Kind == value.UnboundName || e.Kind == value.BadKey
}

func namedFieldOf(recv value.Value, name string) (value.Value, error) {
	o, ok := recv.ToObject()
	if !ok {
		return value.Value{}, value.NewError(value.TypeMismatch, "cannot access field `%s` on value of type `%s`", name, recv.TypeName())
	}
	return o.NamedField(name)
}

func setNamedFieldOf(recv value.Value, name string, v value.Value) error {
	o, ok := recv.ToObject()
	if !ok {
		return value.NewError(value.TypeMismatch, "cannot set field `%s` on value of type `%s`", name, recv.TypeName())
	}
	return o.SetNamedField(name, v)
}

func keyedFieldOf(recv, key value.Value) (value.Value, error) {
	o, ok := recv.ToObject()
	if !ok {
		return value.Value{}, value.NewError(value.TypeMismatch, "cannot index value of type `%s`", recv.TypeName())
	}
	return o.KeyedField(key)
}

func setKeyedFieldOf(recv, key, v value.Value) error {
	o, ok := recv.ToObject()
	if !ok {
		return value.NewError(value.TypeMismatch, "cannot index value of type `%s`", recv.TypeName())
	}
	return o.SetKeyedField(key, v)
}

func arith(op bytecode.Opcode, lhs, rhs value.Value) (value.Value, error) {
	switch op {
	case bytecode.Add:
		return add(lhs, rhs)
	case bytecode.Sub:
		return sub(lhs, rhs)
	case bytecode.Mul:
		return mul(lhs, rhs)
	case bytecode.Div:
		return div(lhs, rhs)
	case bytecode.Rem:
		return rem(lhs, rhs)
	case bytecode.Pow:
		return pow(lhs, rhs)
	default:
		panic("vm: arith called with non-arithmetic opcode")
	}
}
