package vm

import "github.com/wudi/hebi/value"

// constantValue loads a LoadConst-eligible constant-pool slot. Reserved
// slots (forward-jump placeholders) are never valid here — the emitter
// contract guarantees LoadConst never targets one (spec.md §4.C).
func constantValue(f *Frame, idx int) value.Value {
	c := f.Function.Descriptor.Constants[idx]
	switch c.Kind {
	case value.ConstFloat:
		return value.Float(c.Float)
	case value.ConstString, value.ConstFunction, value.ConstClass:
		return c.Obj.Clone()
	default:
		panic("vm: LoadConst referenced a reserved or offset constant slot")
	}
}

func constantString(f *Frame, idx int) string {
	c := f.Function.Descriptor.Constants[idx]
	obj, _ := c.Obj.ToObject()
	s, _ := obj.(*value.String)
	return s.Text()
}

func constantOffset(f *Frame, idx int) int32 {
	c := f.Function.Descriptor.Constants[idx]
	return c.Offset
}
