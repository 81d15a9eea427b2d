package vm

import "github.com/wudi/hebi/value"

// retainFunction bumps fn's refcount and returns the same pointer. It's
// the Go stand-in for calling the source representation's Rc::clone on
// an already-held reference from outside the value package (whose
// Header.retain is unexported).
func retainFunction(fn *value.Function) *value.Function {
	v := value.FromObject(fn).Clone()
	obj, _ := v.ToObject()
	return obj.(*value.Function)
}

// instantiateMethod binds desc's upvalues against the currently
// executing frame f, producing a live Function closure. Shared by MakeFn
// (desc comes from the constant pool) and class construction (desc
// comes directly from a ClassDescriptor's method table).
func (t *Thread) instantiateMethod(f *Frame, desc *value.FunctionDescriptor) (value.Value, error) {
	upvalues := make([]*value.UpvalueCell, len(desc.Upvalues))
	for i, ud := range desc.Upvalues {
		if ud.FromParent {
			upvalues[i] = t.openCell(int(ud.Index)).Retain()
		} else {
			upvalues[i] = f.Function.Upvalues[ud.Index].Retain()
		}
	}
	modID := value.ModuleID(0)
	if f.Module != nil {
		modID = f.Module.ID
	}
	fn := value.NewFunction(desc, upvalues, modID)
	return value.FromObject(fn), nil
}

func (t *Thread) makeClosure(f *Frame, idx int) (value.Value, error) {
	c := f.Function.Descriptor.Constants[idx]
	obj, ok := c.Obj.ToObject()
	if !ok {
		return value.Value{}, value.NewError(value.TypeMismatch, "MakeFn constant is not a function descriptor")
	}
	desc, ok := obj.(*value.FunctionDescriptor)
	if !ok {
		return value.Value{}, value.NewError(value.TypeMismatch, "MakeFn constant is not a function descriptor")
	}
	return t.instantiateMethod(f, desc)
}

// makeClass builds a runtime Class from a ClassDescriptor, merging in a
// parent's methods and field defaults when one is given (spec.md §3's
// invariant that a derived class's method table contains every
// unshadowed parent method) and tagging every method this class declares
// directly with its own `super` target (spec.md §9).
func (t *Thread) makeClass(f *Frame, idx int, parent *value.Class) (value.Value, error) {
	c := f.Function.Descriptor.Constants[idx]
	obj, ok := c.Obj.ToObject()
	if !ok {
		return value.Value{}, value.NewError(value.TypeMismatch, "MakeClass constant is not a class descriptor")
	}
	desc, ok := obj.(*value.ClassDescriptor)
	if !ok {
		return value.Value{}, value.NewError(value.TypeMismatch, "MakeClass constant is not a class descriptor")
	}

	methods := make(map[string]*value.Function)
	fields := value.NewTable()
	if parent != nil {
		for name, fn := range parent.Methods {
			methods[name] = retainFunction(fn)
		}
		for _, k := range parent.Fields.Keys() {
			v, _ := parent.Fields.Get(k)
			fields.Set(k, v.Clone())
		}
	}
	for _, fd := range desc.Fields {
		fields.Set(fd.Name, fd.Default.Clone())
	}

	var ownMethods []*value.Function
	for name, methodDesc := range desc.Methods {
		fnVal, err := t.instantiateMethod(f, methodDesc)
		if err != nil {
			fields.Finalize()
			for _, m := range methods {
				value.FromObject(m).Release()
			}
			return value.Value{}, err
		}
		mobj, _ := fnVal.ToObject()
		fn := mobj.(*value.Function)
		methods[name] = fn
		ownMethods = append(ownMethods, fn)
	}

	class := value.NewClass(desc.Name, desc.Params, methods, fields, parent)
	for _, fn := range ownMethods {
		fn.SetSuper(class)
	}
	return value.FromObject(class), nil
}
