package vm

import "github.com/wudi/hebi/value"

// call classifies callee and dispatches it per spec.md §4.G: a Class
// constructs an instance, a Function pushes a frame, a BoundFunction
// unwraps its receiver and recurses, a NativeFunction invokes the host
// callback directly, and a NativeClass constructs a native instance.
func (t *Thread) call(callee value.Value, args []value.Value, kwargs *value.Table) (value.Value, error) {
	obj, ok := callee.ToObject()
	if !ok {
		return value.Value{}, value.NewError(value.TypeMismatch, "value of type `%s` is not callable", callee.TypeName())
	}
	switch fn := obj.(type) {
	case *value.Function:
		if fn.Descriptor.IsGenerator {
			return t.startGenerator(fn, nil, args, kwargs)
		}
		return t.callFunction(fn, nil, args, kwargs)
	case *value.BoundFunction:
		recv := fn.Receiver
		inner, ok := fn.Callable.ToObject()
		if !ok {
			return value.Value{}, value.NewError(value.TypeMismatch, "bound value is not callable")
		}
		switch ic := inner.(type) {
		case *value.Function:
			if ic.Descriptor.IsGenerator {
				return t.startGenerator(ic, &recv, args, kwargs)
			}
			return t.callFunction(ic, &recv, args, kwargs)
		case *value.NativeFunction:
			return ic.Call(t, append([]value.Value{recv}, args...), kwargs)
		default:
			return value.Value{}, value.NewError(value.TypeMismatch, "bound value is not callable")
		}
	case *value.NativeFunction:
		return fn.Call(t, args, kwargs)
	case *value.Class:
		return t.construct(fn, args, kwargs)
	case *value.NativeClass:
		return t.constructNative(fn, args, kwargs)
	default:
		return value.Value{}, value.NewError(value.TypeMismatch, "value of type `%s` is not callable", callee.TypeName())
	}
}

// checkArity validates a positional-argument count against a ParamSpec,
// per spec.md §4.G step 2 (strict: no default-value promotion here —
// that's the emitter's job to have already baked in via explicit
// defaulting instructions, which this core does not need to model).
func checkArity(spec value.ParamSpec, n int, name string) error {
	if n < spec.Min {
		return value.NewError(value.ArityMismatch, "`%s` expects at least %d argument(s), got %d", name, spec.Min, n)
	}
	if !spec.Variadic && n > spec.Max {
		return value.NewError(value.ArityMismatch, "`%s` expects at most %d argument(s), got %d", name, spec.Max, n)
	}
	return nil
}

// callFunction pushes a frame for fn, binds its fixed register layout
// (spec.md §4.E: 0=callee, 1=variadic argv, 2=kwargs, 3=self/first
// positional, 4..=rest), and runs the dispatch loop to completion.
func (t *Thread) callFunction(fn *value.Function, receiver *value.Value, args []value.Value, kwargs *value.Table) (value.Value, error) {
	spec := fn.Descriptor.Params
	if spec.HasSelf && receiver == nil {
		return value.Value{}, value.NewError(value.ArityMismatch, "`%s` requires a receiver", fn.Descriptor.Name)
	}
	if err := checkArity(spec, len(args), fn.Descriptor.Name); err != nil {
		return value.Value{}, err
	}

	mod, _ := t.vm.modules.Get(fn.Module)

	if _, err := t.pushFrame(fn, mod); err != nil {
		return value.Value{}, err
	}

	t.setReg(0, value.FromObject(fn).Clone())

	fixed := len(args)
	if spec.Variadic && fixed > spec.Max {
		fixed = spec.Max
	}
	if spec.Variadic {
		items := make([]value.Value, 0, len(args)-fixed)
		for _, v := range args[fixed:] {
			items = append(items, v.Clone())
		}
		t.setReg(1, value.FromObject(value.NewList(items)))
	}
	if spec.Kwargs {
		if kwargs != nil {
			t.setReg(2, value.FromObject(kwargs.Clone()))
		} else {
			t.setReg(2, value.FromObject(value.NewTable()))
		}
	}

	next := 3
	if spec.HasSelf {
		t.setReg(next, receiver.Clone())
		next++
	}
	for i := 0; i < fixed; i++ {
		t.setReg(next, args[i].Clone())
		next++
	}

	result, err := t.run()
	t.popFrame()
	return result, err
}

// construct implements spec.md §4.G's script-class instantiation: a
// fresh Instance with cloned field defaults, an optional init call, then
// freezing so no further fields may be added.
func (t *Thread) construct(class *value.Class, args []value.Value, kwargs *value.Table) (value.Value, error) {
	inst := value.NewInstance(class)
	instVal := value.FromObject(inst)
	if class.Init != nil {
		recv := instVal.Clone()
		_, err := t.callFunction(class.Init, &recv, args, kwargs)
		recv.Release()
		if err != nil {
			instVal.Release()
			return value.Value{}, err
		}
	} else {
		if err := checkArity(class.Params, len(args), class.Name); err != nil {
			instVal.Release()
			return value.Value{}, err
		}
		if kwargs != nil {
			for _, k := range kwargs.Keys() {
				v, _ := kwargs.Get(k)
				inst.Fields.Set(k, v.Clone())
			}
		}
	}
	inst.Frozen = true
	return instVal, nil
}

func (t *Thread) constructNative(class *value.NativeClass, args []value.Value, kwargs *value.Table) (value.Value, error) {
	var userData any
	if class.Init != nil {
		v, err := class.Init(t, args, kwargs)
		if err != nil {
			return value.Value{}, err
		}
		userData = v
	}
	inst := value.NewNativeInstance(class, userData)
	return value.FromObject(inst), nil
}
