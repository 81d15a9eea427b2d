package vm

import "github.com/wudi/hebi/value"

// Coroutine is the runtime object a generator call produces: a dedicated
// Thread whose first frame is built from the captured call arguments but
// not run until the first `next()` call (spec.md §4.I, §9's "Generators"
// redesign note — the public surface is an iterator protocol rather than
// raw resume/yield). Defined in vm rather than value because it embeds a
// *Thread.
type Coroutine struct {
	value.Base

	thread  *Thread
	fn      *value.Function
	recv    *value.Value
	args    []value.Value
	kwargs  *value.Table
	started bool
	done    bool
}

// startGenerator implements spec.md §4.I/§9's generator-call redesign:
// calling a function whose descriptor has IsGenerator set does not run
// its body — it validates arity eagerly and hands back a Coroutine that
// lazily builds and runs the first frame on its first `next()` call.
// args/kwargs/receiver are borrowed from the caller (the call-protocol
// convention everywhere else in this package), so the Coroutine clones
// its own copies to hold onto across calls.
func (t *Thread) startGenerator(fn *value.Function, receiver *value.Value, args []value.Value, kwargs *value.Table) (value.Value, error) {
	spec := fn.Descriptor.Params
	if spec.HasSelf && receiver == nil {
		return value.Value{}, value.NewError(value.ArityMismatch, "`%s` requires a receiver", fn.Descriptor.Name)
	}
	if err := checkArity(spec, len(args), fn.Descriptor.Name); err != nil {
		return value.Value{}, err
	}

	var recvCopy *value.Value
	if receiver != nil {
		c := receiver.Clone()
		recvCopy = &c
	}
	argsCopy := make([]value.Value, len(args))
	for i, a := range args {
		argsCopy[i] = a.Clone()
	}
	var kwargsCopy *value.Table
	if kwargs != nil {
		kwargsCopy = kwargs.Clone()
	}

	co := newCoroutine(t.vm, fn, recvCopy, argsCopy, kwargsCopy)
	return value.FromObject(co), nil
}

func newCoroutine(vm *Vm, fn *value.Function, recv *value.Value, args []value.Value, kwargs *value.Table) *Coroutine {
	return &Coroutine{
		Base:   value.NewBase("Coroutine"),
		thread: newThread(vm),
		fn:     retainFunction(fn),
		recv:   recv,
		args:   args,
		kwargs: kwargs,
	}
}

func (co *Coroutine) Display() string { return "<coroutine " + co.fn.Descriptor.Name + ">" }
func (co *Coroutine) Debug() string   { return co.Display() }

func (co *Coroutine) Finalize() {
	value.FromObject(co.fn).Release()
	if co.recv != nil {
		co.recv.Release()
	}
	for _, a := range co.args {
		a.Release()
	}
	if co.kwargs != nil {
		value.FromObject(co.kwargs).Release()
	}
}

// NamedField exposes the iterator protocol: `next()` advances the
// coroutine one step, `done` reports whether it has returned.
func (co *Coroutine) NamedField(name string) (value.Value, error) {
	switch name {
	case "next":
		fn := value.NewNativeFunction("next", func(c value.Caller, args []value.Value, kwargs *value.Table) (value.Value, error) {
			return co.next()
		})
		return value.FromObject(value.NewBoundFunction(value.FromObject(co), value.FromObject(fn))), nil
	case "done":
		return value.Bool(co.done), nil
	default:
		return value.Value{}, value.NewError(value.UnboundName, "no field named `%s` on coroutine", name)
	}
}

// next runs the coroutine to its next suspension point, returning a
// two-field table `{value, done}` (spec.md §9's iterator-protocol note).
func (co *Coroutine) next() (value.Value, error) {
	if co.done {
		return co.result(value.None(), true), nil
	}

	var res StepResult
	if !co.started {
		co.started = true
		res = co.thread.StartFunction(co.fn, co.recv, co.args, co.kwargs)
	} else {
		res = co.thread.Resume(value.None())
	}

	if res.Err != nil {
		co.done = true
		return value.Value{}, res.Err
	}
	if res.Done {
		co.done = true
	}
	return co.result(res.Value, res.Done), nil
}

func (co *Coroutine) result(v value.Value, done bool) value.Value {
	tbl := value.NewTable()
	tbl.Set("value", v)
	tbl.Set("done", value.Bool(done))
	return value.FromObject(tbl)
}
