package vm

import "github.com/wudi/hebi/value"

// maxFrames bounds recursion depth; exceeding it raises StackOverflow
// rather than growing the shared stack without limit.
const maxFrames = 2048

// Thread is one cooperative coroutine: a single contiguous Value stack
// shared by every frame it pushes, and the frame stack itself. Only one
// Thread runs at a time inside a Vm; Yield and a top-level Return are the
// only suspension points, and there is no preemption (spec.md §4.I).
type Thread struct {
	vm     *Vm
	stack  []value.Value
	frames []*Frame

	resumeCh chan value.Value
	resultCh chan StepResult
}

func newThread(vm *Vm) *Thread {
	return &Thread{vm: vm, stack: make([]value.Value, 0, 256)}
}

// StepResult is what a Thread hands back to whatever drove it, either by
// Start or by Resume: either a final return value (Done) or a yielded
// value awaiting a Resume to continue (spec.md §4.I).
type StepResult struct {
	Value value.Value
	Done  bool
	Err   error
}

// Start launches callee on a dedicated goroutine and blocks until it
// either returns or hits its first Yield. The goroutine is the only
// concurrency this Thread ever uses: it models single-threaded
// cooperative suspension, not parallel execution — at most one of
// {caller, goroutine} is ever runnable at a time, synchronized by the
// unbuffered channels below.
func (t *Thread) Start(callee value.Value, args []value.Value, kwargs *value.Table) StepResult {
	t.resumeCh = make(chan value.Value)
	t.resultCh = make(chan StepResult)
	go func() {
		v, err := t.call(callee, args, kwargs)
		t.resultCh <- StepResult{Value: v, Done: true, Err: err}
	}()
	return <-t.resultCh
}

// StartFunction is Start's counterpart for a generator body: it runs
// fn directly via callFunction on the dedicated goroutine, bypassing
// call()'s callable-classification switch (and in particular its
// IsGenerator check) so a generator's own body executes as an ordinary
// frame rather than spawning a nested coroutine.
func (t *Thread) StartFunction(fn *value.Function, receiver *value.Value, args []value.Value, kwargs *value.Table) StepResult {
	t.resumeCh = make(chan value.Value)
	t.resultCh = make(chan StepResult)
	go func() {
		v, err := t.callFunction(fn, receiver, args, kwargs)
		t.resultCh <- StepResult{Value: v, Done: true, Err: err}
	}()
	return <-t.resultCh
}

// Resume sends v in as the result of the pending Yield expression and
// blocks until the Thread either yields again or returns.
func (t *Thread) Resume(v value.Value) StepResult {
	t.resumeCh <- v
	return <-t.resultCh
}

// doYield is called from inside the running goroutine by the Yield
// opcode handler: it hands the yielded value back to whoever called
// Start/Resume and blocks until the matching Resume call supplies the
// value this `yield` expression evaluates to.
func (t *Thread) doYield(v value.Value) value.Value {
	t.resultCh <- StepResult{Value: v, Done: false}
	return <-t.resumeCh
}

func (t *Thread) frame() *Frame { return t.frames[len(t.frames)-1] }

func (t *Thread) reg(i int) value.Value {
	f := t.frame()
	if cell, ok := f.open[i]; ok {
		return cell.Get()
	}
	return t.stack[f.Base+i]
}

func (t *Thread) setReg(i int, v value.Value) {
	f := t.frame()
	if cell, ok := f.open[i]; ok {
		cell.Set(v)
		return
	}
	slot := f.Base + i
	t.stack[slot].Release()
	t.stack[slot] = v
}

// openCell returns the UpvalueCell backing register i of the current
// frame, creating it on first capture by moving the register's current
// value into the cell (subsequent Load/Store of that register go
// through the cell from then on).
func (t *Thread) openCell(i int) *value.UpvalueCell {
	f := t.frame()
	if f.open == nil {
		f.open = make(map[int]*value.UpvalueCell)
	}
	if cell, ok := f.open[i]; ok {
		return cell
	}
	slot := f.Base + i
	initial := t.stack[slot]
	t.stack[slot] = value.None()
	cell := value.NewUpvalueCell(initial)
	f.open[i] = cell
	return cell
}

// pushFrame reserves size fresh (None-initialized) registers atop the
// shared stack and pushes a new Frame over them.
func (t *Thread) pushFrame(fn *value.Function, mod *value.Module) (*Frame, error) {
	if len(t.frames) >= maxFrames {
		return nil, value.NewError(value.StackOverflow, "call stack exceeded %d frames", maxFrames)
	}
	base := len(t.stack)
	size := fn.Descriptor.FrameSize
	for i := 0; i < size; i++ {
		t.stack = append(t.stack, value.None())
	}
	f := &Frame{Function: fn, Module: mod, Base: base, Size: size}
	t.frames = append(t.frames, f)
	return f, nil
}

// popFrame releases every register in the popped frame's window and
// shrinks the shared stack back to where the frame started. The frame's
// Acc is not touched here: Return/error handling must have already moved
// it out before the frame is discarded.
func (t *Thread) popFrame() {
	f := t.frames[len(t.frames)-1]
	for i := 0; i < f.Size; i++ {
		if cell, ok := f.open[i]; ok {
			cell.Release()
			continue
		}
		t.stack[f.Base+i].Release()
	}
	t.stack = t.stack[:f.Base]
	t.frames = t.frames[:len(t.frames)-1]
}

// CallValue implements value.Caller, letting BoundFunction/SuperProxy
// resolution re-enter the call protocol from inside an operator hook.
func (t *Thread) CallValue(callee value.Value, args []value.Value, kwargs *value.Table) (value.Value, error) {
	return t.call(callee, args, kwargs)
}
