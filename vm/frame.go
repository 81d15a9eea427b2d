package vm

import "github.com/wudi/hebi/value"

// Frame is one activation record. Its registers are a window into the
// owning Thread's shared value stack (spec.md §4.E). Frames never
// overlap: a call pushes a fresh window above the caller's and clones
// the arguments into it. Register 0 always holds the callee itself,
// register 1 the variadic-argument List when the function declares one,
// register 2 the kwargs Table when declared, and register 3 onward the
// receiver (for methods) followed by positional parameters.
type Frame struct {
	Function *value.Function
	Module   *value.Module
	Base     int
	Size     int
	PC       int
	Acc      value.Value

	// open holds this frame's registers that have been captured by a
	// closure (MakeFn, FromParent capture): once a register is opened,
	// reads/writes to it go through the shared UpvalueCell instead of
	// the stack slot directly, so sibling closures capturing the same
	// register observe each other's writes (spec.md §4.E).
	open map[int]*value.UpvalueCell
}
