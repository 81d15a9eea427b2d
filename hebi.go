// Package hebi is a thin convenience wrapper around package vm for hosts
// that just want to eval a script without touching the runtime internals
// directly.
package hebi

import (
	"github.com/wudi/hebi/value"
	"github.com/wudi/hebi/vm"
)

type Vm = vm.Vm

func New() *Vm { return vm.New() }

// Eval compiles and runs source as the root module on a fresh Vm.
func Eval(source string) (value.Value, error) {
	return New().Eval(source)
}
