package dispatch

import "github.com/flint-ml/flint/internal/tensor"

// VariableBridge wraps base kernel tables with autograd-aware counterparts.
// The dispatch core calls it but does not implement it; the real bridge lives
// in the autodiff package, layered on top of base dispatch as a decorator.
type VariableBridge interface {
	// Wrap returns the autograd-wrapped table for a base table. Repeated
	// calls with the same base table must return the same wrapped table.
	Wrap(base KernelTable) KernelTable

	// OnRegister notifies the bridge that a table was registered for
	// (b, s), so it can prepare the wrapped counterpart eagerly.
	OnRegister(reg *Registry, b tensor.Backend, s tensor.ScalarType)
}

// identityBridge is the default bridge: no autograd layer, every table wraps
// to itself.
type identityBridge struct{}

func (identityBridge) Wrap(base KernelTable) KernelTable { return base }

func (identityBridge) OnRegister(*Registry, tensor.Backend, tensor.ScalarType) {}
