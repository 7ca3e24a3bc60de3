// Package cpu implements the CPU kernel tables for the Flint dispatch core.
//
// Blank-import this package to wire the CPU init hooks into the global
// dispatch registry:
//
//	import _ "github.com/flint-ml/flint/internal/backend/cpu"
//
// The tables themselves are installed lazily, on the first lookup that
// touches the CPU device family (complex tables on the first complex lookup).
package cpu

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/tensor"
)

// Table implements dispatch.KernelTable for one scalar type on the CPU
// backend. Operators that only support a subset of scalar types (e.g.
// embedding_bag needs a floating weight) validate and reject per call.
type Table struct {
	scalar tensor.ScalarType
}

// Compile-time check that cpu.Table implements dispatch.KernelTable.
var _ dispatch.KernelTable = (*Table)(nil)

// NewTable creates the CPU kernel table for the given scalar type.
func NewTable(scalar tensor.ScalarType) *Table {
	return &Table{scalar: scalar}
}

// Backend returns tensor.CPU.
func (t *Table) Backend() tensor.Backend {
	return tensor.CPU
}

// ScalarType returns the element type this table serves.
func (t *Table) ScalarType() tensor.ScalarType {
	return t.scalar
}

// baseScalarTypes are the element types installed by the CPU init hook.
// Complex types are installed separately by the complex init hook.
var baseScalarTypes = []tensor.ScalarType{
	tensor.Float32,
	tensor.Float64,
	tensor.Float16,
	tensor.Int32,
	tensor.Int64,
	tensor.Uint8,
	tensor.Bool,
}

// Install registers CPU kernel tables for all non-complex scalar types.
func Install(reg *dispatch.Registry) {
	for _, s := range baseScalarTypes {
		reg.RegisterKernelTable(tensor.CPU, s, NewTable(s), dispatch.NopDeleter)
	}
	klog.V(1).Infof("installed %d CPU kernel tables", len(baseScalarTypes))
}

// InstallComplex registers the complex CPU kernel tables. Run by the complex
// init gate on the first lookup of a complex scalar type.
func InstallComplex(reg *dispatch.Registry) {
	for _, s := range []tensor.ScalarType{tensor.Complex64, tensor.Complex128} {
		reg.RegisterKernelTable(tensor.CPU, s, NewTable(s), dispatch.NopDeleter)
	}
	klog.V(1).Info("installed complex CPU kernel tables")
}

// initHooks is the regular-build dispatch.InitHooks implementation: CPU and
// complex install real tables, CUDA reports unavailable (no CUDA runtime is
// linked into a pure-Go build).
type initHooks struct{}

func (initHooks) InitCPU() error {
	Install(dispatch.Global())
	return nil
}

func (initHooks) InitCUDA() error {
	return errors.Wrap(dispatch.ErrBackendUnavailable, "cannot use CUDA without a CUDA runtime")
}

func (initHooks) InitComplex() error {
	InstallComplex(dispatch.Global())
	return nil
}

func init() {
	dispatch.RegisterInitHooks(initHooks{})
}
