package dispatch

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/flint-ml/flint/internal/tensor"
)

// tableEntry pairs a registered kernel table with the deleter that destroys
// it when the slot is overwritten.
type tableEntry struct {
	table   KernelTable
	deleter TableDeleter
}

// Registry is the legacy dispatch mechanism: a dense 2-D table of kernel
// tables indexed by (Backend, ScalarType). A dense array instead of a map
// keeps lookup O(1) with no hashing on the hot path.
//
// Registration is intended for the startup phase (package init and the lazy
// init hooks); steady-state lookups are read-only. Slots are atomic pointers
// so the one-time init transition stays race-free against concurrent readers.
type Registry struct {
	table  [tensor.NumBackends][tensor.NumScalarTypes]atomic.Pointer[tableEntry]
	bridge atomic.Pointer[VariableBridge]
	lazy   *lazyInit
}

// NewRegistry creates a registry wired to the given init hooks. The
// canonical Undefined/Undefined fallback slot is pre-registered with an
// error-raising stub so lookups with an Undefined axis always resolve.
func NewRegistry(hooks InitHooks) *Registry {
	r := &Registry{lazy: newLazyInit(hooks)}
	var bridge VariableBridge = identityBridge{}
	r.bridge.Store(&bridge)
	r.RegisterKernelTable(tensor.UndefinedBackend, tensor.UndefinedScalar,
		NewStubTable(tensor.UndefinedBackend, tensor.UndefinedScalar), NopDeleter)
	return r
}

// SetVariableBridge installs the autograd bridge. Startup wiring only.
func (r *Registry) SetVariableBridge(b VariableBridge) {
	r.bridge.Store(&b)
}

// SetInitHooks replaces the lazy init routines. Startup wiring only.
func (r *Registry) SetInitHooks(hooks InitHooks) {
	r.lazy.setHooks(hooks)
}

// RegisterKernelTable inserts ownership of table into the (b, s) slot and
// notifies the variable bridge so it can prepare the autograd-wrapped
// counterpart. Overwriting a non-empty slot is allowed; the previous occupant
// is released through its deleter.
func (r *Registry) RegisterKernelTable(b tensor.Backend, s tensor.ScalarType, table KernelTable, deleter TableDeleter) {
	old := r.table[b][s].Swap(&tableEntry{table: table, deleter: deleter})
	if old != nil && old.deleter != nil {
		old.deleter(old.table)
	}
	klog.V(2).Infof("registered kernel table for %s/%s", b, s)
	(*r.bridge.Load()).OnRegister(r, b, s)
}

// EnsureInitialized runs the subsystem's lazy initialization if it has not
// succeeded yet. It returns ErrBackendUnavailable (wrapped) when the
// subsystem's runtime cannot come up; a failed init is re-attempted on the
// next call.
func (r *Registry) EnsureInitialized(s Subsystem) error {
	return r.lazy.ensure(s)
}

// LookupRaw returns the table registered at (b, s), or nil. Precondition:
// any required initialization already happened (callers normally hold a
// tensor of that type, which implies its table was initialized). The variable
// bridge uses this from OnRegister, where triggering init again would
// deadlock the in-flight gate.
func (r *Registry) LookupRaw(b tensor.Backend, s tensor.ScalarType) KernelTable {
	entry := r.table[b][s].Load()
	if entry == nil {
		return nil
	}
	return entry.table
}

// Lookup resolves the kernel table for (b, s), triggering lazy init for b's
// device family and, when s is complex, for complex support.
//
// If the slot is empty and either axis is Undefined, the canonical
// Undefined/Undefined fallback is returned (a lookup with an Undefined
// backend never triggers device init). If the slot is empty and both axes are
// concrete, the lookup fails with ErrTypeNotEnabled.
//
// With wantAutograd set, the resolved base table is forwarded through the
// variable bridge to obtain the autograd-wrapped table.
func (r *Registry) Lookup(b tensor.Backend, s tensor.ScalarType, wantAutograd bool) (KernelTable, error) {
	if b != tensor.UndefinedBackend {
		if err := r.ensureForBackend(b, s); err != nil {
			return nil, err
		}
	}

	table := r.LookupRaw(b, s)
	if table == nil {
		if b == tensor.UndefinedBackend || s == tensor.UndefinedScalar {
			// There is only a single Undefined table.
			table = r.LookupRaw(tensor.UndefinedBackend, tensor.UndefinedScalar)
		}
		if table == nil {
			return nil, errors.Wrapf(ErrTypeNotEnabled, "%s/%s", b, s)
		}
	}

	if wantAutograd {
		table = (*r.bridge.Load()).Wrap(table)
	}
	return table, nil
}

func (r *Registry) ensureForBackend(b tensor.Backend, s tensor.ScalarType) error {
	var sub Subsystem
	switch b.DeviceType() {
	case tensor.CPUDevice:
		sub = SubsystemCPU
	case tensor.CUDADevice:
		sub = SubsystemCUDA
	}
	if err := r.lazy.ensure(sub); err != nil {
		return err
	}
	if s.IsComplex() {
		return r.lazy.ensure(SubsystemComplex)
	}
	return nil
}

// global is the process-wide registry. It starts with the "no kernels" hooks;
// kernel packages install their hooks from init() via RegisterInitHooks.
var global = NewRegistry(UnavailableHooks{})

// Global returns the process-wide registry.
func Global() *Registry {
	return global
}

// RegisterInitHooks wires init hooks into the global registry. Call from a
// kernel package's init(), e.g. by blank-importing backend/cpu.
func RegisterInitHooks(hooks InitHooks) {
	global.SetInitHooks(hooks)
}
