package autodiff

import (
	"sync"

	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/tensor"
)

// VariableTable decorates a base kernel table with gradient recording. It
// holds a reference to the base table, never ownership: the registry remains
// the sole owner of base tables.
type VariableTable struct {
	base dispatch.KernelTable
	tape *GradientTape
}

// Compile-time check that VariableTable implements dispatch.KernelTable.
var _ dispatch.KernelTable = (*VariableTable)(nil)

// Base returns the wrapped base table.
func (v *VariableTable) Base() dispatch.KernelTable {
	return v.base
}

// Backend returns the base table's backend.
func (v *VariableTable) Backend() tensor.Backend {
	return v.base.Backend()
}

// ScalarType returns the base table's element type.
func (v *VariableTable) ScalarType() tensor.ScalarType {
	return v.base.ScalarType()
}

// EmbeddingBag forwards to the base kernel and records the invocation (with
// its auxiliary outputs) on the tape when recording is on.
func (v *VariableTable) EmbeddingBag(weight, indices, offsets *tensor.RawTensor,
	scaleGradByFreq bool, mode dispatch.BagMode, sparse bool) (*dispatch.BagResult, error) {
	res, err := v.base.EmbeddingBag(weight, indices, offsets, scaleGradByFreq, mode, sparse)
	if err != nil {
		return nil, err
	}
	v.tape.record(bagOp{
		base:            v.base,
		weight:          weight,
		indices:         indices,
		offsets:         offsets,
		result:          res,
		scaleGradByFreq: scaleGradByFreq,
		mode:            mode,
		sparse:          sparse,
	})
	return res, nil
}

// EmbeddingBagBackward forwards to the base kernel. Second-order gradients
// are not recorded.
func (v *VariableTable) EmbeddingBagBackward(grad, indices, offsets, offset2bag, bagSize,
	maxIndices *tensor.RawTensor, numWeights int,
	scaleGradByFreq bool, mode dispatch.BagMode, sparse bool) (*dispatch.BagGrad, error) {
	return v.base.EmbeddingBagBackward(grad, indices, offsets, offset2bag, bagSize,
		maxIndices, numWeights, scaleGradByFreq, mode, sparse)
}

// LocalScalar forwards to the base kernel; no gradient flows through it.
func (v *VariableTable) LocalScalar(t *tensor.RawTensor) (any, error) {
	return v.base.LocalScalar(t)
}

// Flip forwards to the base kernel; flip gradients are outside this core.
func (v *VariableTable) Flip(t *tensor.RawTensor, dims []int) (*tensor.RawTensor, error) {
	return v.base.Flip(t, dims)
}

// Bridge implements dispatch.VariableBridge: it prepares and caches one
// VariableTable per base table, so repeated autograd lookups return the same
// wrapped instance.
type Bridge struct {
	tape    *GradientTape
	mu      sync.Mutex
	wrapped map[dispatch.KernelTable]*VariableTable
}

// Compile-time check that Bridge implements dispatch.VariableBridge.
var _ dispatch.VariableBridge = (*Bridge)(nil)

// NewBridge creates a bridge recording onto tape.
func NewBridge(tape *GradientTape) *Bridge {
	return &Bridge{
		tape:    tape,
		wrapped: make(map[dispatch.KernelTable]*VariableTable),
	}
}

// Tape returns the tape the bridge records onto.
func (b *Bridge) Tape() *GradientTape {
	return b.tape
}

// Wrap returns the autograd-wrapped table for base, creating it on first use.
// Wrapping an already-wrapped table returns it unchanged.
func (b *Bridge) Wrap(base dispatch.KernelTable) dispatch.KernelTable {
	if _, ok := base.(*VariableTable); ok {
		return base
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	vt, ok := b.wrapped[base]
	if !ok {
		vt = &VariableTable{base: base, tape: b.tape}
		b.wrapped[base] = vt
	}
	return vt
}

// OnRegister eagerly prepares the wrapped counterpart for a just-registered
// table. Uses the registry's raw accessor: registration can happen inside an
// init gate, where triggering init again would deadlock.
func (b *Bridge) OnRegister(reg *dispatch.Registry, backend tensor.Backend, scalar tensor.ScalarType) {
	if base := reg.LookupRaw(backend, scalar); base != nil {
		b.Wrap(base)
	}
}

// Install wires a fresh bridge (with a fresh tape) into the registry and
// returns the bridge for tape control.
func Install(reg *dispatch.Registry) *Bridge {
	bridge := NewBridge(NewGradientTape())
	reg.SetVariableBridge(bridge)
	return bridge
}
