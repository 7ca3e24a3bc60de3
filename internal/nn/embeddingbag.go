// Package nn provides neural-network modules built on the dispatch core.
package nn

import (
	"github.com/pkg/errors"

	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/tensor"
)

// EmbeddingBag aggregates "bags" of embedding rows into one output row per
// bag, without materializing the intermediate per-index embeddings.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter
//   - Forward: indices (flat int64) + offsets (bag starts) -> [numBags, EmbedDim]
//   - Backward: gradients accumulate into weight rows, dense or sparse
//
// The kernel invocation is resolved through the dispatch registry from the
// weight's (backend, scalar type) pair; with Autograd set, lookups go through
// the variable bridge so forward passes are recorded for Backward.
type EmbeddingBag struct {
	Weight          *tensor.RawTensor // Embedding weight matrix [NumEmbed, EmbedDim]
	Mode            dispatch.BagMode  // Reduction applied within each bag
	ScaleGradByFreq bool              // Scale gradients by inverse index frequency
	Sparse          bool              // Return sparse weight gradients (sum/mean only)
	Autograd        bool              // Route lookups through the variable bridge

	// Registry resolves kernel tables; nil means the process-wide registry.
	Registry *dispatch.Registry

	// Inputs and auxiliary outputs of the latest forward, retained so
	// Backward always pairs the gradient with the matching bag structure.
	lastIndices *tensor.RawTensor
	lastOffsets *tensor.RawTensor
	last        *dispatch.BagResult
}

// NewEmbeddingBag creates an EmbeddingBag over a pre-initialized weight
// matrix.
func NewEmbeddingBag(weight *tensor.RawTensor, mode dispatch.BagMode) (*EmbeddingBag, error) {
	if len(weight.Shape()) != 2 {
		return nil, errors.Wrapf(dispatch.ErrShapeMismatch,
			"embedding bag weight must be 2-D, got shape %v", weight.Shape())
	}
	if !weight.ScalarType().IsFloatingPoint() {
		return nil, errors.Wrapf(dispatch.ErrInvalidDType,
			"embedding bag weight must be floating point, got %s", weight.ScalarType())
	}
	return &EmbeddingBag{Weight: weight, Mode: mode}, nil
}

func (e *EmbeddingBag) registry() *dispatch.Registry {
	if e.Registry != nil {
		return e.Registry
	}
	return dispatch.Global()
}

// Forward aggregates the bags described by (indices, offsets) and returns the
// [numBags, EmbedDim] output. The auxiliary outputs needed by Backward are
// retained on the module.
func (e *EmbeddingBag) Forward(indices, offsets *tensor.RawTensor) (*tensor.RawTensor, error) {
	table, err := e.registry().Lookup(e.Weight.Backend(), e.Weight.ScalarType(), e.Autograd)
	if err != nil {
		return nil, err
	}
	res, err := table.EmbeddingBag(e.Weight, indices, offsets, e.ScaleGradByFreq, e.Mode, e.Sparse)
	if err != nil {
		return nil, err
	}
	e.lastIndices = indices
	e.lastOffsets = offsets
	e.last = res
	return res.Output, nil
}

// Backward computes the weight gradient for the latest Forward call, reusing
// that call's indices, offsets, and auxiliary outputs.
func (e *EmbeddingBag) Backward(grad *tensor.RawTensor) (*dispatch.BagGrad, error) {
	if e.last == nil {
		return nil, errors.New("embedding bag: Backward called before Forward")
	}
	table, err := e.registry().Lookup(e.Weight.Backend(), e.Weight.ScalarType(), false)
	if err != nil {
		return nil, err
	}
	return table.EmbeddingBagBackward(grad, e.lastIndices, e.lastOffsets,
		e.last.Offset2Bag, e.last.BagSize, e.last.MaxIndices,
		e.Weight.Shape()[0], e.ScaleGradByFreq, e.Mode, e.Sparse)
}

// BagStructure returns the auxiliary outputs of the latest Forward call, or
// nil if Forward has not run yet.
func (e *EmbeddingBag) BagStructure() *dispatch.BagResult {
	return e.last
}
