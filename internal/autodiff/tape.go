// Package autodiff layers gradient recording on top of the base kernel
// tables. It provides the variable bridge the dispatch registry forwards
// autograd lookups through.
package autodiff

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/tensor"
)

// bagOp records one embedding bag forward invocation together with the
// auxiliary outputs its backward pass needs.
type bagOp struct {
	base            dispatch.KernelTable
	weight          *tensor.RawTensor
	indices         *tensor.RawTensor
	offsets         *tensor.RawTensor
	result          *dispatch.BagResult
	scaleGradByFreq bool
	mode            dispatch.BagMode
	sparse          bool
}

// GradientTape records operations during the forward pass and routes
// gradients to the base tables' backward kernels during the backward pass.
type GradientTape struct {
	mu        sync.Mutex
	ops       []bagOp
	recording bool
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		ops:       make([]bagOp, 0, 16),
		recording: false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recording
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = t.ops[:0]
}

func (t *GradientTape) record(op bagOp) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recording {
		t.ops = append(t.ops, op)
	}
}

// Backward computes weight gradients by walking the tape in reverse. The
// output gradient seeds the most recently recorded operation; gradients for
// all recorded operations whose output received a gradient are accumulated
// per weight tensor. Dense gradients for the same weight sum; sparse
// gradients concatenate their (index, value) lists, since accumulation by
// index is deferred anyway.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor) (map[*tensor.RawTensor]*dispatch.BagGrad, error) {
	t.mu.Lock()
	ops := append([]bagOp(nil), t.ops...)
	t.mu.Unlock()

	grads := make(map[*tensor.RawTensor]*dispatch.BagGrad)
	if len(ops) == 0 {
		return grads, nil
	}

	upstream := map[*tensor.RawTensor]*tensor.RawTensor{
		ops[len(ops)-1].result.Output: outputGrad,
	}

	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		g := upstream[op.result.Output]
		if g == nil {
			continue
		}
		numWeights := op.weight.Shape()[0]
		bagGrad, err := op.base.EmbeddingBagBackward(g, op.indices, op.offsets,
			op.result.Offset2Bag, op.result.BagSize, op.result.MaxIndices,
			numWeights, op.scaleGradByFreq, op.mode, op.sparse)
		if err != nil {
			return nil, err
		}
		if err := accumulate(grads, op.weight, bagGrad); err != nil {
			return nil, err
		}
	}
	return grads, nil
}

func accumulate(grads map[*tensor.RawTensor]*dispatch.BagGrad, weight *tensor.RawTensor, g *dispatch.BagGrad) error {
	prev, ok := grads[weight]
	if !ok {
		grads[weight] = g
		return nil
	}
	switch {
	case prev.Dense != nil && g.Dense != nil:
		return addInto(prev.Dense, g.Dense)
	case prev.Sparse != nil && g.Sparse != nil:
		prev.Sparse = concatSparse(prev.Sparse, g.Sparse)
		return nil
	default:
		return errors.Wrap(dispatch.ErrUnsupported,
			"backward: cannot mix dense and sparse gradients for one weight")
	}
}

// addInto accumulates src into dst elementwise.
func addInto(dst, src *tensor.RawTensor) error {
	if !dst.Shape().Equal(src.Shape()) || dst.ScalarType() != src.ScalarType() {
		return errors.Wrapf(dispatch.ErrShapeMismatch,
			"backward: gradient shape %v does not match accumulated %v", src.Shape(), dst.Shape())
	}
	switch dst.ScalarType() {
	case tensor.Float32:
		d, s := dst.AsFloat32(), src.AsFloat32()
		for i := range d {
			d[i] += s[i]
		}
	case tensor.Float64:
		d, s := dst.AsFloat64(), src.AsFloat64()
		for i := range d {
			d[i] += s[i]
		}
	default:
		return errors.Wrapf(dispatch.ErrInvalidDType,
			"backward: cannot accumulate %s gradients", dst.ScalarType())
	}
	return nil
}

// concatSparse joins two sparse gradients into one longer (index, value)
// list. Duplicate indices are fine: the deferred accumulation handles them.
func concatSparse(a, b *dispatch.SparseGrad) *dispatch.SparseGrad {
	na, nb := a.Indices.NumElements(), b.Indices.NumElements()
	dim := a.Values.Shape()[1]

	indices := tensor.Zeros(tensor.Shape{na + nb}, tensor.Int64, tensor.CPU)
	copy(indices.AsInt64()[:na], a.Indices.AsInt64())
	copy(indices.AsInt64()[na:], b.Indices.AsInt64())

	values := tensor.Zeros(tensor.Shape{na + nb, dim}, a.Values.ScalarType(), tensor.CPU)
	copy(values.Data(), a.Values.Data())
	copy(values.Data()[na*dim*a.Values.ScalarType().Size():], b.Values.Data())

	return &dispatch.SparseGrad{Indices: indices, Values: values}
}
