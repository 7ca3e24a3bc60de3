package cpu

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/parallel"
	"github.com/flint-ml/flint/internal/tensor"
)

// EmbeddingBagBackward computes the weight gradient for EmbeddingBag.
//
// The dense path groups contributions by sorted index value so all writes to
// one weight row land in one contiguous block; blocks write to disjoint rows
// and run in parallel. The sparse path (sum/mean only) expands the gradient
// to per-position granularity and returns it as (index, value) pairs,
// deferring accumulation-by-index to the generic embedding backward routine.
func (t *Table) EmbeddingBagBackward(grad, indices, offsets, offset2bag, bagSize,
	maxIndices *tensor.RawTensor, numWeights int,
	scaleGradByFreq bool, mode dispatch.BagMode, sparse bool) (*dispatch.BagGrad, error) {
	const op = "embedding_bag_backward"
	if err := t.checkBagInputs(op, indices, offsets); err != nil {
		return nil, err
	}
	if err := t.checkBagGrad(op, grad, indices, offset2bag, numWeights); err != nil {
		return nil, err
	}

	if sparse {
		if mode == dispatch.BagMax {
			return nil, errors.Wrapf(dispatch.ErrUnsupported,
				"%s: sparse gradients are not supported for max mode", op)
		}
		return t.sparseBackward(grad, indices, offset2bag, bagSize, scaleGradByFreq, mode)
	}
	return t.denseBackward(grad, indices, offset2bag, bagSize, maxIndices,
		numWeights, scaleGradByFreq, mode)
}

func (t *Table) checkBagGrad(op string, grad, indices, offset2bag *tensor.RawTensor, numWeights int) error {
	if t.scalar != tensor.Float32 && t.scalar != tensor.Float64 {
		return errors.Wrapf(dispatch.ErrInvalidDType,
			"%s: grad must be float32 or float64, got %s", op, t.scalar)
	}
	if grad.ScalarType() != t.scalar {
		return errors.Wrapf(dispatch.ErrInvalidDType,
			"%s: grad element type is %s, table serves %s", op, grad.ScalarType(), t.scalar)
	}
	if len(grad.Shape()) != 2 {
		return errors.Wrapf(dispatch.ErrShapeMismatch,
			"%s: grad must be 2-D, got shape %v", op, grad.Shape())
	}
	if offset2bag.ScalarType() != tensor.Int64 {
		return errors.Wrapf(dispatch.ErrInvalidDType,
			"%s: offset2bag must be int64, got %s", op, offset2bag.ScalarType())
	}
	if offset2bag.NumElements() != indices.NumElements() {
		return errors.Wrapf(dispatch.ErrShapeMismatch,
			"%s: offset2bag has %d entries for %d indices",
			op, offset2bag.NumElements(), indices.NumElements())
	}
	// The backward pass takes numWeights independently of the weight matrix,
	// so indices must be re-validated against it here.
	for i, idx := range indices.AsInt64() {
		if idx < 0 || idx >= int64(numWeights) {
			return errors.Wrapf(dispatch.ErrDimOutOfRange,
				"%s: indices[%d]=%d out of range [0, %d)", op, i, idx, numWeights)
		}
	}
	numBags := int64(grad.Shape()[0])
	for i, bag := range offset2bag.AsInt64() {
		if bag < 0 || bag >= numBags {
			return errors.Wrapf(dispatch.ErrDimOutOfRange,
				"%s: offset2bag[%d]=%d out of range [0, %d)", op, i, bag, numBags)
		}
	}
	return nil
}

// indexCounts returns, for every weight row, its total occurrence count
// across all bags.
func indexCounts(indices []int64, numWeights int) []int64 {
	counts := make([]int64, numWeights)
	for _, idx := range indices {
		counts[idx]++
	}
	return counts
}

// sortByIndex returns indices sorted by value with offset2bag carried along
// under the same permutation, so all contributions to one weight row become
// contiguous. The sort is stable: within one index value, bag order follows
// the input order.
func sortByIndex(indices, offset2bag []int64) (sortedIndices, sortedO2B []int64) {
	n := len(indices)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return indices[perm[i]] < indices[perm[j]]
	})

	sortedIndices = make([]int64, n)
	sortedO2B = make([]int64, n)
	for k, p := range perm {
		sortedIndices[k] = indices[p]
		sortedO2B[k] = offset2bag[p]
	}
	return sortedIndices, sortedO2B
}

// uniqueBlocks delimits each unique index's contiguous run within the sorted
// view as [start, end) pairs.
func uniqueBlocks(sortedIndices []int64, counts []int64) [][2]int {
	var blocks [][2]int
	for i := 0; i < len(sortedIndices); {
		end := i + int(counts[sortedIndices[i]])
		blocks = append(blocks, [2]int{i, end})
		i = end
	}
	return blocks
}

func (t *Table) denseBackward(grad, indices, offset2bag, bagSize, maxIndices *tensor.RawTensor,
	numWeights int, scaleGradByFreq bool, mode dispatch.BagMode) (*dispatch.BagGrad, error) {
	embedDim := grad.Shape()[1]
	gradWeight := tensor.Zeros(tensor.Shape{numWeights, embedDim}, t.scalar, tensor.CPU)

	if mode == dispatch.BagSum || mode == dispatch.BagMean {
		sortedIndices, sortedO2B := sortByIndex(indices.AsInt64(), offset2bag.AsInt64())
		counts := indexCounts(sortedIndices, numWeights)
		blocks := uniqueBlocks(sortedIndices, counts)
		bagSizes := bagSize.AsInt64()

		// Each block accumulates into exactly one destination row, so blocks
		// never race with each other.
		parallel.For(len(blocks), func(bi int) {
			start, end := blocks[bi][0], blocks[bi][1]
			index := sortedIndices[start]
			for j := start; j < end; j++ {
				source := sortedO2B[j]
				scale := 1.0
				if scaleGradByFreq {
					scale /= float64(counts[index])
				}
				if mode == dispatch.BagMean {
					scale /= float64(max(bagSizes[source], 1))
				}
				switch t.scalar {
				case tensor.Float32:
					axpyRowFloat32(embedDim, float32(scale),
						grad.AsFloat32()[source*int64(embedDim):],
						gradWeight.AsFloat32()[index*int64(embedDim):])
				case tensor.Float64:
					axpyRowFloat64(embedDim, scale,
						grad.AsFloat64()[source*int64(embedDim):],
						gradWeight.AsFloat64()[index*int64(embedDim):])
				}
			}
		}, parallel.DefaultConfig())

		return &dispatch.BagGrad{Dense: gradWeight}, nil
	}

	// Max mode: gradient flows only to the row that won the max in forward.
	// Empty bags contribute nothing.
	if maxIndices == nil || maxIndices.ScalarType() != tensor.Int64 {
		return nil, errors.Wrap(dispatch.ErrInvalidDType,
			"embedding_bag_backward: max mode requires int64 max_indices")
	}
	bagSizes := bagSize.AsInt64()
	maxData := maxIndices.AsInt64()
	switch t.scalar {
	case tensor.Float32:
		gradData := grad.AsFloat32()
		out := gradWeight.AsFloat32()
		for b, size := range bagSizes {
			if size == 0 {
				continue
			}
			for d := 0; d < embedDim; d++ {
				out[maxData[b*embedDim+d]*int64(embedDim)+int64(d)] += gradData[b*embedDim+d]
			}
		}
	case tensor.Float64:
		gradData := grad.AsFloat64()
		out := gradWeight.AsFloat64()
		for b, size := range bagSizes {
			if size == 0 {
				continue
			}
			for d := 0; d < embedDim; d++ {
				out[maxData[b*embedDim+d]*int64(embedDim)+int64(d)] += gradData[b*embedDim+d]
			}
		}
	}
	return &dispatch.BagGrad{Dense: gradWeight}, nil
}

// sparseBackward expands grad back to per-position granularity via
// offset2bag, applies the same mean and frequency scaling as the dense path,
// and returns the result in (index-list, value-list) form.
func (t *Table) sparseBackward(grad, indices, offset2bag, bagSize *tensor.RawTensor,
	scaleGradByFreq bool, mode dispatch.BagMode) (*dispatch.BagGrad, error) {
	n := indices.NumElements()
	embedDim := grad.Shape()[1]
	values := tensor.Zeros(tensor.Shape{n, embedDim}, t.scalar, tensor.CPU)

	indicesData := indices.AsInt64()
	o2b := offset2bag.AsInt64()
	bagSizes := bagSize.AsInt64()
	counts := indexCounts(indicesData, int(maxIndex(indicesData)+1))

	for i := 0; i < n; i++ {
		scale := 1.0
		if scaleGradByFreq {
			scale /= float64(counts[indicesData[i]])
		}
		if mode == dispatch.BagMean {
			scale /= float64(max(bagSizes[o2b[i]], 1))
		}
		switch t.scalar {
		case tensor.Float32:
			axpyRowFloat32(embedDim, float32(scale),
				grad.AsFloat32()[o2b[i]*int64(embedDim):],
				values.AsFloat32()[i*embedDim:])
		case tensor.Float64:
			axpyRowFloat64(embedDim, scale,
				grad.AsFloat64()[o2b[i]*int64(embedDim):],
				values.AsFloat64()[i*embedDim:])
		}
	}

	return &dispatch.BagGrad{Sparse: &dispatch.SparseGrad{
		Indices: indices.Clone(),
		Values:  values,
	}}, nil
}

func maxIndex(indices []int64) int64 {
	var m int64
	for _, idx := range indices {
		if idx > m {
			m = idx
		}
	}
	return m
}

func axpyRowFloat32(dim int, alpha float32, src, dst []float32) {
	if dim == 0 {
		return
	}
	blas32.Axpy(alpha,
		blas32.Vector{N: dim, Inc: 1, Data: src[:dim]},
		blas32.Vector{N: dim, Inc: 1, Data: dst[:dim]})
}

func axpyRowFloat64(dim int, alpha float64, src, dst []float64) {
	if dim == 0 {
		return
	}
	blas64.Axpy(alpha,
		blas64.Vector{N: dim, Inc: 1, Data: src[:dim]},
		blas64.Vector{N: dim, Inc: 1, Data: dst[:dim]})
}
