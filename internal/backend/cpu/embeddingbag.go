package cpu

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/tensor"
)

// checkBagInputs validates the bag-structure tensors shared by the forward
// and backward passes. All failures are reported before any output buffer is
// touched.
func (t *Table) checkBagInputs(op string, indices, offsets *tensor.RawTensor) error {
	if indices.ScalarType() != tensor.Int64 {
		return errors.Wrapf(dispatch.ErrInvalidDType,
			"%s: indices must be int64, got %s", op, indices.ScalarType())
	}
	if offsets.ScalarType() != tensor.Int64 {
		return errors.Wrapf(dispatch.ErrInvalidDType,
			"%s: offsets must be int64, got %s", op, offsets.ScalarType())
	}
	if len(indices.Shape()) != 1 {
		return errors.Wrapf(dispatch.ErrShapeMismatch,
			"%s: indices must be 1-D, got shape %v", op, indices.Shape())
	}
	if len(offsets.Shape()) != 1 || offsets.NumElements() == 0 {
		return errors.Wrapf(dispatch.ErrShapeMismatch,
			"%s: offsets must be 1-D with at least one bag, got shape %v", op, offsets.Shape())
	}

	n := int64(indices.NumElements())
	if offsets.AsInt64()[0] != 0 {
		return errors.Wrapf(dispatch.ErrShapeMismatch,
			"%s: offsets must start at 0, got offsets[0]=%d", op, offsets.AsInt64()[0])
	}
	prev := int64(0)
	for b, off := range offsets.AsInt64() {
		if off < prev || off > n {
			return errors.Wrapf(dispatch.ErrShapeMismatch,
				"%s: offsets must be non-decreasing and within [0, %d], got offsets[%d]=%d",
				op, n, b, off)
		}
		prev = off
	}
	return nil
}

func (t *Table) checkBagWeight(op string, weight *tensor.RawTensor, indices *tensor.RawTensor) error {
	if t.scalar != tensor.Float32 && t.scalar != tensor.Float64 {
		return errors.Wrapf(dispatch.ErrInvalidDType,
			"%s: weight must be float32 or float64, got %s", op, t.scalar)
	}
	if weight.ScalarType() != t.scalar {
		return errors.Wrapf(dispatch.ErrInvalidDType,
			"%s: weight element type is %s, table serves %s", op, weight.ScalarType(), t.scalar)
	}
	if len(weight.Shape()) != 2 {
		return errors.Wrapf(dispatch.ErrShapeMismatch,
			"%s: weight must be 2-D, got shape %v", op, weight.Shape())
	}

	numWeights := int64(weight.Shape()[0])
	for i, idx := range indices.AsInt64() {
		if idx < 0 || idx >= numWeights {
			return errors.Wrapf(dispatch.ErrDimOutOfRange,
				"%s: indices[%d]=%d out of range [0, %d)", op, i, idx, numWeights)
		}
	}
	return nil
}

// makeOffset2Bag derives, for every position in indices, the bag it belongs
// to: mark +1 at each bag-start position, prefix-sum, shift so the first bag
// is 0. The scratch array is provisionally one element larger than indices so
// trailing empty bags whose offset equals len(indices) do not write out of
// bounds; the extra slot is trimmed after the prefix sum.
func makeOffset2Bag(offsets []int64, numIndices int) *tensor.RawTensor {
	scratch := make([]int64, numIndices+1)
	for _, off := range offsets {
		scratch[off]++
	}
	scratch[0]--
	var running int64
	for i := range scratch {
		running += scratch[i]
		scratch[i] = running
	}

	offset2bag := tensor.Zeros(tensor.Shape{numIndices}, tensor.Int64, tensor.CPU)
	copy(offset2bag.AsInt64(), scratch[:numIndices])
	return offset2bag
}

// makeBagSize computes the per-bag index count. Only mean and max modes need
// it (max for the backward pass); for sum mode the tensor stays zero, which
// mirrors its role as an opaque auxiliary output there.
func makeBagSize(offsets []int64, numIndices int, mode dispatch.BagMode) *tensor.RawTensor {
	numBags := len(offsets)
	bagSize := tensor.Zeros(tensor.Shape{numBags}, tensor.Int64, tensor.CPU)
	if mode == dispatch.BagMean || mode == dispatch.BagMax {
		data := bagSize.AsInt64()
		for b := 0; b < numBags-1; b++ {
			data[b] = offsets[b+1] - offsets[b]
		}
		data[numBags-1] = int64(numIndices) - offsets[numBags-1]
	}
	return bagSize
}

// EmbeddingBag implements the forward pass: for each bag b, reduce the weight
// rows selected by indices[offsets[b]:offsets[b+1]] with the given mode.
// Empty bags produce all-zero output rows.
func (t *Table) EmbeddingBag(weight, indices, offsets *tensor.RawTensor,
	scaleGradByFreq bool, mode dispatch.BagMode, sparse bool) (*dispatch.BagResult, error) {
	const op = "embedding_bag"
	if err := t.checkBagInputs(op, indices, offsets); err != nil {
		return nil, err
	}
	if err := t.checkBagWeight(op, weight, indices); err != nil {
		return nil, err
	}

	numIndices := indices.NumElements()
	numBags := offsets.NumElements()
	embedDim := weight.Shape()[1]
	offsetsData := offsets.AsInt64()
	indicesData := indices.AsInt64()

	bagSize := makeBagSize(offsetsData, numIndices, mode)
	offset2bag := makeOffset2Bag(offsetsData, numIndices)
	output := tensor.Zeros(tensor.Shape{numBags, embedDim}, t.scalar, tensor.CPU)

	if mode == dispatch.BagSum || mode == dispatch.BagMean {
		switch t.scalar {
		case tensor.Float32:
			indexSelectAddFloat32(indicesData, offset2bag.AsInt64(), weight.AsFloat32(), output.AsFloat32(), embedDim)
		case tensor.Float64:
			indexSelectAddFloat64(indicesData, offset2bag.AsInt64(), weight.AsFloat64(), output.AsFloat64(), embedDim)
		}
		if mode == dispatch.BagMean {
			applyBagSize(output, bagSize.AsInt64(), embedDim)
		}
		// For sum and mean the auxiliary slot carries bag_size itself.
		return &dispatch.BagResult{
			Output:     output,
			Offset2Bag: offset2bag,
			BagSize:    bagSize,
			MaxIndices: bagSize,
		}, nil
	}

	maxIndices := tensor.Zeros(tensor.Shape{numBags, embedDim}, tensor.Int64, tensor.CPU)
	switch t.scalar {
	case tensor.Float32:
		bagMaxFloat32(indicesData, offset2bag.AsInt64(), weight.AsFloat32(), output.AsFloat32(), maxIndices.AsInt64(), embedDim)
	case tensor.Float64:
		bagMaxFloat64(indicesData, offset2bag.AsInt64(), weight.AsFloat64(), output.AsFloat64(), maxIndices.AsInt64(), embedDim)
	}
	return &dispatch.BagResult{
		Output:     output,
		Offset2Bag: offset2bag,
		BagSize:    bagSize,
		MaxIndices: maxIndices,
	}, nil
}

// indexSelectAddFloat32 combines index_select (by lookup index) and index_add
// (by owning bag) without materializing the selected rows: for every position
// i, output row offset2bag[i] += src row indices[i].
func indexSelectAddFloat32(indices, offset2bag []int64, src, out []float32, dim int) {
	if dim == 0 {
		return
	}
	for i := range indices {
		srcRow := src[indices[i]*int64(dim):][:dim]
		outRow := out[offset2bag[i]*int64(dim):][:dim]
		blas32.Axpy(1,
			blas32.Vector{N: dim, Inc: 1, Data: srcRow},
			blas32.Vector{N: dim, Inc: 1, Data: outRow})
	}
}

//nolint:dupl // Type-specific variant of indexSelectAddFloat32
func indexSelectAddFloat64(indices, offset2bag []int64, src, out []float64, dim int) {
	if dim == 0 {
		return
	}
	for i := range indices {
		srcRow := src[indices[i]*int64(dim):][:dim]
		outRow := out[offset2bag[i]*int64(dim):][:dim]
		blas64.Axpy(1,
			blas64.Vector{N: dim, Inc: 1, Data: srcRow},
			blas64.Vector{N: dim, Inc: 1, Data: outRow})
	}
}

// applyBagSize divides every output row by max(bagSize, 1). Empty bags keep
// their all-zero rows instead of turning into NaN.
func applyBagSize(output *tensor.RawTensor, bagSize []int64, dim int) {
	switch output.ScalarType() {
	case tensor.Float32:
		data := output.AsFloat32()
		for b, size := range bagSize {
			inv := float32(1) / float32(max(size, 1))
			row := data[b*dim : (b+1)*dim]
			for d := range row {
				row[d] *= inv
			}
		}
	case tensor.Float64:
		data := output.AsFloat64()
		for b, size := range bagSize {
			inv := float64(1) / float64(max(size, 1))
			row := data[b*dim : (b+1)*dim]
			for d := range row {
				row[d] *= inv
			}
		}
	}
}

// bagMaxFloat32 tracks the per-dimension running maximum within each bag and
// records the winning source row in maxIndices. The first contribution to a
// bag always initializes the running max regardless of sign; ties resolve to
// the first occurrence in index order.
func bagMaxFloat32(indices, offset2bag []int64, weight, out []float32, maxIndices []int64, dim int) {
	for i := range indices {
		bag := offset2bag[i]
		wordIdx := indices[i]
		isFirstForBag := i == 0 || offset2bag[i-1] != bag
		for d := 0; d < dim; d++ {
			weightItem := weight[wordIdx*int64(dim)+int64(d)]
			current := &out[bag*int64(dim)+int64(d)]
			if isFirstForBag || weightItem > *current {
				*current = weightItem
				maxIndices[bag*int64(dim)+int64(d)] = wordIdx
			}
		}
	}
}

//nolint:dupl // Type-specific variant of bagMaxFloat32
func bagMaxFloat64(indices, offset2bag []int64, weight, out []float64, maxIndices []int64, dim int) {
	for i := range indices {
		bag := offset2bag[i]
		wordIdx := indices[i]
		isFirstForBag := i == 0 || offset2bag[i-1] != bag
		for d := 0; d < dim; d++ {
			weightItem := weight[wordIdx*int64(dim)+int64(d)]
			current := &out[bag*int64(dim)+int64(d)]
			if isFirstForBag || weightItem > *current {
				*current = weightItem
				maxIndices[bag*int64(dim)+int64(d)] = wordIdx
			}
		}
	}
}
