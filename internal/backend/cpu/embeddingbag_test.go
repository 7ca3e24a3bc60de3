package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flint-ml/flint/internal/backend/cpu"
	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/tensor"
)

// testWeight builds a (rows x 3) float32 weight with row r = [r*10+1, r*10+2, r*10+3].
func testWeight(t *testing.T, rows int) *tensor.RawTensor {
	t.Helper()
	data := make([]float32, rows*3)
	for r := 0; r < rows; r++ {
		for d := 0; d < 3; d++ {
			data[r*3+d] = float32(r*10 + d + 1)
		}
	}
	w, err := tensor.FromFloat32(data, tensor.Shape{rows, 3}, tensor.CPU)
	require.NoError(t, err)
	return w
}

func int64Tensor(t *testing.T, data []int64) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromInt64(data, tensor.Shape{len(data)}, tensor.CPU)
	require.NoError(t, err)
	return raw
}

func TestEmbeddingBag_SumSingleBag(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	weight := testWeight(t, 4)
	indices := int64Tensor(t, []int64{1, 0, 2})
	offsets := int64Tensor(t, []int64{0})

	res, err := table.EmbeddingBag(weight, indices, offsets, false, dispatch.BagSum, false)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{1, 3}, res.Output.Shape())

	// Row 0 = weight[1] + weight[0] + weight[2].
	want := []float32{11 + 1 + 21, 12 + 2 + 22, 13 + 3 + 23}
	require.InDeltaSlice(t, want, res.Output.AsFloat32(), 1e-5)

	// For sum mode the auxiliary slot is bag_size itself.
	require.Same(t, res.BagSize, res.MaxIndices)
}

func TestEmbeddingBag_Offset2BagAndBagSize(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	weight := testWeight(t, 6)
	indices := int64Tensor(t, []int64{5, 4, 3, 2, 1, 0})
	offsets := int64Tensor(t, []int64{0, 2, 2, 5})

	res, err := table.EmbeddingBag(weight, indices, offsets, false, dispatch.BagMean, false)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 0, 2, 2, 2, 3}, res.Offset2Bag.AsInt64())
	require.Equal(t, []int64{2, 0, 3, 1}, res.BagSize.AsInt64())
}

func TestEmbeddingBag_TrailingEmptyBags(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	weight := testWeight(t, 3)
	indices := int64Tensor(t, []int64{0, 1, 2})
	// Two trailing bags whose offset equals len(indices).
	offsets := int64Tensor(t, []int64{0, 3, 3})

	res, err := table.EmbeddingBag(weight, indices, offsets, false, dispatch.BagSum, false)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 0, 0}, res.Offset2Bag.AsInt64())

	out := res.Output.AsFloat32()
	require.InDeltaSlice(t, []float32{1 + 11 + 21, 2 + 12 + 22, 3 + 13 + 23}, out[0:3], 1e-5)
	require.Equal(t, []float32{0, 0, 0}, out[3:6])
	require.Equal(t, []float32{0, 0, 0}, out[6:9])
}

func TestEmbeddingBag_MeanEmptyBagStaysZero(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	weight := testWeight(t, 3)
	indices := int64Tensor(t, []int64{0, 2})
	offsets := int64Tensor(t, []int64{0, 0, 2}) // Bag 0 and bag 1 start at 0: bag 0 is empty.

	res, err := table.EmbeddingBag(weight, indices, offsets, false, dispatch.BagMean, false)
	require.NoError(t, err)

	out := res.Output.AsFloat32()
	// Empty bag: exactly zero, not NaN or inf.
	require.Equal(t, []float32{0, 0, 0}, out[0:3])
	require.InDeltaSlice(t, []float32{(1 + 21) / 2.0, (2 + 22) / 2.0, (3 + 23) / 2.0}, out[3:6], 1e-5)
}

func TestEmbeddingBag_MaxMode(t *testing.T) {
	table := cpu.NewTable(tensor.Float64)
	weight, err := tensor.FromFloat64([]float64{
		-1, 5, // row 0
		-3, 2, // row 1
		-2, 9, // row 2
	}, tensor.Shape{3, 2}, tensor.CPU)
	require.NoError(t, err)

	indices := int64Tensor(t, []int64{0, 1, 1, 2})
	offsets := int64Tensor(t, []int64{0, 2})

	res, err := table.EmbeddingBag(weight, indices, offsets, false, dispatch.BagMax, false)
	require.NoError(t, err)

	// Bag 0 = rows {0, 1}: max per dim = [-1, 5], all won by row 0 (negative
	// first contribution still initializes the running max).
	// Bag 1 = rows {1, 2}: max per dim = [-2, 9], won by row 2 on both dims.
	require.InDeltaSlice(t, []float64{-1, 5, -2, 9}, res.Output.AsFloat64(), 1e-9)
	require.Equal(t, []int64{0, 0, 2, 2}, res.MaxIndices.AsInt64())
}

func TestEmbeddingBag_MaxModeTieFirstOccurrence(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	weight, err := tensor.FromFloat32([]float32{
		7, 4,
		7, 4, // Identical to row 0.
	}, tensor.Shape{2, 2}, tensor.CPU)
	require.NoError(t, err)

	indices := int64Tensor(t, []int64{1, 0})
	offsets := int64Tensor(t, []int64{0})

	res, err := table.EmbeddingBag(weight, indices, offsets, false, dispatch.BagMax, false)
	require.NoError(t, err)

	// Strictly-greater comparison: ties keep the first occurrence in index
	// order, which is row 1 here.
	require.Equal(t, []int64{1, 1}, res.MaxIndices.AsInt64())
}

func TestEmbeddingBag_Validation(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	weight := testWeight(t, 3)
	indices := int64Tensor(t, []int64{0, 1})
	offsets := int64Tensor(t, []int64{0})

	t.Run("indices must be int64", func(t *testing.T) {
		badIndices := tensor.Zeros(tensor.Shape{2}, tensor.Int32, tensor.CPU)
		_, err := table.EmbeddingBag(weight, badIndices, offsets, false, dispatch.BagSum, false)
		require.ErrorIs(t, err, dispatch.ErrInvalidDType)
	})

	t.Run("weight must match table scalar type", func(t *testing.T) {
		intTable := cpu.NewTable(tensor.Int64)
		_, err := intTable.EmbeddingBag(weight, indices, offsets, false, dispatch.BagSum, false)
		require.ErrorIs(t, err, dispatch.ErrInvalidDType)
	})

	t.Run("offsets must start at 0", func(t *testing.T) {
		bad := int64Tensor(t, []int64{1})
		_, err := table.EmbeddingBag(weight, indices, bad, false, dispatch.BagSum, false)
		require.ErrorIs(t, err, dispatch.ErrShapeMismatch)
	})

	t.Run("offsets must be non-decreasing", func(t *testing.T) {
		bad := int64Tensor(t, []int64{0, 2, 1})
		_, err := table.EmbeddingBag(weight, indices, bad, false, dispatch.BagSum, false)
		require.ErrorIs(t, err, dispatch.ErrShapeMismatch)
	})

	t.Run("index out of range", func(t *testing.T) {
		bad := int64Tensor(t, []int64{0, 3})
		_, err := table.EmbeddingBag(weight, bad, offsets, false, dispatch.BagSum, false)
		require.ErrorIs(t, err, dispatch.ErrDimOutOfRange)
	})

	t.Run("weight must be 2-D", func(t *testing.T) {
		bad := tensor.Zeros(tensor.Shape{3}, tensor.Float32, tensor.CPU)
		_, err := table.EmbeddingBag(bad, indices, offsets, false, dispatch.BagSum, false)
		require.ErrorIs(t, err, dispatch.ErrShapeMismatch)
	})
}
