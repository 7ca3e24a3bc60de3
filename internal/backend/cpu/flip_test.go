package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flint-ml/flint/internal/backend/cpu"
	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/tensor"
)

func TestFlip_1D(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	x, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{4}, tensor.CPU)
	require.NoError(t, err)

	out, err := table.Flip(x, []int{0})
	require.NoError(t, err)
	require.Equal(t, []float32{4, 3, 2, 1}, out.AsFloat32())
}

func TestFlip_2D(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	x, err := tensor.FromFloat32([]float32{
		1, 2, 3,
		4, 5, 6,
	}, tensor.Shape{2, 3}, tensor.CPU)
	require.NoError(t, err)

	rows, err := table.Flip(x, []int{0})
	require.NoError(t, err)
	require.Equal(t, []float32{4, 5, 6, 1, 2, 3}, rows.AsFloat32())

	cols, err := table.Flip(x, []int{1})
	require.NoError(t, err)
	require.Equal(t, []float32{3, 2, 1, 6, 5, 4}, cols.AsFloat32())

	both, err := table.Flip(x, []int{0, 1})
	require.NoError(t, err)
	require.Equal(t, []float32{6, 5, 4, 3, 2, 1}, both.AsFloat32())
}

func TestFlip_NegativeDimWraps(t *testing.T) {
	table := cpu.NewTable(tensor.Int64)
	x, err := tensor.FromInt64([]int64{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
	require.NoError(t, err)

	out, err := table.Flip(x, []int{-1})
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1, 4, 3}, out.AsInt64())
}

func TestFlip_Involution(t *testing.T) {
	table := cpu.NewTable(tensor.Float64)
	x, err := tensor.FromFloat64([]float64{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 2, 2}, tensor.CPU)
	require.NoError(t, err)

	once, err := table.Flip(x, []int{0, 2})
	require.NoError(t, err)
	twice, err := table.Flip(once, []int{0, 2})
	require.NoError(t, err)
	require.Equal(t, x.AsFloat64(), twice.AsFloat64())
}

func TestFlip_DimValidation(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	x := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)

	_, err := table.Flip(x, nil)
	require.ErrorIs(t, err, dispatch.ErrDimOutOfRange)

	_, err = table.Flip(x, []int{0, 1, 0})
	require.ErrorIs(t, err, dispatch.ErrDimOutOfRange)

	_, err = table.Flip(x, []int{2})
	require.ErrorIs(t, err, dispatch.ErrDimOutOfRange)

	_, err = table.Flip(x, []int{-3})
	require.ErrorIs(t, err, dispatch.ErrDimOutOfRange)

	_, err = table.Flip(x, []int{1, -1})
	require.ErrorIs(t, err, dispatch.ErrShapeMismatch)
}

func TestFlip_TypeMismatch(t *testing.T) {
	table := cpu.NewTable(tensor.Float32)
	x := tensor.Zeros(tensor.Shape{2}, tensor.Int64, tensor.CPU)
	_, err := table.Flip(x, []int{0})
	require.ErrorIs(t, err, dispatch.ErrInvalidDType)
}
