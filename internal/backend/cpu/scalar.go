package cpu

import (
	"github.com/pkg/errors"

	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/tensor"
)

// LocalScalar converts a single-element tensor to a Go scalar of the
// element's natural Go type. Float16 converts up to float32.
func (t *Table) LocalScalar(x *tensor.RawTensor) (any, error) {
	const op = "local_scalar"
	if x.ScalarType() != t.scalar {
		return nil, errors.Wrapf(dispatch.ErrInvalidDType,
			"%s: tensor element type is %s, table serves %s", op, x.ScalarType(), t.scalar)
	}
	if n := x.NumElements(); n != 1 {
		return nil, errors.Wrapf(dispatch.ErrShapeMismatch,
			"%s: a tensor with %d elements cannot be converted to a scalar", op, n)
	}

	switch t.scalar {
	case tensor.Float32:
		return x.AsFloat32()[0], nil
	case tensor.Float64:
		return x.AsFloat64()[0], nil
	case tensor.Float16:
		return x.AsFloat16()[0].Float32(), nil
	case tensor.Int32:
		return x.AsInt32()[0], nil
	case tensor.Int64:
		return x.AsInt64()[0], nil
	case tensor.Uint8:
		return x.AsUint8()[0], nil
	case tensor.Bool:
		return x.AsBool()[0], nil
	case tensor.Complex64:
		return x.AsComplex64()[0], nil
	case tensor.Complex128:
		return x.AsComplex128()[0], nil
	default:
		return nil, errors.Wrapf(dispatch.ErrInvalidDType, "%s: unsupported element type %s", op, t.scalar)
	}
}
