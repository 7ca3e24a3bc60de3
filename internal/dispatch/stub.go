package dispatch

import (
	"github.com/pkg/errors"

	"github.com/flint-ml/flint/internal/tensor"
)

// stubTable is a kernel table that errors for every operation. It backs the
// canonical Undefined/Undefined fallback slot, and a "no kernels" build can
// register it for every pair instead of real tables.
type stubTable struct {
	backend tensor.Backend
	scalar  tensor.ScalarType
}

// NewStubTable returns an error-raising kernel table for (b, s).
func NewStubTable(b tensor.Backend, s tensor.ScalarType) KernelTable {
	return &stubTable{backend: b, scalar: s}
}

func (t *stubTable) Backend() tensor.Backend       { return t.backend }
func (t *stubTable) ScalarType() tensor.ScalarType { return t.scalar }

func (t *stubTable) err(op string) error {
	return errors.Wrapf(ErrTypeNotEnabled, "%s: no %s/%s kernels in this build",
		op, t.backend, t.scalar)
}

func (t *stubTable) EmbeddingBag(_, _, _ *tensor.RawTensor, _ bool, _ BagMode, _ bool) (*BagResult, error) {
	return nil, t.err("embedding_bag")
}

func (t *stubTable) EmbeddingBagBackward(_, _, _, _, _, _ *tensor.RawTensor, _ int, _ bool, _ BagMode, _ bool) (*BagGrad, error) {
	return nil, t.err("embedding_bag_backward")
}

func (t *stubTable) LocalScalar(*tensor.RawTensor) (any, error) {
	return nil, t.err("local_scalar")
}

func (t *stubTable) Flip(*tensor.RawTensor, []int) (*tensor.RawTensor, error) {
	return nil, t.err("flip")
}
