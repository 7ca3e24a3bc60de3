package dispatch

import "github.com/flint-ml/flint/internal/tensor"

// BagMode selects the reduction applied to each bag by the embedding bag
// operator.
type BagMode int

// Embedding bag reduction modes.
const (
	BagSum BagMode = iota
	BagMean
	BagMax
)

// String returns a human-readable mode name.
func (m BagMode) String() string {
	switch m {
	case BagSum:
		return "sum"
	case BagMean:
		return "mean"
	case BagMax:
		return "max"
	default:
		return "unknown"
	}
}

// BagResult is the full output of the embedding bag forward pass. Everything
// beyond Output exists so the backward pass can route gradients without
// recomputing bag structure.
type BagResult struct {
	// Output is the (numBags x embeddingDim) reduced result.
	Output *tensor.RawTensor

	// Offset2Bag maps each position in indices to its owning bag number.
	// Monotonically non-decreasing by construction.
	Offset2Bag *tensor.RawTensor

	// BagSize holds the per-bag count of included indices.
	BagSize *tensor.RawTensor

	// MaxIndices records, for max mode, which source row won per output
	// dimension (numBags x embeddingDim, int64). For sum and mean modes it
	// aliases BagSize: the backward pass needs different auxiliary data
	// per mode and this keeps the result tuple shape uniform.
	MaxIndices *tensor.RawTensor
}

// SparseGrad is a gradient in sparse (index-list, value-list) form: Values
// row i is the gradient contribution for weight row Indices[i]. Final
// accumulation by index is deferred to the generic embedding backward
// routine.
type SparseGrad struct {
	Indices *tensor.RawTensor // 1-D int64, one entry per contribution
	Values  *tensor.RawTensor // (len(Indices) x embeddingDim)
}

// BagGrad is the output of the embedding bag backward pass: exactly one of
// Dense (a numWeights x embeddingDim matrix) or Sparse is set, depending on
// the sparse flag of the call.
type BagGrad struct {
	Dense  *tensor.RawTensor
	Sparse *SparseGrad
}

// KernelTable provides the operator entry points for one
// (Backend, ScalarType) pair. Exactly one instance exists per valid pair at a
// time; the registry is the sole owner and destroys replaced tables through a
// caller-supplied deleter.
type KernelTable interface {
	// Backend returns the backend this table serves.
	Backend() tensor.Backend

	// ScalarType returns the element type this table serves.
	ScalarType() tensor.ScalarType

	// EmbeddingBag aggregates variable-length bags of weight rows.
	// indices is a flat int64 lookup list; offsets holds the int64,
	// non-decreasing start index of each bag into indices.
	// scaleGradByFreq and sparse only affect the backward pass.
	EmbeddingBag(weight, indices, offsets *tensor.RawTensor,
		scaleGradByFreq bool, mode BagMode, sparse bool) (*BagResult, error)

	// EmbeddingBagBackward computes the weight gradient for EmbeddingBag.
	// grad is the upstream (numBags x embeddingDim) gradient; offset2bag,
	// bagSize and maxIndices are the auxiliary outputs of the forward
	// pass; numWeights is the row count of the original weight matrix.
	EmbeddingBagBackward(grad, indices, offsets, offset2bag, bagSize,
		maxIndices *tensor.RawTensor, numWeights int,
		scaleGradByFreq bool, mode BagMode, sparse bool) (*BagGrad, error)

	// LocalScalar converts a single-element tensor to a Go scalar of the
	// element's natural Go type (Float16 converts to float32).
	LocalScalar(t *tensor.RawTensor) (any, error)

	// Flip reverses the tensor along the given dims. Dims may be negative
	// (counting from the end), must be in range, and must not repeat.
	Flip(t *tensor.RawTensor, dims []int) (*tensor.RawTensor, error)
}

// TableDeleter destroys a kernel table the registry is done with. A stub
// "no kernels" build registers tables whose deletion is a no-op.
type TableDeleter func(KernelTable)

// NopDeleter is a TableDeleter that does nothing.
func NopDeleter(KernelTable) {}
