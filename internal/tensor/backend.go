package tensor

// Backend identifies a device family plus sparsity layout.
//
// Like ScalarType it is a closed enumeration used as a dense array index by
// the dispatch registry: values must stay below NumBackends and are never
// iterated beyond the declared size.
type Backend int

// Supported backends.
const (
	CPU Backend = iota
	CUDA
	SparseCPU
	SparseCUDA
	// UndefinedBackend is the canonical "no backend" value; together with
	// UndefinedScalar it addresses the dispatch fallback slot.
	UndefinedBackend

	// NumBackends is the size of the enumeration, for dense indexing.
	NumBackends = int(UndefinedBackend) + 1
)

// String returns a human-readable backend name.
func (b Backend) String() string {
	switch b {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case SparseCPU:
		return "SparseCPU"
	case SparseCUDA:
		return "SparseCUDA"
	case UndefinedBackend:
		return "Undefined"
	default:
		return "Unknown"
	}
}

// IsSparse reports whether the backend uses a sparse storage layout.
func (b Backend) IsSparse() bool {
	return b == SparseCPU || b == SparseCUDA
}

// DeviceType identifies the device family of a backend, independent of
// sparsity. Lazy initialization is keyed per device family, not per backend.
type DeviceType int

// Supported device families.
const (
	CPUDevice DeviceType = iota
	CUDADevice
)

// String returns a human-readable device family name.
func (d DeviceType) String() string {
	switch d {
	case CPUDevice:
		return "cpu"
	case CUDADevice:
		return "cuda"
	default:
		return "unknown"
	}
}

// DeviceType returns the device family a backend belongs to.
// UndefinedBackend maps to CPUDevice; lookups for it never trigger device
// initialization, so the mapping is only used for defined backends.
func (b Backend) DeviceType() DeviceType {
	if b == CUDA || b == SparseCUDA {
		return CUDADevice
	}
	return CPUDevice
}

// Layout identifies the memory layout of tensors on a backend.
type Layout int

// Supported layouts.
const (
	Strided Layout = iota
	Sparse
)

// String returns a human-readable layout name.
func (l Layout) String() string {
	switch l {
	case Strided:
		return "strided"
	case Sparse:
		return "sparse_coo"
	default:
		return "unknown"
	}
}

// Layout returns the memory layout used by the backend.
func (b Backend) Layout() Layout {
	if b.IsSparse() {
		return Sparse
	}
	return Strided
}
