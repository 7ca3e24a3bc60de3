package tensor

import "testing"

func TestScalarTypeSize(t *testing.T) {
	tests := []struct {
		dtype ScalarType
		want  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Float16, 2},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
		{Bool, 1},
		{Complex64, 8},
		{Complex128, 16},
	}
	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.want {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.want)
		}
	}
}

func TestScalarTypePredicates(t *testing.T) {
	for _, st := range []ScalarType{Float32, Float64, Float16} {
		if !st.IsFloatingPoint() {
			t.Errorf("%s should be floating point", st)
		}
	}
	for _, st := range []ScalarType{Int32, Int64, Uint8, Bool, Complex64, Complex128} {
		if st.IsFloatingPoint() {
			t.Errorf("%s should not be floating point", st)
		}
	}
	for _, st := range []ScalarType{Complex64, Complex128} {
		if !st.IsComplex() {
			t.Errorf("%s should be complex", st)
		}
	}
	if Float32.IsComplex() {
		t.Error("float32 should not be complex")
	}
}

func TestEnumDenseIndexing(t *testing.T) {
	// The registry indexes dense arrays by these values; every enumerator must
	// fit below the declared size, with Undefined at the last slot.
	if int(UndefinedScalar) != NumScalarTypes-1 {
		t.Errorf("UndefinedScalar = %d, want %d", UndefinedScalar, NumScalarTypes-1)
	}
	if int(UndefinedBackend) != NumBackends-1 {
		t.Errorf("UndefinedBackend = %d, want %d", UndefinedBackend, NumBackends-1)
	}
	for st := ScalarType(0); int(st) < NumScalarTypes; st++ {
		if st.String() == "unknown" {
			t.Errorf("scalar type %d has no name", st)
		}
	}
	for b := Backend(0); int(b) < NumBackends; b++ {
		if b.String() == "Unknown" {
			t.Errorf("backend %d has no name", b)
		}
	}
}

func TestBackendProperties(t *testing.T) {
	tests := []struct {
		backend Backend
		sparse  bool
		device  DeviceType
		layout  Layout
	}{
		{CPU, false, CPUDevice, Strided},
		{CUDA, false, CUDADevice, Strided},
		{SparseCPU, true, CPUDevice, Sparse},
		{SparseCUDA, true, CUDADevice, Sparse},
	}
	for _, tt := range tests {
		if got := tt.backend.IsSparse(); got != tt.sparse {
			t.Errorf("%s.IsSparse() = %v, want %v", tt.backend, got, tt.sparse)
		}
		if got := tt.backend.DeviceType(); got != tt.device {
			t.Errorf("%s.DeviceType() = %v, want %v", tt.backend, got, tt.device)
		}
		if got := tt.backend.Layout(); got != tt.layout {
			t.Errorf("%s.Layout() = %v, want %v", tt.backend, got, tt.layout)
		}
	}
}
