package tensor

import (
	"testing"

	"github.com/x448/float16"
)

func TestRawTensorAsFloat32(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3}, Float32, CPU)
	data := raw.AsFloat32()

	if len(data) != 6 {
		t.Errorf("AsFloat32 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 1.5
	if raw.AsFloat32()[0] != 1.5 {
		t.Error("AsFloat32 should return zero-copy slice")
	}
}

func TestRawTensorAsInt64(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Int64, CPU)
	data := raw.AsInt64()

	if len(data) != 6 {
		t.Errorf("AsInt64 length = %d, want 6", len(data))
	}

	data[5] = -7
	if raw.AsInt64()[5] != -7 {
		t.Error("AsInt64 should return zero-copy slice")
	}
}

func TestRawTensorAsFloat16(t *testing.T) {
	raw, _ := NewRaw(Shape{4}, Float16, CPU)
	data := raw.AsFloat16()

	if len(data) != 4 {
		t.Errorf("AsFloat16 length = %d, want 4", len(data))
	}

	data[0] = float16.Fromfloat32(0.25)
	if got := raw.AsFloat16()[0].Float32(); got != 0.25 {
		t.Errorf("Float16 round trip = %v, want 0.25", got)
	}
}

func TestRawTensorAsComplex(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Complex64, CPU)
	raw.AsComplex64()[1] = 1 + 2i
	if raw.AsComplex64()[1] != 1+2i {
		t.Error("AsComplex64 should return zero-copy slice")
	}

	raw128, _ := NewRaw(Shape{2}, Complex128, CPU)
	raw128.AsComplex128()[0] = 3 - 4i
	if raw128.AsComplex128()[0] != 3-4i {
		t.Error("AsComplex128 should return zero-copy slice")
	}
}

func TestRawTensorEmptyAccessor(t *testing.T) {
	raw, _ := NewRaw(Shape{0, 3}, Float32, CPU)
	if raw.NumElements() != 0 {
		t.Errorf("NumElements = %d, want 0", raw.NumElements())
	}
	if got := raw.AsFloat32(); len(got) != 0 {
		t.Errorf("empty tensor accessor length = %d, want 0", len(got))
	}
}

func TestRawTensorTypeMismatchPanics(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32, CPU)

	defer func() {
		if recover() == nil {
			t.Error("AsInt64 on a Float32 tensor should panic")
		}
	}()
	raw.AsInt64()
}

func TestRawTensorCloneSharesBuffer(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	raw.AsFloat32()[0] = 3

	clone := raw.Clone()
	if clone.AsFloat32()[0] != 3 {
		t.Error("Clone should share the underlying buffer")
	}
	if raw.IsUnique() {
		t.Error("IsUnique should be false after Clone")
	}

	clone.Release()
	if !raw.IsUnique() {
		t.Error("IsUnique should be true after the clone is released")
	}
}

func TestRawTensorIsContiguous(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3, 4}, Float32, CPU)
	if !raw.IsContiguous() {
		t.Error("freshly allocated tensor should be contiguous")
	}
}

func TestRawTensorByteSize(t *testing.T) {
	tests := []struct {
		dtype ScalarType
		want  int
	}{
		{Float32, 24},
		{Float64, 48},
		{Float16, 12},
		{Uint8, 6},
		{Complex128, 96},
	}
	for _, tt := range tests {
		raw, _ := NewRaw(Shape{2, 3}, tt.dtype, CPU)
		if raw.ByteSize() != tt.want {
			t.Errorf("%s ByteSize = %d, want %d", tt.dtype, raw.ByteSize(), tt.want)
		}
	}
}

func TestFromFloat32LengthMismatch(t *testing.T) {
	if _, err := FromFloat32([]float32{1, 2, 3}, Shape{2, 2}, CPU); err == nil {
		t.Error("FromFloat32 should reject data shorter than the shape")
	}
}

func TestFromInt64(t *testing.T) {
	raw, err := FromInt64([]int64{1, 2, 3, 4}, Shape{2, 2}, CPU)
	if err != nil {
		t.Fatalf("FromInt64 failed: %v", err)
	}
	if raw.AsInt64()[3] != 4 {
		t.Errorf("FromInt64 data = %v, want trailing 4", raw.AsInt64())
	}
}
