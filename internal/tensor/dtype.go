// Package tensor provides the core tensor types for the Flint dispatch core.
package tensor

// ScalarType represents runtime element-type information for tensors.
//
// It is a closed enumeration: values are used as dense array indices by the
// dispatch registry and must stay below NumScalarTypes. New entries are
// appended before Undefined, never reordered.
type ScalarType int

// Supported scalar types.
const (
	Float32 ScalarType = iota
	Float64
	Float16
	Int32
	Int64
	Uint8
	Bool
	Complex64
	Complex128
	// UndefinedScalar marks an absent or unknown element type. It
	// participates in the dispatch fallback slot, never in real tensors.
	UndefinedScalar

	// NumScalarTypes is the size of the enumeration, for dense indexing.
	NumScalarTypes = int(UndefinedScalar) + 1
)

// Size returns the byte size of one element of the scalar type.
func (st ScalarType) Size() int {
	switch st {
	case Float32, Int32:
		return 4
	case Float64, Int64, Complex64:
		return 8
	case Float16:
		return 2
	case Uint8, Bool:
		return 1
	case Complex128:
		return 16
	default:
		panic("unknown scalar type")
	}
}

// String returns a human-readable name for the scalar type.
func (st ScalarType) String() string {
	switch st {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	case UndefinedScalar:
		return "undefined"
	default:
		return "unknown"
	}
}

// IsFloatingPoint reports whether the scalar type is a real floating-point
// type (complex types are not included).
func (st ScalarType) IsFloatingPoint() bool {
	return st == Float32 || st == Float64 || st == Float16
}

// IsComplex reports whether the scalar type is a complex number type.
// Complex support is initialized lazily; the dispatch registry uses this to
// decide whether a lookup must first run the complex init gate.
func (st ScalarType) IsComplex() bool {
	return st == Complex64 || st == Complex128
}
