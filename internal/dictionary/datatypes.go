package dictionary

// BaseType classifies a primitive data type.
type BaseType string

const (
	SignedInt     BaseType = "signed integer"
	UnsignedInt   BaseType = "unsigned integer"
	FloatingPoint BaseType = "floating point"
	Character     BaseType = "character"
	Pointer       BaseType = "pointer"
)

// DataType is a primitive data type usable in structure rows.
type DataType struct {
	Name string   `json:"name" yaml:"name" toml:"name"`
	Size int      `json:"size" yaml:"size" toml:"size"`
	Base BaseType `json:"base" yaml:"base" toml:"base"`
}

// IsInteger reports whether the type is a signed or unsigned integer.
func (dt DataType) IsInteger() bool {
	return dt.Base == SignedInt || dt.Base == UnsignedInt
}

// Bits returns the bit capacity of the type.
func (dt DataType) Bits() int { return dt.Size * 8 }

// DefaultDataTypes is the primitive table available to every project.
// Project data types with the same name replace these entries.
var DefaultDataTypes = []DataType{
	{Name: "int8_t", Size: 1, Base: SignedInt},
	{Name: "int16_t", Size: 2, Base: SignedInt},
	{Name: "int32_t", Size: 4, Base: SignedInt},
	{Name: "int64_t", Size: 8, Base: SignedInt},
	{Name: "uint8_t", Size: 1, Base: UnsignedInt},
	{Name: "uint16_t", Size: 2, Base: UnsignedInt},
	{Name: "uint32_t", Size: 4, Base: UnsignedInt},
	{Name: "uint64_t", Size: 8, Base: UnsignedInt},
	{Name: "float", Size: 4, Base: FloatingPoint},
	{Name: "double", Size: 8, Base: FloatingPoint},
	{Name: "char", Size: 1, Base: Character},
	{Name: "address", Size: 4, Base: Pointer},
}

func validBase(b BaseType) bool {
	switch b {
	case SignedInt, UnsignedInt, FloatingPoint, Character, Pointer:
		return true
	}
	return false
}
