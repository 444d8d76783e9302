package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/fswgen/internal/dictionary"
)

// Field is one member of a generated structure. It is exactly one of
// *Scalar, *Array, *BitField or *Nested.
type Field interface {
	Info() *FieldInfo
	// ByteSize is the size annotation for the field; 0 for bit fields.
	ByteSize() int
	// Declaration is the C member declaration without the trailing ';'.
	Declaration() string
	isField()
}

// FieldInfo carries the attributes shared by every field variant.
type FieldInfo struct {
	Name        string
	DataType    string
	Description string
	Offset      int
	Rates       map[string]string
	Enumeration string
	Limits      string
	Polynomial  string
	// Synthetic marks fields that have no row in the structure table, such
	// as the CCSDS header members.
	Synthetic bool
	// Comment replaces the size text in annotations of synthetic fields.
	Comment string
}

// Info implements Field.
func (fi *FieldInfo) Info() *FieldInfo { return fi }

// Scalar is a single primitive value. Known is false when the data type is
// neither a primitive nor a structure; such fields pass through by name.
type Scalar struct {
	FieldInfo
	Type  dictionary.DataType
	Known bool
}

func (f *Scalar) ByteSize() int {
	if !f.Known {
		return 0
	}
	return f.Type.Size
}

func (f *Scalar) Declaration() string { return f.DataType + " " + f.Name }
func (*Scalar) isField()              {}

// Array is a fixed-size array of primitives or of a nested structure.
// Structure is set for arrays of structures.
type Array struct {
	FieldInfo
	Dims      []int
	Element   dictionary.DataType
	Known     bool
	Structure string
	ElemSize  int
}

// Count returns the number of elements over all dimensions.
func (f *Array) Count() int {
	n := 1
	for _, d := range f.Dims {
		n *= d
	}
	return n
}

func (f *Array) ByteSize() int { return f.Count() * f.ElemSize }

func (f *Array) Declaration() string {
	var b strings.Builder
	b.WriteString(f.DataType)
	b.WriteByte(' ')
	b.WriteString(f.Name)
	for _, d := range f.Dims {
		b.WriteString("[" + strconv.Itoa(d) + "]")
	}
	return b.String()
}

// SizeText renders the array size annotation, e.g. "2x3x4=24 bytes".
func (f *Array) SizeText() string {
	var b strings.Builder
	for _, d := range f.Dims {
		b.WriteString(strconv.Itoa(d) + "x")
	}
	return fmt.Sprintf("%s%d=%d bytes", b.String(), f.ElemSize, f.ByteSize())
}

func (*Array) isField() {}

// BitField is an integer member packed into a storage unit of its type.
// Offset is the byte offset of the storage unit.
type BitField struct {
	FieldInfo
	Type dictionary.DataType
	Bits int
}

func (*BitField) ByteSize() int { return 0 }

func (f *BitField) Declaration() string {
	return f.DataType + " " + f.Name + ":" + strconv.Itoa(f.Bits)
}

func (*BitField) isField() {}

// Nested is a member whose type is another structure.
type Nested struct {
	FieldInfo
	Size int
}

func (f *Nested) ByteSize() int       { return f.Size }
func (f *Nested) Declaration() string { return f.DataType + " " + f.Name }
func (*Nested) isField()              {}
