// Package layout computes the member layout of every structure in a
// dictionary: byte offsets, sizes, bit-packing groups and the CCSDS header
// members of message structures.
package layout

import (
	"fmt"

	"github.com/Alia5/fswgen/internal/dictionary"
)

// CCSDSHeaderSize is the size of the primary plus secondary header
// prepended to structures that carry a message ID.
const CCSDSHeaderSize = dictionary.MessageHeaderSize

const ccsdsHalf = CCSDSHeaderSize / 2

// Source is the dictionary query surface the layout pass reads from.
type Source interface {
	Structure(name string) (*dictionary.Structure, bool)
	StructuresByReferenceOrder() []string
	Primitive(name string) (dictionary.DataType, bool)
	IsStructure(name string) bool
	// SizeOf includes the message header of structures.
	SizeOf(typeName string) int
	FieldValue(structure, field string) string
	VariableOffset(path string) (int, error)
}

// Structure is the computed layout of one structure.
type Structure struct {
	Name             string
	Description      string
	HasMessageHeader bool
	MessageID        string
	Fields           []Field
	TotalSize        int
	HasBitField      bool
	// DefinitionWidth is the column at which annotations start.
	DefinitionWidth int
	// UnknownTypes lists data types that are neither primitives nor
	// structures.
	UnknownTypes []string
}

// Result holds the layout of every structure of a run.
type Result struct {
	Structures  []*Structure
	byName      map[string]*Structure
	hasBitField map[string]bool
}

// Structure returns the layout for name.
func (r *Result) Structure(name string) (*Structure, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// HasBitField reports whether the structure has bit-packed members. It is
// only meaningful once Build has returned, which is why swap generation
// runs strictly after the layout pass.
func (r *Result) HasBitField(name string) bool {
	return r.hasBitField[name]
}

// Build runs the layout pass over every structure in reference order.
func Build(src Source) (*Result, error) {
	names := src.StructuresByReferenceOrder()
	res := &Result{
		Structures:  make([]*Structure, 0, len(names)),
		byName:      make(map[string]*Structure, len(names)),
		hasBitField: make(map[string]bool, len(names)),
	}
	for _, name := range names {
		s, err := buildStructure(src, name)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", name, err)
		}
		res.Structures = append(res.Structures, s)
		res.byName[name] = s
		res.hasBitField[name] = s.HasBitField
	}
	return res, nil
}

func buildStructure(src Source, name string) (*Structure, error) {
	table, ok := src.Structure(name)
	if !ok {
		return nil, dictionary.ErrNotFound
	}

	s := &Structure{
		Name:            name,
		Description:     table.Description,
		MessageID:       src.FieldValue(name, dictionary.FieldMessageID),
		DefinitionWidth: len(" " + name + "; "),
	}

	headerOffset := 0
	if s.MessageID != "" {
		s.HasMessageHeader = true
		headerOffset = CCSDSHeaderSize
		s.Fields = append(s.Fields, ccsdsField("CFS_PRI_HEADER", 0, "#CCSDS_PriHdr_t"), ccsdsField("CFS_SEC_HEADER", ccsdsHalf, "#CCSDS_CmdSecHdr_t"))
		s.DefinitionWidth = len("   char CFS_PRI_HEADER[6]; ")
	}

	seen := make(map[string]struct{})
	unknown := make(map[string]struct{})
	for _, r := range table.Rows {
		if dictionary.IsArrayMember(r.Name) {
			continue
		}
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}

		f, err := buildField(src, name, r, headerOffset)
		if err != nil {
			return nil, err
		}
		if !known(src, r.DataType) {
			if _, noted := unknown[r.DataType]; !noted {
				unknown[r.DataType] = struct{}{}
				s.UnknownTypes = append(s.UnknownTypes, r.DataType)
			}
		}
		if _, isBits := f.(*BitField); isBits {
			s.HasBitField = true
		}
		if w := len("   " + f.Declaration() + "; "); w > s.DefinitionWidth {
			s.DefinitionWidth = w
		}
		s.Fields = append(s.Fields, f)
	}

	s.TotalSize = src.SizeOf(name)
	return s, nil
}

func buildField(src Source, structName string, r dictionary.Row, headerOffset int) (Field, error) {
	info := FieldInfo{
		Name:        r.Name,
		DataType:    r.DataType,
		Description: r.Description,
		Rates:       r.Rates,
		Enumeration: r.Enumeration,
		Limits:      r.Limits,
		Polynomial:  r.Polynomial,
	}
	path := structName + "," + r.DataType + "." + r.Name

	dims, err := dictionary.ParseArraySize(r.ArraySize)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", r.Name, err)
	}

	if len(dims) > 0 {
		off, err := src.VariableOffset(dictionary.FirstElementPath(path, len(dims)))
		if err != nil {
			return nil, err
		}
		info.Offset = off + headerOffset
		arr := &Array{FieldInfo: info, Dims: dims}
		if src.IsStructure(r.DataType) {
			arr.Structure = r.DataType
			arr.ElemSize = src.SizeOf(r.DataType)
		} else if dt, ok := src.Primitive(r.DataType); ok {
			arr.Element = dt
			arr.Known = true
			arr.ElemSize = dt.Size
		}
		return arr, nil
	}

	off, err := src.VariableOffset(path)
	if err != nil {
		return nil, err
	}
	info.Offset = off + headerOffset

	if src.IsStructure(r.DataType) {
		return &Nested{FieldInfo: info, Size: src.SizeOf(r.DataType)}, nil
	}
	dt, ok := src.Primitive(r.DataType)
	if ok && r.BitLength > 0 && dt.IsInteger() {
		return &BitField{FieldInfo: info, Type: dt, Bits: r.BitLength}, nil
	}
	return &Scalar{FieldInfo: info, Type: dt, Known: ok}, nil
}

func known(src Source, typeName string) bool {
	if src.IsStructure(typeName) {
		return true
	}
	_, ok := src.Primitive(typeName)
	return ok
}

func ccsdsField(name string, offset int, comment string) *Array {
	return &Array{
		FieldInfo: FieldInfo{
			Name:      name,
			DataType:  "char",
			Offset:    offset,
			Synthetic: true,
			Comment:   comment,
		},
		Dims:     []int{ccsdsHalf},
		Element:  dictionary.DataType{Name: "char", Size: 1, Base: dictionary.Character},
		Known:    true,
		ElemSize: 1,
	}
}
