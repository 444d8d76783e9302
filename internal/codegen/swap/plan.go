// Package swap derives the byte-order and bit-order conversion plan of each
// structure from its layout. The C generator renders a plan as the
// byte_swap_ and bit_swap_ procedures; Apply executes it on a buffer.
package swap

import (
	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/dictionary"
)

// Kind is the conversion applied to one scalar or array element.
type Kind int

const (
	None Kind = iota
	Word16
	Word32
	Word64
	Float32
	Float64
	Recurse
)

func (k Kind) String() string {
	switch k {
	case Word16:
		return "SWAP_16"
	case Word32:
		return "SWAP_32"
	case Word64:
		return "SWAP_64"
	case Float32:
		return "swap_float"
	case Float64:
		return "swap_double"
	case Recurse:
		return "byte_swap"
	default:
		return "none"
	}
}

// Width returns the word width in bits of a word swap, or 0.
func (k Kind) Width() int {
	switch k {
	case Word16:
		return 16
	case Word32, Float32:
		return 32
	case Word64, Float64:
		return 64
	}
	return 0
}

// Direction selects the conversion direction of a swap procedure.
type Direction int

const (
	ToLocal   Direction = 0
	ToForeign Direction = 1
)

// Op converts one member. Arrays carry their extents in Dims and are
// converted element by element.
type Op struct {
	Field     string
	CType     string
	Kind      Kind
	Offset    int
	ElemSize  int
	Dims      []int
	Structure string
}

// Count returns the number of elements the op touches.
func (o Op) Count() int {
	n := 1
	for _, d := range o.Dims {
		n *= d
	}
	return n
}

// BitOp is one member of a bit pack group. Shift is the bit position of the
// member inside the storage unit. Mirror is false for one-bit members,
// which never get a bit_field_swap call.
type BitOp struct {
	Field  string
	Bits   int
	Shift  int
	Mirror bool
}

// Group is one storage unit of bit fields, reflected as a whole.
type Group struct {
	Offset int
	Size   int
	CType  string
	Fields []BitOp
}

// Plan is the full conversion of one structure.
type Plan struct {
	Name string
	Size int
	Ops  []Op
	// HasBitField mirrors the layout table; bit_swap_<Name> exists only
	// when it is set.
	HasBitField bool
	Groups      []Group
}

// Set holds the plans of every structure of a run in reference order.
type Set struct {
	Plans  []*Plan
	byName map[string]*Plan
}

// Plan returns the plan for name.
func (s *Set) Plan(name string) (*Plan, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// KindFor maps a primitive to its conversion.
func KindFor(dt dictionary.DataType) Kind {
	if dt.Base == dictionary.FloatingPoint {
		switch dt.Size {
		case 4:
			return Float32
		case 8:
			return Float64
		}
		return None
	}
	switch dt.Size {
	case 2:
		return Word16
	case 4:
		return Word32
	case 8:
		return Word64
	}
	return None
}

// Build derives the plans from a completed layout pass.
func Build(res *layout.Result) *Set {
	set := &Set{byName: make(map[string]*Plan, len(res.Structures))}
	for _, s := range res.Structures {
		p := buildPlan(res, s)
		set.Plans = append(set.Plans, p)
		set.byName[s.Name] = p
	}
	return set
}

func buildPlan(res *layout.Result, s *layout.Structure) *Plan {
	p := &Plan{
		Name:        s.Name,
		Size:        s.TotalSize,
		HasBitField: res.HasBitField(s.Name),
	}
	for _, f := range s.Fields {
		if op, ok := opFor(f); ok {
			p.Ops = append(p.Ops, op)
		}
	}
	for _, g := range layout.PackGroups(s.Fields) {
		grp := Group{Offset: g.Offset, Size: g.Type.Size, CType: g.Type.Name}
		shift := 0
		for _, bf := range g.Fields {
			grp.Fields = append(grp.Fields, BitOp{
				Field:  bf.Name,
				Bits:   bf.Bits,
				Shift:  shift,
				Mirror: bf.Bits > 1,
			})
			shift += bf.Bits
		}
		p.Groups = append(p.Groups, grp)
	}
	return p
}

func opFor(f layout.Field) (Op, bool) {
	switch f := f.(type) {
	case *layout.Scalar:
		if !f.Known {
			return Op{}, false
		}
		k := KindFor(f.Type)
		if k == None {
			return Op{}, false
		}
		return Op{Field: f.Name, CType: f.DataType, Kind: k, Offset: f.Offset, ElemSize: f.Type.Size}, true
	case *layout.Array:
		if f.Structure != "" {
			return Op{Field: f.Name, CType: f.DataType, Kind: Recurse, Offset: f.Offset, ElemSize: f.ElemSize, Dims: f.Dims, Structure: f.Structure}, true
		}
		if !f.Known {
			return Op{}, false
		}
		k := KindFor(f.Element)
		if k == None {
			return Op{}, false
		}
		return Op{Field: f.Name, CType: f.DataType, Kind: k, Offset: f.Offset, ElemSize: f.ElemSize, Dims: f.Dims}, true
	case *layout.Nested:
		return Op{Field: f.Name, CType: f.DataType, Kind: Recurse, Offset: f.Offset, ElemSize: f.Size, Structure: f.DataType}, true
	case *layout.BitField:
		return Op{}, false
	}
	return Op{}, false
}
