package layout

import "github.com/Alia5/fswgen/internal/dictionary"

// PackGroup is a run of consecutive bit fields sharing one storage unit.
type PackGroup struct {
	Type   dictionary.DataType
	Offset int
	Fields []*BitField
	Filled int
}

// Capacity is the number of bits in the storage unit.
func (g *PackGroup) Capacity() int { return g.Type.Bits() }

// PackGroups splits the bit fields of a field list into storage units. A
// new unit starts when the data type changes, the unit would overflow, or
// a non-bit field interrupts the run.
func PackGroups(fields []Field) []PackGroup {
	var (
		groups   []PackGroup
		lastType = ""
		open     = false
	)
	for _, f := range fields {
		bf, ok := f.(*BitField)
		if !ok {
			open = false
			lastType = ""
			continue
		}
		cur := len(groups) - 1
		if !open || bf.DataType != lastType || groups[cur].Filled+bf.Bits > groups[cur].Capacity() {
			groups = append(groups, PackGroup{Type: bf.Type, Offset: bf.Offset})
			cur++
			open = true
			lastType = bf.DataType
		}
		groups[cur].Fields = append(groups[cur].Fields, bf)
		groups[cur].Filled += bf.Bits
	}
	return groups
}
