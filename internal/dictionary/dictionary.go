package dictionary

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound is returned by lookups for unknown structures or paths.
var ErrNotFound = errors.New("not found")

// MessageHeaderSize is the size of the CCSDS primary plus secondary header
// that opens every structure with a Message ID data field.
const MessageHeaderSize = 12

// Dictionary is the indexed, read-only view of a Project.
type Dictionary struct {
	project    *Project
	types      map[string]DataType
	structs    map[string]*Structure
	order      []string
	offsets    map[string]map[string]int
	sizes      map[string]int
	referrers  map[string]map[string]struct{}
	rootTables []string
}

// NewDictionary validates a project and resolves sizes and offsets.
func NewDictionary(p *Project) (*Dictionary, error) {
	d := &Dictionary{
		project:   p,
		types:     make(map[string]DataType),
		structs:   make(map[string]*Structure),
		offsets:   make(map[string]map[string]int),
		sizes:     make(map[string]int),
		referrers: make(map[string]map[string]struct{}),
	}

	for _, dt := range DefaultDataTypes {
		d.types[dt.Name] = dt
	}
	for _, dt := range p.DataTypes {
		if dt.Name == "" {
			return nil, errors.New("data type with empty name")
		}
		if dt.Size <= 0 {
			return nil, fmt.Errorf("data type %s: size must be positive", dt.Name)
		}
		if !validBase(dt.Base) {
			return nil, fmt.Errorf("data type %s: unknown base type %q", dt.Name, dt.Base)
		}
		d.types[dt.Name] = dt
	}

	for i := range p.Structures {
		s := &p.Structures[i]
		if s.Name == "" {
			return nil, fmt.Errorf("structure %d has no name", i)
		}
		if _, dup := d.structs[s.Name]; dup {
			return nil, fmt.Errorf("duplicate structure %s", s.Name)
		}
		if _, prim := d.types[s.Name]; prim {
			return nil, fmt.Errorf("structure %s shadows a primitive data type", s.Name)
		}
		d.structs[s.Name] = s
	}

	for _, s := range p.Structures {
		for _, r := range s.Rows {
			if r.Name == "" {
				return nil, fmt.Errorf("structure %s: row with empty variable name", s.Name)
			}
			if _, err := ParseArraySize(r.ArraySize); err != nil {
				return nil, fmt.Errorf("structure %s, variable %s: %w", s.Name, r.Name, err)
			}
			if err := d.checkBitLength(r); err != nil {
				return nil, fmt.Errorf("structure %s, variable %s: %w", s.Name, r.Name, err)
			}
			if _, ok := d.structs[r.DataType]; ok && !IsArrayMember(r.Name) {
				if d.referrers[r.DataType] == nil {
					d.referrers[r.DataType] = make(map[string]struct{})
				}
				d.referrers[r.DataType][s.Name] = struct{}{}
			}
		}
	}

	order, err := d.referenceOrder()
	if err != nil {
		return nil, err
	}
	d.order = order

	for _, name := range d.order {
		d.resolveOffsets(d.structs[name])
	}
	for _, s := range p.Structures {
		if len(d.referrers[s.Name]) == 0 {
			d.rootTables = append(d.rootTables, s.Name)
		}
	}
	return d, nil
}

// Project returns the underlying snapshot.
func (d *Dictionary) Project() *Project { return d.project }

// NumStructureRows returns the total number of definition rows over all
// structure tables.
func (d *Dictionary) NumStructureRows() int {
	n := 0
	for _, s := range d.project.Structures {
		n += len(s.Rows)
	}
	return n
}

// StructuresByReferenceOrder returns every structure name ordered so that a
// structure always follows the structures it references.
func (d *Dictionary) StructuresByReferenceOrder() []string {
	return append([]string(nil), d.order...)
}

// RootStructures returns the structures not referenced by any other
// structure, in table order.
func (d *Dictionary) RootStructures() []string {
	return append([]string(nil), d.rootTables...)
}

// ParentStructure returns the first root structure, or "" if none exist.
func (d *Dictionary) ParentStructure() string {
	if len(d.rootTables) == 0 {
		return ""
	}
	return d.rootTables[0]
}

// Structure returns the named structure table.
func (d *Dictionary) Structure(name string) (*Structure, bool) {
	s, ok := d.structs[name]
	return s, ok
}

// IsStructure reports whether name is a structure table.
func (d *Dictionary) IsStructure(name string) bool {
	_, ok := d.structs[name]
	return ok
}

// Primitive returns the primitive data type with the given name.
func (d *Dictionary) Primitive(name string) (DataType, bool) {
	dt, ok := d.types[name]
	return dt, ok
}

// SizeOf returns the size in bytes of a primitive or structure, or 0 if
// the type is not known. The size of a structure includes its message
// header.
func (d *Dictionary) SizeOf(typeName string) int {
	if dt, ok := d.types[typeName]; ok {
		return dt.Size
	}
	return d.sizes[typeName]
}

// HeaderSize returns MessageHeaderSize for structures with a Message ID
// data field and 0 for every other type.
func (d *Dictionary) HeaderSize(name string) int {
	if d.FieldValue(name, FieldMessageID) == "" {
		return 0
	}
	return MessageHeaderSize
}

// checkBitLength rejects bit lengths that the row's type cannot hold.
func (d *Dictionary) checkBitLength(r Row) error {
	switch {
	case r.BitLength < 0:
		return errors.New("negative bit length")
	case r.BitLength == 0:
		return nil
	}
	dt, ok := d.types[r.DataType]
	if !ok || !dt.IsInteger() {
		return fmt.Errorf("bit length on non-integer type %s", r.DataType)
	}
	if strings.TrimSpace(r.ArraySize) != "" {
		return errors.New("bit length on an array")
	}
	if r.BitLength > dt.Bits() {
		return fmt.Errorf("bit length %d exceeds the %d bits of %s", r.BitLength, dt.Bits(), dt.Name)
	}
	return nil
}

// IsShared reports whether the structure is referenced by more than one
// other structure.
func (d *Dictionary) IsShared(name string) bool {
	return len(d.referrers[name]) > 1
}

// FieldValue returns a structure's data field, or "" when absent.
func (d *Dictionary) FieldValue(structure, field string) string {
	s, ok := d.structs[structure]
	if !ok || s.Fields == nil {
		return ""
	}
	return strings.TrimSpace(s.Fields[field])
}

// SystemName returns the "System" data field of the parent structure,
// falling back to the project default.
func (d *Dictionary) SystemName() string {
	if v := d.FieldValue(d.ParentStructure(), FieldSystem); v != "" {
		return v
	}
	return d.project.System
}

// DataStreamNames returns the data stream names in snapshot order.
func (d *Dictionary) DataStreamNames() []string {
	names := make([]string, 0, len(d.project.Streams))
	for _, s := range d.project.Streams {
		names = append(names, s.Name)
	}
	return names
}

// Stream returns the named data stream.
func (d *Dictionary) Stream(name string) (*DataStream, bool) {
	for i := range d.project.Streams {
		if d.project.Streams[i].Name == name {
			return &d.project.Streams[i], true
		}
	}
	return nil, false
}

// TableNames returns every structure name, sorted.
func (d *Dictionary) TableNames() []string {
	names := make([]string, 0, len(d.structs))
	for n := range d.structs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// VariableOffset returns the byte offset of a variable path relative to the
// data of the path's root structure, i.e. after its message header. Paths have the form
// "Root,type.name[,type.name...]" with optional "[i]" indices and an
// optional ":bits" suffix, which is ignored. A bare structure name
// resolves to 0.
func (d *Dictionary) VariableOffset(path string) (int, error) {
	if i := strings.Index(path, ":"); i >= 0 {
		path = path[:i]
	}
	root, rest, hasVar := strings.Cut(path, ",")
	offsets, ok := d.offsets[root]
	if !ok {
		return -1, fmt.Errorf("structure %s: %w", root, ErrNotFound)
	}
	if !hasVar {
		return 0, nil
	}
	off, ok := offsets[rest]
	if !ok {
		return -1, fmt.Errorf("variable %s: %w", path, ErrNotFound)
	}
	return off, nil
}

// IsArrayMember reports whether a variable name carries an index suffix,
// e.g. "foo[2]".
func IsArrayMember(name string) bool {
	return strings.HasSuffix(name, "]")
}

// ParseArraySize splits an array size such as "2, 3" into its extents.
func ParseArraySize(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	dims := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid array size %q", s)
		}
		dims = append(dims, n)
	}
	return dims, nil
}

// referenceOrder sorts structures depth-first so that referenced structures
// come first, keeping table order otherwise.
func (d *Dictionary) referenceOrder() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(d.structs))
	var order []string

	var visit func(name string, chain []string) error
	visit = func(name string, chain []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("structure reference cycle: %s", strings.Join(append(chain, name), " -> "))
		}
		state[name] = visiting
		for _, r := range d.structs[name].Rows {
			if _, ok := d.structs[r.DataType]; ok {
				if err := visit(r.DataType, append(chain, name)); err != nil {
					return err
				}
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, s := range d.project.Structures {
		if err := visit(s.Name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}
