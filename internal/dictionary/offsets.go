package dictionary

import (
	"fmt"
	"strings"
)

// packState tracks bit packing while offsets are assigned in row order.
type packState struct {
	offset        int
	bitCount      int
	lastByteSize  int
	lastDataType  string
	lastBitLength int
}

// advance returns the offset of the next primitive variable. A variable
// stays in the current storage unit only if it and its predecessor are
// both bit fields of the same type and the unit still has room.
func (p *packState) advance(dataType string, byteSize, bits int) int {
	p.bitCount += bits
	if bits == 0 || p.lastBitLength == 0 || dataType != p.lastDataType || p.bitCount > byteSize*8 {
		p.bitCount = bits
		p.offset += p.lastByteSize
	}
	p.lastByteSize = byteSize
	p.lastDataType = dataType
	p.lastBitLength = bits
	return p.offset
}

// skip closes any open storage unit and moves past a nested structure.
func (p *packState) skip(size int) int {
	start := p.offset + p.lastByteSize
	p.offset = start + size
	p.bitCount = 0
	p.lastByteSize = 0
	p.lastDataType = ""
	p.lastBitLength = 0
	return start
}

func (p *packState) end() int {
	return p.offset + p.lastByteSize
}

// resolveOffsets computes the offsets of every variable path below s,
// relative to s, and the size of s. Structures referenced by s must already
// be resolved.
func (d *Dictionary) resolveOffsets(s *Structure) {
	offsets := make(map[string]int)
	var st packState
	seen := make(map[string]struct{})

	for _, r := range s.Rows {
		if IsArrayMember(r.Name) {
			continue
		}
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}

		key := r.DataType + "." + r.Name
		dims, _ := ParseArraySize(r.ArraySize)
		child, nested := d.offsets[r.DataType]

		place := func(elemKey string) {
			if nested {
				start := st.skip(d.sizes[r.DataType])
				offsets[elemKey] = start
				data := start + d.HeaderSize(r.DataType)
				for k, v := range child {
					offsets[elemKey+","+k] = data + v
				}
				return
			}
			bits := 0
			if len(dims) == 0 {
				bits = r.BitLength
			}
			offsets[elemKey] = st.advance(r.DataType, d.SizeOf(r.DataType), bits)
		}

		if len(dims) == 0 {
			place(key)
			continue
		}
		first := true
		for _, idx := range arrayIndices(dims) {
			elemKey := key + idx
			place(elemKey)
			if first {
				offsets[key] = offsets[elemKey]
				first = false
			}
		}
	}

	d.offsets[s.Name] = offsets
	d.sizes[s.Name] = st.end() + d.HeaderSize(s.Name)
}

// arrayIndices enumerates "[i][j]..." suffixes in row-major order.
func arrayIndices(dims []int) []string {
	out := []string{""}
	for _, n := range dims {
		next := make([]string, 0, len(out)*n)
		for _, prefix := range out {
			for i := 0; i < n; i++ {
				next = append(next, fmt.Sprintf("%s[%d]", prefix, i))
			}
		}
		out = next
	}
	return out
}

// FirstElementPath appends "[0]" once per dimension to a variable path.
func FirstElementPath(path string, dims int) string {
	return path + strings.Repeat("[0]", dims)
}

// VariableSize returns the size in bytes of the variable a path names. A
// path naming an array without an index covers the whole array, and a bare
// structure name covers the data after its message header.
func (d *Dictionary) VariableSize(path string) (int, error) {
	if _, err := d.VariableOffset(path); err != nil {
		return 0, err
	}
	if i := strings.Index(path, ":"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, ",")
	if len(parts) == 1 {
		return d.SizeOf(parts[0]) - d.HeaderSize(parts[0]), nil
	}

	host := parts[0]
	if len(parts) > 2 {
		host, _, _ = strings.Cut(parts[len(parts)-2], ".")
	}
	typeName, name, _ := strings.Cut(parts[len(parts)-1], ".")
	size := d.SizeOf(typeName)
	if IsArrayMember(name) {
		return size, nil
	}
	if s, ok := d.structs[host]; ok {
		for _, r := range s.Rows {
			if r.Name != name {
				continue
			}
			dims, _ := ParseArraySize(r.ArraySize)
			for _, n := range dims {
				size *= n
			}
			break
		}
	}
	return size, nil
}
