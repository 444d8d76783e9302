package layout

import (
	"fmt"
	"strings"
)

// ByteOrder selects the target endianness.
type ByteOrder string

const (
	BigEndian    ByteOrder = "BE"
	LittleEndian ByteOrder = "LE"
)

// ParseByteOrder accepts "BE"/"LE" and the spelled-out forms.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "be", "big", "big-endian", "":
		return BigEndian, nil
	case "le", "little", "little-endian":
		return LittleEndian, nil
	default:
		return "", fmt.Errorf("unknown byte order %q (expected BE or LE)", s)
	}
}

// ReorderForByteOrder returns the fields in visitation order for the given
// byte order. For little endian every run of bit fields sharing a storage
// unit is reversed; big endian keeps table order. The input is not
// modified.
func ReorderForByteOrder(fields []Field, order ByteOrder) []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	if order != LittleEndian {
		return out
	}

	for i := 0; i < len(out); {
		first, ok := out[i].(*BitField)
		if !ok {
			i++
			continue
		}
		j := i + 1
		for j < len(out) {
			next, ok := out[j].(*BitField)
			if !ok || next.Offset != first.Offset {
				break
			}
			j++
		}
		for l, r := i, j-1; l < r; l, r = l+1, r-1 {
			out[l], out[r] = out[r], out[l]
		}
		i = j
	}
	return out
}
