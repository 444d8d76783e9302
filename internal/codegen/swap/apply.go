package swap

import (
	"fmt"
	"slices"
)

// Apply runs byte_swap_<name> on buf in place, mirroring what the generated
// C does: word swaps first, nested structures recursively, then the
// structure's own bit fields.
func (s *Set) Apply(name string, buf []byte, dir Direction) error {
	p, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("no swap plan for structure %s", name)
	}
	if len(buf) < p.Size {
		return fmt.Errorf("structure %s: buffer of %d bytes, need %d", name, len(buf), p.Size)
	}

	for _, op := range p.Ops {
		for i := 0; i < op.Count(); i++ {
			off := op.Offset + i*op.ElemSize
			elem := buf[off : off+op.ElemSize]
			if op.Kind == Recurse {
				if err := s.Apply(op.Structure, elem, dir); err != nil {
					return fmt.Errorf("%s.%s: %w", name, op.Field, err)
				}
				continue
			}
			slices.Reverse(elem)
		}
	}
	if p.HasBitField {
		p.applyBits(buf, dir)
	}
	return nil
}

// applyBits runs bit_swap_<name>. Reflection happens before the per-field
// mirror toward local order and after it toward foreign order.
func (p *Plan) applyBits(buf []byte, dir Direction) {
	for _, g := range p.Groups {
		unit := buf[g.Offset : g.Offset+g.Size]
		if dir == ToLocal {
			reflectBits(unit)
		}
		for _, f := range g.Fields {
			if f.Mirror {
				mirrorBits(unit, f.Shift, f.Bits)
			}
		}
		if dir == ToForeign {
			reflectBits(unit)
		}
	}
}

// reflectBits reverses the bit order of a whole span.
func reflectBits(b []byte) {
	slices.Reverse(b)
	for i, v := range b {
		b[i] = reverseByte(v)
	}
}

func reverseByte(v byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r = r<<1 | v&1
		v >>= 1
	}
	return r
}

// mirrorBits reverses bits [shift, shift+n) of a little-endian bit vector.
func mirrorBits(b []byte, shift, n int) {
	for lo, hi := shift, shift+n-1; lo < hi; lo, hi = lo+1, hi-1 {
		bl, bh := bit(b, lo), bit(b, hi)
		setBit(b, lo, bh)
		setBit(b, hi, bl)
	}
}

func bit(b []byte, i int) byte {
	return (b[i/8] >> (i % 8)) & 1
}

func setBit(b []byte, i int, v byte) {
	b[i/8] = b[i/8]&^(1<<(i%8)) | v<<(i%8)
}
