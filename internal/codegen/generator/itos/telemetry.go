package itos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/dictionary"
)

const noMnemonic = `generateMnemonic="no"`

// TypeLetter returns the single character ITOS encoding of a primitive.
func TypeLetter(dt dictionary.DataType) string {
	switch dt.Base {
	case dictionary.SignedInt:
		return "I"
	case dictionary.UnsignedInt, dictionary.Pointer:
		return "U"
	case dictionary.FloatingPoint:
		return "F"
	case dictionary.Character:
		return "S"
	}
	return "R"
}

// TwoCharCode returns the type letter followed by the size in bytes,
// e.g. "U2" for uint16_t.
func TwoCharCode(dt dictionary.DataType) string {
	return TypeLetter(dt) + strconv.Itoa(dt.Size)
}

// telemetryBlocks returns the packet and prototype definitions of the
// telemetry record file and the shared prototypes of common.rec.
func telemetryBlocks(md *meta.Metadata, fcs []FlightComputer) (tlm, shared []string) {
	for _, s := range md.Layout.Structures {
		lines := memberLines(s, md.ByteOrder)
		switch {
		case s.HasMessageHeader:
			for _, fc := range fcs {
				tlm = append(tlm, packetBlock(fc, s, lines))
			}
		case md.Dict.IsShared(s.Name):
			shared = append(shared, prototypeBlock(s, lines))
		default:
			tlm = append(tlm, prototypeBlock(s, lines))
		}
	}
	return tlm, shared
}

func packetBlock(fc FlightComputer, s *layout.Structure, lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nCfeTelemetryPacket %s%s\n{\n", fc.Prefix, s.Name)
	fmt.Fprintf(&b, "  applyWhen={FieldInRange{field = applicationId, range = %s}},\n", applicationID(s.MessageID, fc.Offset, 4))
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n}\n")
	return b.String()
}

func prototypeBlock(s *layout.Structure, lines []string) string {
	return "\nprototype Structure " + s.Name + "\n{\n" + strings.Join(lines, "\n") + "\n}\n"
}

// memberLines encodes the structure members in record order. The CCSDS
// header is part of the packet definition itself and is skipped. Arrays are
// listed element by element as name_i_j.
func memberLines(s *layout.Structure, order layout.ByteOrder) []string {
	var lines []string
	for _, f := range layout.ReorderForByteOrder(s.Fields, order) {
		info := f.Info()
		if info.Synthetic {
			continue
		}
		switch f := f.(type) {
		case *layout.Scalar:
			if f.Known {
				lines = append(lines, member(TwoCharCode(f.Type), f.Name, noMnemonic))
			} else {
				lines = append(lines, member(f.DataType, f.Name, ""))
			}
		case *layout.BitField:
			lines = append(lines, member(TwoCharCode(f.Type), f.Name, "lengthInBits="+strconv.Itoa(f.Bits)+" "+noMnemonic))
		case *layout.Nested:
			lines = append(lines, member(f.DataType, f.Name, ""))
		case *layout.Array:
			code, params := f.DataType, ""
			if f.Structure == "" && f.Known {
				code, params = TwoCharCode(f.Element), noMnemonic
			}
			for _, suffix := range elementSuffixes(f.Dims) {
				lines = append(lines, member(code, f.Name+suffix, params))
			}
		}
	}
	return lines
}

func member(code, name, params string) string {
	return "  " + code + " " + name + " {" + params + "}"
}

// elementSuffixes enumerates "_i_j..." element suffixes in row-major order.
func elementSuffixes(dims []int) []string {
	out := []string{""}
	for _, n := range dims {
		next := make([]string, 0, len(out)*n)
		for _, prefix := range out {
			for i := 0; i < n; i++ {
				next = append(next, prefix+"_"+strconv.Itoa(i))
			}
		}
		out = next
	}
	return out
}
