package cgen

import (
	"fmt"
	"strings"

	"github.com/Alia5/fswgen/internal/codegen/swap"
)

const swapSourceTmpl = `{{banner .Tables}}
#include <stddef.h>
#include <string.h>
#include "{{.TypesHeader}}"

#define SWAP_16(x) ((uint16_t) ((((uint16_t) (x) & 0x00ffU) << 8) | \
                                (((uint16_t) (x) & 0xff00U) >> 8)))
#define SWAP_32(x) ((uint32_t) ((((uint32_t) (x) & 0x000000ffUL) << 24) | \
                                (((uint32_t) (x) & 0x0000ff00UL) << 8) | \
                                (((uint32_t) (x) & 0x00ff0000UL) >> 8) | \
                                (((uint32_t) (x) & 0xff000000UL) >> 24)))
#define SWAP_64(x) ((uint64_t) ((((uint64_t) SWAP_32((uint32_t) (x))) << 32) | \
                                ((uint64_t) SWAP_32((uint32_t) ((uint64_t) (x) >> 32)))))

static float swap_float(float value)
{
    union { float f; uint32_t u; } v;
    v.f = value;
    v.u = SWAP_32(v.u);
    return v.f;
}

static double swap_double(double value)
{
    union { double d; uint64_t u; } v;
    v.d = value;
    v.u = SWAP_64(v.u);
    return v.d;
}

/* Reverse the bit order of a whole byte span */
static void reflect_bits(uint8_t *data, size_t length)
{
    size_t i;

    for (i = 0; i < length / 2; i++)
    {
        uint8_t tmp = data[i];
        data[i] = data[length - 1 - i];
        data[length - 1 - i] = tmp;
    }

    for (i = 0; i < length; i++)
    {
        uint8_t b = data[i];
        b = (uint8_t) (((b & 0xf0U) >> 4) | ((b & 0x0fU) << 4));
        b = (uint8_t) (((b & 0xccU) >> 2) | ((b & 0x33U) << 2));
        b = (uint8_t) (((b & 0xaaU) >> 1) | ((b & 0x55U) << 1));
        data[i] = b;
    }
}

/* Mirror the low 'bits' bits of a bit field value */
static uint64_t bit_field_swap(uint64_t value, int bits)
{
    uint64_t out = 0;
    int i;

    for (i = 0; i < bits; i++)
    {
        out = (out << 1) | ((value >> i) & 1U);
    }
    return out;
}
{{range .Plans}}
{{byteSwap .}}{{if .HasBitField}}
{{bitSwap .}}{{end}}{{end}}`

// byteSwapFunc renders byte_swap_<Name>. Word swaps come first, nested
// structures recurse, and the structure's own bit fields are handed to
// bit_swap_<Name> last.
func byteSwapFunc(p *swap.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "void byte_swap_%s(const %s *in, %s *out, int direction)\n{\n", p.Name, p.Name, p.Name)
	if depth := maxDepth(p.Ops); depth > 0 {
		b.WriteString("    int " + loopVars(depth) + ";\n\n")
	}
	writeCopy(&b, p.Name)
	b.WriteString("    (void) direction;\n")

	for _, op := range p.Ops {
		b.WriteString(opLines(op))
	}
	if p.HasBitField {
		fmt.Fprintf(&b, "    bit_swap_%s(out, out, direction);\n", p.Name)
	}
	b.WriteString("}\n")
	return b.String()
}

// bitSwapFunc renders bit_swap_<Name>. Every storage unit is reflected
// before the members are mirrored when converting to local order, and
// after when converting to foreign order.
func bitSwapFunc(p *swap.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "void bit_swap_%s(const %s *in, %s *out, int direction)\n{\n", p.Name, p.Name, p.Name)
	writeCopy(&b, p.Name)

	for _, g := range p.Groups {
		names := make([]string, 0, len(g.Fields))
		for _, f := range g.Fields {
			names = append(names, f.Field)
		}
		reflect := fmt.Sprintf("        reflect_bits((uint8_t *) out + %d, %d);\n", g.Offset, g.Size)

		fmt.Fprintf(&b, "\n    /* %s storage unit at offset %d: %s */\n", g.CType, g.Offset, strings.Join(names, ", "))
		b.WriteString("    if (direction == SWAP_TO_LOCAL)\n    {\n" + reflect + "    }\n")
		for _, f := range g.Fields {
			if !f.Mirror {
				continue
			}
			fmt.Fprintf(&b, "    out->%s = (%s) bit_field_swap(out->%s, %d);\n", f.Field, g.CType, f.Field, f.Bits)
		}
		b.WriteString("    if (direction == SWAP_TO_FOREIGN)\n    {\n" + reflect + "    }\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func writeCopy(b *strings.Builder, name string) {
	b.WriteString("    if (in != out)\n    {\n")
	fmt.Fprintf(b, "        memcpy(out, in, sizeof(%s));\n", name)
	b.WriteString("    }\n\n")
}

func opLines(op swap.Op) string {
	ref := "out->" + op.Field
	for i := range op.Dims {
		ref += fmt.Sprintf("[i%d]", i)
	}

	var stmt string
	switch op.Kind {
	case swap.Recurse:
		stmt = fmt.Sprintf("byte_swap_%s(&%s, &%s, direction);", op.Structure, ref, ref)
	case swap.Float32, swap.Float64:
		stmt = fmt.Sprintf("%s = %s(%s);", ref, op.Kind, ref)
	default:
		stmt = fmt.Sprintf("%s = (%s) %s(%s);", ref, op.CType, op.Kind, ref)
	}

	if len(op.Dims) == 0 {
		return "    " + stmt + "\n"
	}

	var b strings.Builder
	pad := "    "
	for i, d := range op.Dims {
		fmt.Fprintf(&b, "%sfor (i%d = 0; i%d < %d; i%d++)\n%s{\n", pad, i, i, d, i, pad)
		pad += "    "
	}
	b.WriteString(pad + stmt + "\n")
	for range op.Dims {
		pad = pad[4:]
		b.WriteString(pad + "}\n")
	}
	return b.String()
}

func maxDepth(ops []swap.Op) int {
	depth := 0
	for _, op := range ops {
		depth = max(depth, len(op.Dims))
	}
	return depth
}

func loopVars(n int) string {
	vars := make([]string, n)
	for i := range vars {
		vars[i] = fmt.Sprintf("i%d", i)
	}
	return strings.Join(vars, ", ")
}
