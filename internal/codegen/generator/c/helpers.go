package cgen

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/Alia5/fswgen/internal/codegen/common"
	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/dictionary"
)

func tplFuncs(md *meta.Metadata) template.FuncMap {
	return template.FuncMap{
		"banner":      func(tables []string) string { return common.Banner(md.Info, tables) },
		"guard":       common.IncludeGuard,
		"upper":       strings.ToUpper,
		"indent":      indent,
		"structBlock": func(s *layout.Structure) string { return structBlock(md, s) },
		"hasBits":     md.Layout.HasBitField,
		"byteSwap":    byteSwapFunc,
		"bitSwap":     bitSwapFunc,
		"includes":    func() string { return includeLines(md, "<stdint.h>") },
		"pointers":    pointerTypedefs,
	}
}

// pointerTypedefs declares the unsigned integer behind each pointer data
// type the structures use, so that members like "address buffer" compile
// with the size the layout gave them.
func pointerTypedefs(structures []*layout.Structure) string {
	var lines []string
	seen := make(map[string]bool)
	for _, s := range structures {
		for _, f := range s.Fields {
			var dt dictionary.DataType
			switch f := f.(type) {
			case *layout.Scalar:
				dt = f.Type
			case *layout.Array:
				dt = f.Element
			default:
				continue
			}
			if dt.Base != dictionary.Pointer || seen[dt.Name] {
				continue
			}
			switch dt.Size {
			case 1, 2, 4, 8:
			default:
				continue
			}
			seen[dt.Name] = true
			lines = append(lines, fmt.Sprintf("typedef uint%d_t %s;", dt.Bits(), dt.Name))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n/* Pointer types */\n" + strings.Join(lines, "\n") + "\n"
}

// includeLines renders the project's header and include lines. Headers
// named in always are emitted first unless the project lists them itself.
func includeLines(md *meta.Metadata, always ...string) string {
	p := md.Dict.Project()
	var lines []string
	listed := make(map[string]bool, len(p.Headers))
	for _, h := range p.Headers {
		listed[strings.TrimSpace(h)] = true
	}
	for _, h := range always {
		if !listed[h] {
			lines = append(lines, "#include "+h)
		}
	}
	for _, h := range p.Headers {
		lines = append(lines, "#include "+strings.TrimSpace(h))
	}
	lines = append(lines, p.Includes...)
	return strings.Join(lines, "\n")
}

// structBlock renders one annotated typedef. Each member is followed by a
// comment with its byte offset, size, stream rates and description, all
// starting at the structure's definition width.
func structBlock(md *meta.Metadata, s *layout.Structure) string {
	var b strings.Builder
	b.WriteString("/* Structure: " + s.Name + " (" + strconv.Itoa(s.TotalSize) + " bytes total)")
	if s.Description != "" {
		b.WriteString("\n   Description: " + s.Description)
	}
	b.WriteString(" */\n")
	b.WriteString("typedef struct\n{\n")
	for _, f := range s.Fields {
		b.WriteString(memberLine(md, s.DefinitionWidth, f))
		b.WriteByte('\n')
	}
	b.WriteString(common.PadRight("} "+s.Name+";", s.DefinitionWidth))
	b.WriteString(" /* Total size of " + strconv.Itoa(s.TotalSize) + " bytes */\n")
	return b.String()
}

func memberLine(md *meta.Metadata, width int, f layout.Field) string {
	info := f.Info()
	decl := common.PadRight("   "+f.Declaration()+";", width)

	var text string
	if info.Synthetic {
		text = "(" + strconv.Itoa(f.ByteSize()) + " bytes)  " + info.Comment
	} else {
		text = strings.TrimSpace(sizeText(f) + rateText(md, info.Rates) + "  " + info.Description)
	}
	return fmt.Sprintf("%s /* [%5d] %s */", decl, info.Offset, text)
}

func sizeText(f layout.Field) string {
	switch f := f.(type) {
	case *layout.BitField:
		return ""
	case *layout.Array:
		return "(" + f.SizeText() + ")"
	default:
		return "(" + strconv.Itoa(f.ByteSize()) + " bytes)"
	}
}

// rateText lists the member's rate in every data stream, declared streams
// first.
func rateText(md *meta.Metadata, rates map[string]string) string {
	if len(rates) == 0 {
		return ""
	}
	var b strings.Builder
	seen := make(map[string]bool, len(rates))
	write := func(stream string) {
		if seen[stream] {
			return
		}
		seen[stream] = true
		if r := strings.TrimSpace(rates[stream]); r != "" {
			b.WriteString("{" + stream + " @" + r + " Hz}")
		}
	}
	for _, stream := range md.Dict.DataStreamNames() {
		write(stream)
	}
	for _, stream := range common.SortedKeys(rates) {
		write(stream)
	}
	return b.String()
}

func indent(spaces int, s string) string {
	prefix := strings.Repeat(" ", spaces)
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		if p != "" {
			parts[i] = prefix + p
		}
	}
	return strings.Join(parts, "\n")
}
