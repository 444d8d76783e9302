package cgen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/codegen/swap"
	"github.com/Alia5/fswgen/internal/dictionary"
)

// SharedTypesBase is the base name of the shared structure header.
const SharedTypesBase = "shared_types"

// TypesHeaderName returns the file name of the system types header.
func TypesHeaderName(md *meta.Metadata) string { return md.System + "_types.h" }

// GenerateTypes writes <system>_types.h: every structure as an annotated
// packed typedef followed by the swap procedure prototypes.
func GenerateTypes(logger *slog.Logger, outputDir string, md *meta.Metadata) error {
	data := struct {
		Base       string
		Tables     []string
		Structures []*layout.Structure
	}{
		Base:       md.System + "_types",
		Tables:     md.Dict.StructuresByReferenceOrder(),
		Structures: md.Layout.Structures,
	}
	return render(logger, md, filepath.Join(outputDir, TypesHeaderName(md)), typesHeaderTmpl, data)
}

// GenerateSwap writes <system>_swap.c with the swap support routines and
// one byte_swap_ (plus bit_swap_ where needed) per structure.
func GenerateSwap(logger *slog.Logger, outputDir string, md *meta.Metadata) error {
	data := struct {
		Tables      []string
		TypesHeader string
		Plans       []*swap.Plan
	}{
		Tables:      md.Dict.StructuresByReferenceOrder(),
		TypesHeader: TypesHeaderName(md),
		Plans:       md.Swap.Plans,
	}
	return render(logger, md, filepath.Join(outputDir, md.System+"_swap.c"), swapSourceTmpl, data)
}

// GenerateShared writes shared_types.h with the structures referenced by
// more than one structure.
func GenerateShared(logger *slog.Logger, outputDir string, md *meta.Metadata) error {
	shared := md.SharedStructures()
	if len(shared) == 0 {
		logger.Debug("No shared structures found")
	}
	data := struct {
		Base       string
		Tables     []string
		Structures []*layout.Structure
	}{
		Base:       SharedTypesBase,
		Tables:     md.Dict.TableNames(),
		Structures: shared,
	}
	return render(logger, md, filepath.Join(outputDir, SharedTypesBase+".h"), sharedHeaderTmpl, data)
}

type defineSection struct {
	Title   string
	Defines []string
}

// GenerateMsgIDs writes <system>_msgids.h with the telemetry and command
// message IDs and the command codes.
func GenerateMsgIDs(logger *slog.Logger, outputDir string, md *meta.Metadata) error {
	type define struct{ name, value string }
	var tlm, cmd, codes []define

	for _, name := range md.Dict.StructuresByReferenceOrder() {
		id := md.Dict.FieldValue(name, dictionary.FieldMessageID)
		idName := md.Dict.FieldValue(name, dictionary.FieldMessageIDName)
		if id != "" && idName != "" {
			tlm = append(tlm, define{idName, id})
		}
	}
	seen := make(map[string]bool)
	for _, c := range md.Dict.Project().Commands {
		if c.MessageIDName != "" && c.MessageID != "" && !seen[c.MessageIDName] {
			seen[c.MessageIDName] = true
			cmd = append(cmd, define{c.MessageIDName, c.MessageID})
		}
		if c.Code != "" {
			codes = append(codes, define{c.Name + "_CC", c.Code})
		}
	}

	width := 1
	for _, group := range [][]define{tlm, cmd, codes} {
		for _, d := range group {
			width = max(width, len(d.name))
		}
	}
	var sections []defineSection
	for _, s := range []struct {
		title string
		defs  []define
	}{
		{"Telemetry message IDs", tlm},
		{"Command message IDs", cmd},
		{"Command codes", codes},
	} {
		if len(s.defs) == 0 {
			continue
		}
		sec := defineSection{Title: s.title}
		for _, d := range s.defs {
			sec.Defines = append(sec.Defines, fmt.Sprintf("#define %-*s  %s", width, d.name, d.value))
		}
		sections = append(sections, sec)
	}

	data := struct {
		Base     string
		Tables   []string
		Includes string
		Sections []defineSection
	}{
		Base:     md.System + "_msgids",
		Tables:   md.Dict.TableNames(),
		Includes: includeLines(md),
		Sections: sections,
	}
	return render(logger, md, filepath.Join(outputDir, md.System+"_msgids.h"), msgIDHeaderTmpl, data)
}

func render(logger *slog.Logger, md *meta.Metadata, out, tmpl string, data any) error {
	t := template.Must(template.New(filepath.Base(out)).Funcs(tplFuncs(md)).Parse(tmpl))
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	if err := t.Execute(f, data); err != nil {
		return fmt.Errorf("exec %s tmpl: %w", filepath.Base(out), err)
	}
	logger.Info("Generated C file", "file", out)
	return nil
}
