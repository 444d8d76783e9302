package cfs

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/dictionary"
)

const StartupFileName = "cfe_es_startup.scr"

const startupTmpl = `{{banner .Tables}}
{{range .Rows}}{{.}}
{{end}}`

var moduleTypes = map[string]bool{"CFE_APP": true, "CFE_LIB": true}

// StartupRows renders the two column title rows and one aligned row per
// start-up script entry. Columns widen to their longest value.
func StartupRows(entries []dictionary.StartupEntry) ([]string, error) {
	width := [6]int{7, 6, 5, 4, 8, 5}
	cols := make([][7]string, 0, len(entries))
	for i, e := range entries {
		if !moduleTypes[e.ModuleType] {
			return nil, fmt.Errorf("start-up entry %d: unknown module type %q", i+1, e.ModuleType)
		}
		if e.Path == "" || e.EntryPoint == "" || e.Name == "" {
			return nil, fmt.Errorf("start-up entry %d: path, entry point and name are required", i+1)
		}
		c := [7]string{e.ModuleType, e.Path, e.EntryPoint, e.Name, e.Priority, e.StackSize, e.ExceptionAction}
		if c[6] == "" {
			c[6] = "0"
		}
		for j := range width {
			width[j] = max(width[j], len(c[j]))
		}
		cols = append(cols, c)
	}

	row := func(open, sep, end string, c [8]string) string {
		return strings.TrimRight(fmt.Sprintf("%s%-*s %s %-*s %s %-*s %s %-*s %s %-*s %s %-*s %s %-6s %s %s",
			open, width[0], c[0], sep, width[1], c[1], sep, width[2], c[2], sep, width[3], c[3], sep,
			width[4], c[4], sep, width[5], c[5], sep, c[6], sep, c[7]), " ") + end
	}
	rows := []string{
		row("/* ", "|", " */", [8]string{"Module", "Path &", "Entry", "cFE", "Priority", "Stack", "Unused", "Exception"}),
		row("/* ", "|", " */", [8]string{"Type", "File", "Point", "Name", "", "Size", "", "Action"}),
	}
	for _, c := range cols {
		rows = append(rows, row("   ", ",", ";", [8]string{c[0], c[1], c[2], c[3], c[4], c[5], "0x0", c[6]}))
	}
	return rows, nil
}

// GenerateStartup writes the cFE ES start-up script.
func GenerateStartup(logger *slog.Logger, outputDir string, md *meta.Metadata) error {
	rows, err := StartupRows(md.Dict.Project().Startup)
	if err != nil {
		return err
	}
	data := struct {
		Tables []string
		Rows   []string
	}{nil, rows}
	return render(logger, md, filepath.Join(outputDir, StartupFileName), startupTmpl, data)
}
