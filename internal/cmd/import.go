package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Alia5/fswgen/internal/codegen/scanner"
	"github.com/Alia5/fswgen/internal/configpaths"
	"github.com/Alia5/fswgen/internal/dictionary"
)

type Import struct {
	Header  []string `help:"C header to scan; repeat for several headers" required:"" type:"existingfile" env:"FSWGEN_IMPORT_HEADER"`
	Project string   `help:"Project name recorded in the snapshot" default:"imported" env:"FSWGEN_IMPORT_PROJECT"`
	System  string   `help:"System name recorded in the snapshot" env:"FSWGEN_SYSTEM"`
	Format  string   `help:"Snapshot format" enum:"json,yaml,toml" default:"yaml" env:"FSWGEN_IMPORT_FORMAT"`
	Output  string   `help:"Destination snapshot file; stdout when empty" env:"FSWGEN_IMPORT_OUTPUT"`
	Force   bool     `help:"Overwrite the destination if it exists"`

	stdout io.Writer `kong:"-"`
}

// Run is called by Kong when the import command is executed.
func (c *Import) Run(logger *slog.Logger) error {
	logger.Info("Scanning C headers", "headers", len(c.Header))

	h, err := scanner.ScanFiles(c.Header)
	if err != nil {
		return err
	}
	for _, name := range h.HeaderStructures {
		logger.Warn("Dropped CCSDS header members; set the Message ID data field to restore them", "structure", name)
	}
	for _, t := range h.UndefinedTypes {
		logger.Warn("Member type is neither a primitive nor a scanned structure", "type", t)
	}
	logger.Info("Scanned structures", "structures", len(h.Structures), "macros", len(h.Macros))

	p := h.Project(c.Project, c.System)
	format := dictionary.Format(normalizeFormat(c.Format))
	if format == "" {
		return fmt.Errorf("unsupported format: %s", c.Format)
	}

	if c.Output == "" {
		w := c.stdout
		if w == nil {
			w = os.Stdout
		}
		return dictionary.Encode(w, p, format)
	}

	if !c.Force {
		if _, err := os.Stat(c.Output); err == nil {
			return fmt.Errorf("destination %s exists; use --force to overwrite", c.Output)
		}
	}
	if err := configpaths.EnsureDir(c.Output); err != nil {
		return err
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("create %s: %w", c.Output, err)
	}
	defer f.Close()
	if err := dictionary.Encode(f, p, format); err != nil {
		return fmt.Errorf("encode %s: %w", c.Output, err)
	}
	logger.Info("Wrote dictionary snapshot", "file", c.Output, "format", format)
	return nil
}
