// Package itos writes ITOS record files: telemetry packets and structure
// prototypes, and one software command file per flight computer.
package itos

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Alia5/fswgen/internal/codegen/common"
	"github.com/Alia5/fswgen/internal/codegen/meta"
)

// CommonFileName holds the prototypes of shared structures.
const CommonFileName = "common.rec"

const recTmpl = `{{banner .Tables}}{{range .Blocks}}{{.}}{{end}}`

// TelemetryFileName returns <system>_<BE|LE>.rec.
func TelemetryFileName(md *meta.Metadata) string {
	return md.System + "_" + string(md.ByteOrder) + ".rec"
}

// CommandFileName returns <prefix><system>_CMD_<BE|LE>.rec. The system is
// taken from the first command, falling back to the run's system name.
func CommandFileName(md *meta.Metadata, fc FlightComputer) string {
	system := md.System
	if cmds := md.Dict.Project().Commands; len(cmds) > 0 && cmds[0].System != "" {
		system = cmds[0].System
	}
	return fc.Prefix + system + "_CMD_" + string(md.ByteOrder) + ".rec"
}

// Generate writes the telemetry record files when the dictionary has
// structure rows and a command record file per flight computer when it has
// commands.
func Generate(logger *slog.Logger, outputDir string, md *meta.Metadata) error {
	fcs, err := FlightComputers(md.Dict.Project())
	if err != nil {
		return err
	}
	tables := md.Dict.TableNames()

	if md.Dict.NumStructureRows() > 0 {
		tlm, shared := telemetryBlocks(md, fcs)
		defs, err := definitionBlocks(md, fcs)
		if err != nil {
			return err
		}
		tlm = append(tlm, defs...)
		if err := writeRec(logger, md, filepath.Join(outputDir, TelemetryFileName(md)), tables, tlm); err != nil {
			return err
		}
		if err := writeRec(logger, md, filepath.Join(outputDir, CommonFileName), tables, shared); err != nil {
			return err
		}
	}

	if len(md.Dict.Project().Commands) > 0 {
		for _, fc := range fcs {
			blocks, err := commandBlocks(md, fc)
			if err != nil {
				return err
			}
			if err := writeRec(logger, md, filepath.Join(outputDir, CommandFileName(md, fc)), tables, blocks); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRec(logger *slog.Logger, md *meta.Metadata, out string, tables, blocks []string) error {
	t := template.Must(template.New("rec").Funcs(template.FuncMap{
		"banner": func(tables []string) string { return common.Banner(md.Info, tables) },
	}).Parse(recTmpl))

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	data := struct {
		Tables []string
		Blocks []string
	}{tables, blocks}
	if err := t.Execute(f, data); err != nil {
		return fmt.Errorf("exec rec tmpl: %w", err)
	}
	logger.Info("Generated ITOS record file", "file", out, "definitions", len(blocks))
	return nil
}
