package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Alia5/fswgen/internal/codegen/common"
	cgen "github.com/Alia5/fswgen/internal/codegen/generator/c"
	"github.com/Alia5/fswgen/internal/codegen/generator/cfs"
	"github.com/Alia5/fswgen/internal/codegen/generator/itos"
	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/codegen/swap"
	"github.com/Alia5/fswgen/internal/dictionary"
)

var (
	ErrNoStructureData = errors.New("no structure data supplied")
	ErrNoCommandData   = errors.New("no command data supplied")
	ErrNoStreamData    = errors.New("no data stream supplied")
	ErrNoSchedulerData = errors.New("no scheduler data supplied")
	ErrNoStartupData   = errors.New("no start-up script data supplied")
)

// ArtifactGenerator writes one artifact family into outputDir.
type ArtifactGenerator func(logger *slog.Logger, outputDir string, md *meta.Metadata) error

type artifact struct {
	gen      ArtifactGenerator
	requires func(md *meta.Metadata) error
	// optional artifacts are skipped by GenAll when their data is missing.
	optional bool
}

var generators = map[string]artifact{
	"types":     {gen: cgen.GenerateTypes, requires: needStructures},
	"swap":      {gen: cgen.GenerateSwap, requires: needStructures},
	"shared":    {gen: cgen.GenerateShared, requires: needStructures},
	"msgids":    {gen: cgen.GenerateMsgIDs, requires: needCommands},
	"itos":      {gen: itos.Generate, requires: needStructuresOrCommands},
	"copytable": {gen: cfs.GenerateCopyTable, requires: needStreams},
	"schedule":  {gen: cfs.GenerateSchedule, requires: needScheduler, optional: true},
	"startup":   {gen: cfs.GenerateStartup, requires: needStartup, optional: true},
}

// Artifacts lists the artifact names in generation order.
var Artifacts = []string{"types", "swap", "shared", "msgids", "itos", "copytable", "schedule", "startup"}

func needStructures(md *meta.Metadata) error {
	if md.Dict.NumStructureRows() == 0 {
		return ErrNoStructureData
	}
	return nil
}

func needCommands(md *meta.Metadata) error {
	if err := needStructures(md); err != nil {
		return err
	}
	if len(md.Dict.Project().Commands) == 0 {
		return ErrNoCommandData
	}
	return nil
}

func needStructuresOrCommands(md *meta.Metadata) error {
	if md.Dict.NumStructureRows() == 0 && len(md.Dict.Project().Commands) == 0 {
		return fmt.Errorf("%w or commands", ErrNoStructureData)
	}
	return nil
}

func needStreams(md *meta.Metadata) error {
	if len(md.Dict.Project().Streams) == 0 {
		return ErrNoStreamData
	}
	return nil
}

func needScheduler(md *meta.Metadata) error {
	if md.Dict.Project().Scheduler == nil {
		return ErrNoSchedulerData
	}
	return nil
}

func needStartup(md *meta.Metadata) error {
	if len(md.Dict.Project().Startup) == 0 {
		return ErrNoStartupData
	}
	return nil
}

type Generator struct {
	outputDir string
	logger    *slog.Logger
	byteOrder layout.ByteOrder
	system    string
	now       func() time.Time
}

// Option customizes a Generator.
type Option func(*Generator)

// WithByteOrder selects the target byte order of record files.
func WithByteOrder(o layout.ByteOrder) Option {
	return func(g *Generator) { g.byteOrder = o }
}

// WithSystem overrides the system name used in file names.
func WithSystem(name string) Option {
	return func(g *Generator) { g.system = name }
}

// WithClock replaces the creation time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func New(outputDir string, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		outputDir: outputDir,
		logger:    logger,
		byteOrder: layout.BigEndian,
		now:       time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Prepare runs the layout pass for every structure, then derives the swap
// plans, and returns the context shared by all artifact generators.
func (g *Generator) Prepare(d *dictionary.Dictionary) (*meta.Metadata, error) {
	g.logger.Debug("Computing structure layouts", "structures", len(d.StructuresByReferenceOrder()))
	res, err := layout.Build(d)
	if err != nil {
		return nil, err
	}
	for _, s := range res.Structures {
		for _, t := range s.UnknownTypes {
			g.logger.Debug("Unknown data type passed through", "structure", s.Name, "type", t)
		}
	}

	system := g.system
	if system == "" {
		system = d.SystemName()
	}
	if system == "" {
		system = "unknown"
	}

	version, err := common.GetVersion()
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}

	md := &meta.Metadata{
		Dict:      d,
		Layout:    res,
		Swap:      swap.Build(res),
		ByteOrder: g.byteOrder,
		System:    system,
		Info: meta.Info{
			Created: g.now(),
			User:    d.Project().User,
			Project: d.Project().Project,
			Tool:    "fswgen " + version,
		},
	}
	return md, nil
}

// GenAll writes every artifact. A failing artifact does not stop the
// others; all failures are returned joined. Optional artifacts without
// data are skipped.
func (g *Generator) GenAll(md *meta.Metadata) error {
	var errs []error
	for _, name := range Artifacts {
		if a := generators[name]; a.optional {
			if err := a.requires(md); err != nil {
				g.logger.Info("Skipping artifact", "artifact", name, "reason", err)
				continue
			}
		}
		if err := g.GenerateArtifact(name, md); err != nil {
			g.logger.Error("Artifact generation failed", "artifact", name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Generator) GenerateArtifact(name string, md *meta.Metadata) error {
	a, ok := generators[name]
	if !ok {
		return fmt.Errorf("unsupported artifact '%s' (supported: %v)", name, Artifacts)
	}
	if err := a.requires(md); err != nil {
		return fmt.Errorf("generate %s: %w", name, err)
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	g.logger.Info("Generating artifact", "artifact", name)
	if err := a.gen(g.logger, g.outputDir, md); err != nil {
		return fmt.Errorf("generate %s: %w", name, err)
	}
	g.logger.Info("Artifact generation complete", "artifact", name, "output", g.outputDir)
	return nil
}
