package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alia5/fswgen/internal/codegen/generator"
	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/dictionary"
)

type Generate struct {
	Dictionary string        `help:"Dictionary snapshot file (.json, .yaml, .yml or .toml)" required:"" type:"existingfile" env:"FSWGEN_DICTIONARY"`
	Output     string        `help:"Output directory for generated artifacts" default:"./gen" env:"FSWGEN_OUTPUT"`
	Artifact   string        `help:"Artifact to generate: types, swap, shared, msgids, itos, copytable, schedule, startup or 'all'" default:"all" enum:"all,types,swap,shared,msgids,itos,copytable,schedule,startup" env:"FSWGEN_ARTIFACT"`
	Endian     string        `help:"Target byte order of record files: BE or LE" default:"BE" env:"FSWGEN_ENDIAN"`
	System     string        `help:"System name used in file names; defaults to the dictionary's system" env:"FSWGEN_SYSTEM"`
	Watch      bool          `help:"Regenerate whenever the dictionary file changes" env:"FSWGEN_WATCH"`
	Debounce   time.Duration `help:"Quiet period after a dictionary change before regenerating" default:"250ms" env:"FSWGEN_WATCH_DEBOUNCE"`
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger) error {
	if !g.Watch {
		return g.generate(logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return g.watch(ctx, logger)
}

func (g *Generate) watch(ctx context.Context, logger *slog.Logger) error {
	w, err := newDictionaryWatcher(g.Dictionary)
	if err != nil {
		return err
	}
	regenerate := func() error { return g.generate(logger) }
	if err := regenerate(); err != nil {
		logger.Error("Generation failed", "error", err)
	}
	return w.Run(ctx, logger, g.Debounce, regenerate)
}

func (g *Generate) generate(logger *slog.Logger) error {
	order, err := layout.ParseByteOrder(g.Endian)
	if err != nil {
		return err
	}

	logger.Info("Starting artifact generation", "dictionary", g.Dictionary, "output", g.Output, "artifact", g.Artifact, "endian", order)

	d, err := dictionary.Load(g.Dictionary)
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}

	gen := generator.New(g.Output, logger, generator.WithByteOrder(order), generator.WithSystem(g.System))
	md, err := gen.Prepare(d)
	if err != nil {
		return fmt.Errorf("prepare layouts: %w", err)
	}
	if g.Artifact == "all" {
		return gen.GenAll(md)
	}
	return gen.GenerateArtifact(g.Artifact, md)
}
