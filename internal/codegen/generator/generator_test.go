package generator_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/fswgen/internal/codegen/generator"
	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/dictionary"
)

var created = time.Date(2024, time.May, 6, 7, 8, 9, 0, time.UTC)

func logger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func project() *dictionary.Project {
	return &dictionary.Project{
		Project: "demo",
		User:    "ops",
		Structures: []dictionary.Structure{
			{
				Name:   "Telemetry",
				Fields: map[string]string{dictionary.FieldSystem: "hk"},
				Rows: []dictionary.Row{
					{Name: "count", DataType: "uint16_t"},
					{Name: "odd", DataType: "custom_t"},
				},
			},
		},
	}
}

func dict(t *testing.T, p *dictionary.Project) *dictionary.Dictionary {
	t.Helper()
	d, err := dictionary.NewDictionary(p)
	require.NoError(t, err)
	return d
}

func TestPrepare(t *testing.T) {
	g := generator.New(t.TempDir(), logger(), generator.WithClock(func() time.Time { return created }))
	md, err := g.Prepare(dict(t, project()))
	require.NoError(t, err)

	assert.Equal(t, "hk", md.System)
	assert.Equal(t, layout.BigEndian, md.ByteOrder)
	assert.Equal(t, created, md.Info.Created)
	assert.Equal(t, "ops", md.Info.User)
	assert.Equal(t, "demo", md.Info.Project)
	assert.Equal(t, "fswgen 0.0.1-dev", md.Info.Tool)
	assert.NotNil(t, md.Layout)
	assert.NotNil(t, md.Swap)
}

func TestPrepareOptions(t *testing.T) {
	p := project()
	p.Structures[0].Fields = nil
	g := generator.New(t.TempDir(), logger(), generator.WithByteOrder(layout.LittleEndian))
	md, err := g.Prepare(dict(t, p))
	require.NoError(t, err)
	assert.Equal(t, "unknown", md.System)
	assert.Equal(t, layout.LittleEndian, md.ByteOrder)

	g = generator.New(t.TempDir(), logger(), generator.WithSystem("sc"))
	md, err = g.Prepare(dict(t, project()))
	require.NoError(t, err)
	assert.Equal(t, "sc", md.System)
}

func TestGenerateArtifact(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "out")
	g := generator.New(out, logger(), generator.WithClock(func() time.Time { return created }))
	md, err := g.Prepare(dict(t, project()))
	require.NoError(t, err)

	require.NoError(t, g.GenerateArtifact("types", md))
	data, err := os.ReadFile(filepath.Join(out, "hk_types.h"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "custom_t odd;")
	assert.Contains(t, string(data), "   Tool    : fswgen 0.0.1-dev\n")

	err = g.GenerateArtifact("xtce", md)
	assert.ErrorContains(t, err, "unsupported artifact 'xtce'")
}

func TestGenAllJoinsFailures(t *testing.T) {
	out := t.TempDir()
	g := generator.New(out, logger())
	md, err := g.Prepare(dict(t, project()))
	require.NoError(t, err)

	err = g.GenAll(md)
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrNoCommandData)
	assert.ErrorIs(t, err, generator.ErrNoStreamData)
	assert.NotErrorIs(t, err, generator.ErrNoStructureData)
	assert.NotErrorIs(t, err, generator.ErrNoSchedulerData, "optional artifacts are skipped")
	assert.NotErrorIs(t, err, generator.ErrNoStartupData)
	assert.True(t, strings.Contains(err.Error(), "generate msgids"))

	for _, name := range []string{"hk_types.h", "hk_swap.c", "shared_types.h", "hk_BE.rec", "common.rec"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.NoFileExists(t, filepath.Join(out, "hk_msgids.h"))
}

func TestNoStructures(t *testing.T) {
	g := generator.New(t.TempDir(), logger())
	md, err := g.Prepare(dict(t, &dictionary.Project{Project: "empty"}))
	require.NoError(t, err)

	for _, name := range generator.Artifacts {
		err := g.GenerateArtifact(name, md)
		switch name {
		case "copytable":
			assert.ErrorIs(t, err, generator.ErrNoStreamData, name)
		case "schedule":
			assert.ErrorIs(t, err, generator.ErrNoSchedulerData, name)
		case "startup":
			assert.ErrorIs(t, err, generator.ErrNoStartupData, name)
		default:
			assert.ErrorIs(t, err, generator.ErrNoStructureData, name)
		}
	}
}

func TestGenAllOptionalArtifacts(t *testing.T) {
	p := project()
	p.Scheduler = &dictionary.Scheduler{
		Applications: []dictionary.ScheduledApplication{{Name: "hk", MessageIndex: 1}},
		TimeSlots:    []dictionary.TimeSlot{{Applications: []string{"hk"}}},
	}
	p.Startup = []dictionary.StartupEntry{{ModuleType: "CFE_APP", Path: "/cf/hk.so", EntryPoint: "HK_AppMain", Name: "HK", Priority: "64", StackSize: "8192"}}
	out := t.TempDir()
	g := generator.New(out, logger())
	md, err := g.Prepare(dict(t, p))
	require.NoError(t, err)

	_ = g.GenAll(md)
	for _, name := range []string{"sch_def_msgtbl.c", "sch_def_schtbl.c", "cfe_es_startup.scr"} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	p.Scheduler.TimeSlots[0].Applications = []string{"ci"}
	md, err = g.Prepare(dict(t, p))
	require.NoError(t, err)
	err = g.GenAll(md)
	assert.ErrorContains(t, err, "generate schedule: time slot 1: unknown application ci")
}
