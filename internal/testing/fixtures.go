// Package testing holds fixtures shared by the generator tests.
package testing

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/codegen/swap"
	"github.com/Alia5/fswgen/internal/dictionary"
)

// Created is the fixed creation time stamped into fixture banners.
var Created = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Metadata indexes p and runs the layout and swap passes the way
// generator.Prepare does, with system "sc" and a fixed banner.
func Metadata(t *testing.T, p *dictionary.Project, order layout.ByteOrder) *meta.Metadata {
	t.Helper()
	d, err := dictionary.NewDictionary(p)
	require.NoError(t, err)
	res, err := layout.Build(d)
	require.NoError(t, err)
	return &meta.Metadata{
		Dict:      d,
		Layout:    res,
		Swap:      swap.Build(res),
		ByteOrder: order,
		System:    "sc",
		Info:      meta.Info{Created: Created, User: p.User, Project: p.Project, Tool: "fswgen test"},
	}
}

// Generate runs gen into a fresh temporary directory and returns it.
func Generate(t *testing.T, gen func(*slog.Logger, string, *meta.Metadata) error, md *meta.Metadata) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, gen(Discard(), dir, md))
	return dir
}

// ReadFile returns the content of name in dir.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}
