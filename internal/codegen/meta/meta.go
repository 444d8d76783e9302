package meta

import (
	"time"

	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/codegen/swap"
	"github.com/Alia5/fswgen/internal/dictionary"
)

// Metadata is the generation context of one run. It is built once by the
// generator orchestrator after the layout pass and shared read-only with
// every artifact generator.
type Metadata struct {
	Dict      *dictionary.Dictionary
	Layout    *layout.Result
	Swap      *swap.Set
	ByteOrder layout.ByteOrder
	// System is the file name stem of system specific artifacts.
	System string
	Info   Info
}

// Info is written into the creation banner of every artifact.
type Info struct {
	Created time.Time
	User    string
	Project string
	Tool    string
}

// SharedStructures returns the structures referenced by more than one
// structure, in reference order.
func (md *Metadata) SharedStructures() []*layout.Structure {
	var out []*layout.Structure
	for _, s := range md.Layout.Structures {
		if md.Dict.IsShared(s.Name) {
			out = append(out, s)
		}
	}
	return out
}
