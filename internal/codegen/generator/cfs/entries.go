// Package cfs writes the CFS housekeeping copy table and the combined
// packet ID header built from the data stream messages.
package cfs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/fswgen/internal/dictionary"
)

// Entry is one row of the housekeeping copy table. Root and Path locate the
// copied variable; Path is the variable path below Root.
type Entry struct {
	InputMsgID   string
	InputOffset  int
	OutputMsgID  string
	OutputOffset int
	Bytes        int
	Root         string
	Path         string
}

// Columns returns the five table columns as printed.
func (e Entry) Columns() [5]string {
	return [5]string{
		e.InputMsgID,
		strconv.Itoa(e.InputOffset),
		e.OutputMsgID,
		strconv.Itoa(e.OutputOffset),
		strconv.Itoa(e.Bytes),
	}
}

// MessageID is a telemetry message name and ID pair.
type MessageID struct {
	Name string
	ID   string
}

// TelemetryMessageIDs returns the named messages of every stream that carry
// an ID, without repeating a name. Names use '_' in place of '.'.
func TelemetryMessageIDs(d *dictionary.Dictionary) []MessageID {
	var out []MessageID
	seen := make(map[string]bool)
	for _, stream := range d.Project().Streams {
		for _, m := range stream.Messages {
			name := strings.ReplaceAll(m.Name, ".", "_")
			if name == "" || m.ID == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, MessageID{Name: name, ID: m.ID})
		}
	}
	return out
}

// StreamEntries builds the copy table rows of one data stream. Variables
// whose root structure has no Message ID Name are skipped. Each message is
// combined and offset on its own.
func StreamEntries(d *dictionary.Dictionary, stream string, headerSize int) ([]Entry, error) {
	s, ok := d.Stream(stream)
	if !ok {
		return nil, fmt.Errorf("data stream %s: %w", stream, dictionary.ErrNotFound)
	}

	var table []Entry
	for _, m := range s.Messages {
		var entries []Entry
		for _, v := range m.Variables {
			root, path, _ := strings.Cut(v, ",")
			inputID := d.FieldValue(root, dictionary.FieldMessageIDName)
			if inputID == "" {
				continue
			}
			off, err := d.VariableOffset(v)
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", m.Name, err)
			}
			size, err := d.VariableSize(v)
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", m.Name, err)
			}
			entries = append(entries, Entry{
				InputMsgID:  inputID,
				InputOffset: off,
				OutputMsgID: strings.ReplaceAll(m.Name, ".", "_"),
				Bytes:       size,
				Root:        root,
				Path:        path,
			})
		}
		entries = CombineBitPacked(entries)
		entries = CombineMemoryCopies(entries)
		AddOffsets(entries, headerSize)
		table = append(table, entries...)
	}
	return table, nil
}

// CombineBitPacked folds bit-field variables that share the input offset of
// the preceding kept entry into that entry. Sizes are not added since the
// variables occupy the same storage unit.
func CombineBitPacked(entries []Entry) []Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if n := len(out); n > 0 {
			initial := &out[n-1]
			if strings.Contains(e.Path, ":") && e.InputOffset == initial.InputOffset && e.Root == initial.Root {
				initial.Path += " + " + e.Path
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// CombineMemoryCopies merges entries of the same root structure that
// continue exactly where the preceding kept entry ends.
func CombineMemoryCopies(entries []Entry) []Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if n := len(out); n > 0 {
			initial := &out[n-1]
			if e.Root == initial.Root && e.InputOffset == initial.InputOffset+initial.Bytes {
				initial.Bytes += e.Bytes
				initial.Path += "; " + e.Path
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// AddOffsets shifts input offsets past the message header and assigns
// consecutive output offsets starting after it.
func AddOffsets(entries []Entry, headerSize int) {
	out := headerSize
	for i := range entries {
		entries[i].InputOffset += headerSize
		entries[i].OutputOffset = out
		out += entries[i].Bytes
	}
}
