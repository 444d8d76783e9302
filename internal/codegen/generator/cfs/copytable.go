package cfs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/Alia5/fswgen/internal/codegen/common"
	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/codegen/meta"
)

const (
	// TableEntries is HK_COPY_TABLE_ENTRIES, the fixed copy table length.
	TableEntries = 1800
	// UndefinedEntry fills unused copy table rows.
	UndefinedEntry = "HK_UNDEFINED_ENTRY"

	CopyTableFileName = "hk_cpy_tbl.c"
	PacketIDsBase     = "combined_pkt_ids"
)

const copyTableTmpl = `{{banner .Tables}}
#include "cfe.h"
#include "hk_utils.h"
#include "hk_app.h"
#include "hk_msgids.h"
#include "hk_tbldefs.h"
#include "cfe_tbl_filedef.h"

{{range .Includes}}{{.}}
{{end}}{{if .Includes}}
{{end}}hk_copy_table_entry_t HK_CopyTable[HK_COPY_TABLE_ENTRIES] =
{
{{range .Rows}}{{.}}
{{end}}};

CFE_TBL_FILEDEF(HK_CopyTable, HK.CopyTable, HK Copy Tbl, hk_cpy_tbl.tbl)
`

const packetIDsTmpl = `{{banner .Tables}}
#ifndef {{guard .Base}}
#define {{guard .Base}}

{{range .Includes}}{{.}}
{{end}}{{if .Includes}}
{{end}}{{range .Defines}}{{.}}
{{end}}
#endif  /* {{guard .Base}} */
`

// GenerateCopyTable writes hk_cpy_tbl.c with the entries of every data
// stream and combined_pkt_ids.h with the stream message IDs.
func GenerateCopyTable(logger *slog.Logger, outputDir string, md *meta.Metadata) error {
	var entries []Entry
	for _, stream := range md.Dict.DataStreamNames() {
		e, err := StreamEntries(md.Dict, stream, layout.CCSDSHeaderSize)
		if err != nil {
			return err
		}
		logger.Debug("Copy table entries", "stream", stream, "entries", len(e))
		entries = append(entries, e...)
	}
	if len(entries) > TableEntries {
		logger.Warn("Copy table full, dropping entries", "entries", len(entries), "capacity", TableEntries)
		entries = entries[:TableEntries]
	}

	tables := md.Dict.TableNames()
	includes := md.Dict.Project().Includes

	table := struct {
		Tables   []string
		Includes []string
		Rows     []string
	}{tables, includes, TableRows(entries)}
	if err := render(logger, md, filepath.Join(outputDir, CopyTableFileName), copyTableTmpl, table); err != nil {
		return err
	}

	ids := struct {
		Tables   []string
		Base     string
		Includes []string
		Defines  []string
	}{tables, PacketIDsBase, includes, PacketIDDefines(TelemetryMessageIDs(md.Dict))}
	return render(logger, md, filepath.Join(outputDir, PacketIDsBase+".h"), packetIDsTmpl, ids)
}

// TableRows renders the two column header rows followed by one row per
// entry and the HK_UNDEFINED_ENTRY padding up to TableEntries rows. The
// last row of the table has no trailing comma.
func TableRows(entries []Entry) []string {
	width := [5]int{10, 6, 10, 6, 5}
	for _, e := range entries {
		for i, c := range e.Columns() {
			width[i] = max(width[i], len(c))
		}
	}
	if len(entries) < TableEntries {
		width[0] = max(width[0], len(UndefinedEntry))
		width[2] = max(width[2], len(UndefinedEntry))
	}

	header := func(c [5]string) string {
		return fmt.Sprintf("/* %-*s| %-*s| %-*s| %-*s| %-*s */",
			width[0], c[0], width[1], c[1], width[2], c[2], width[3], c[3], width[4], c[4])
	}
	body := func(c [5]string, index int) string {
		comma := ","
		if index == TableEntries {
			comma = " "
		}
		return fmt.Sprintf("  {%-*s, %*s, %-*s, %*s, %*s}%s  /* (%*d)",
			width[0], c[0], width[1], c[1], width[2], c[2], width[3], c[3], width[4], c[4],
			comma, len(strconv.Itoa(TableEntries)), index)
	}

	rows := []string{
		header([5]string{"Input", "Input", "Output", "Output", "Num"}),
		header([5]string{"Message ID", "Offset", "Message ID", "Offset", "Bytes"}),
	}
	index := 1
	for _, e := range entries {
		rows = append(rows, body(e.Columns(), index)+" "+e.Root+" : "+e.Path+" */")
		index++
	}
	for ; index <= TableEntries; index++ {
		rows = append(rows, body([5]string{UndefinedEntry, "0", UndefinedEntry, "0", "0"}, index)+" */")
	}
	return rows
}

// PacketIDDefines renders the combined packet ID defines, offset by the
// flight computer's FC_OFFSET.
func PacketIDDefines(ids []MessageID) []string {
	width := 1
	for _, id := range ids {
		width = max(width, len(id.Name))
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("#define %-*s  (%7s + FC_OFFSET )", width, id.Name, id.ID))
	}
	return out
}

func render(logger *slog.Logger, md *meta.Metadata, out, tmpl string, data any) error {
	t := template.Must(template.New(filepath.Base(out)).Funcs(template.FuncMap{
		"banner": func(tables []string) string { return common.Banner(md.Info, tables) },
		"guard":  common.IncludeGuard,
		"lower":  strings.ToLower,
	}).Parse(tmpl))

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	if err := t.Execute(f, data); err != nil {
		return fmt.Errorf("exec %s tmpl: %w", filepath.Base(out), err)
	}
	logger.Info("Generated CFS table file", "file", out)
	return nil
}
