package cfs

import (
	"cmp"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/dictionary"
)

const (
	MessageTableFileName  = "sch_def_msgtbl.c"
	ScheduleTableFileName = "sch_def_schtbl.c"

	DefaultEntriesPerSlot = 5
	DefaultMessages       = 128

	unusedMID   = "SCH_UNUSED_MID"
	groupNone   = "SCH_GROUP_NONE"
	unusedEntry = "{SCH_UNUSED, 0, 0, 0, 0, SCH_GROUP_NONE}"
)

const schIncludes = `#include "cfe.h"
#include "cfe_tbl_filedef.h"
#include "sch_platform_cfg.h"
#include "sch_msgdefs.h"
#include "sch_tbldefs.h"
`

const messageTableTmpl = `{{banner .Tables}}
` + schIncludes + `
{{range .Applications}}#include "{{lower .Name}}_msids.h"
{{end}}
/*
** Default message table data
*/
SCH_MessageEntry_t SCH_DefaultMessageTable[SCH_MAX_MESSAGES] =
{
{{range .Messages}}{{.}}
{{end}}};

CFE_TBL_FILEDEF(SCH_DefaultMessageTable, SCH_APP.MSG_DEFS, SCH message table, sch_def_msgtbl.tbl)
`

const scheduleTableTmpl = `{{banner .Tables}}
` + schIncludes + `
{{range .Defines}}{{.}}
{{end}}
/*
** Table file header
*/
static CFE_TBL_FileDef_t CFE_TBL_FileDef =
{
  "SCH_DefaultScheduleTable",
  "SCH_APP.SCHED_DEF",
  "SCH schedule table",
  "sch_def_schtbl.tbl",
  sizeof (SCH_ScheduleEntry_t) * SCH_TABLE_ENTRIES
};

/*
** Default schedule table data
*/
SCH_ScheduleEntry_t SCH_DefaultScheduleTable[SCH_TABLE_ENTRIES] =
{
/*
**    uint8     EnableState  -- SCH_UNUSED, SCH_ENABLED
**    uint8     Type         -- 0 or SCH_ACTIVITY_SEND_MSG
**    uint16    Frequency    -- how many seconds between Activity execution
**    uint16    Remainder    -- seconds offset to perform Activity
**    uint16    MessageIndex -- Message index into Message Definition table
**    uint32    GroupData    -- Group and Multi-Group membership definitions
*/
{{range .Slots}}
{{.}}{{end}}};
`

// Schedule is a validated scheduler definition.
type Schedule struct {
	EntriesPerSlot int
	Messages       int
	Applications   []dictionary.ScheduledApplication
	// Slots holds the applications of every time slot in wake-up order.
	Slots [][]dictionary.ScheduledApplication
}

// NewSchedule applies the defaults and checks that every time slot fits
// and names known applications, and that message indexes are unique and
// inside the message table. Index 0 is reserved for the unused entry.
func NewSchedule(s *dictionary.Scheduler) (*Schedule, error) {
	sch := &Schedule{
		EntriesPerSlot: cmp.Or(s.EntriesPerSlot, DefaultEntriesPerSlot),
		Messages:       cmp.Or(s.Messages, DefaultMessages),
	}
	if sch.EntriesPerSlot < 0 || sch.Messages < 0 {
		return nil, fmt.Errorf("negative scheduler table size")
	}
	if len(s.TimeSlots) == 0 {
		return nil, fmt.Errorf("scheduler has no time slots")
	}

	byName := make(map[string]dictionary.ScheduledApplication, len(s.Applications))
	byIndex := make(map[int]string, len(s.Applications))
	for _, a := range s.Applications {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("scheduled application without a name")
		}
		if _, dup := byName[a.Name]; dup {
			return nil, fmt.Errorf("duplicate scheduled application %s", a.Name)
		}
		if a.MessageIndex < 1 || a.MessageIndex >= sch.Messages {
			return nil, fmt.Errorf("application %s: message index %d outside 1..%d", a.Name, a.MessageIndex, sch.Messages-1)
		}
		if other, dup := byIndex[a.MessageIndex]; dup {
			return nil, fmt.Errorf("application %s: message index %d already used by %s", a.Name, a.MessageIndex, other)
		}
		a.WakeUpMID = cmp.Or(strings.TrimSpace(a.WakeUpMID), strings.ToUpper(a.Name)+"_WAKEUP_MID")
		a.Group = cmp.Or(strings.TrimSpace(a.Group), groupNone)
		byName[a.Name] = a
		byIndex[a.MessageIndex] = a.Name
		sch.Applications = append(sch.Applications, a)
	}

	for i, slot := range s.TimeSlots {
		if len(slot.Applications) > sch.EntriesPerSlot {
			return nil, fmt.Errorf("time slot %d: %d applications, at most %d entries per slot", i+1, len(slot.Applications), sch.EntriesPerSlot)
		}
		apps := make([]dictionary.ScheduledApplication, 0, len(slot.Applications))
		for _, name := range slot.Applications {
			a, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("time slot %d: unknown application %s", i+1, name)
			}
			apps = append(apps, a)
		}
		slices.SortStableFunc(apps, func(a, b dictionary.ScheduledApplication) int {
			return cmp.Compare(a.Priority, b.Priority)
		})
		sch.Slots = append(sch.Slots, apps)
	}
	return sch, nil
}

// MessageRows renders one message table entry per index; the last has no
// trailing comma.
func (s *Schedule) MessageRows() []string {
	mids := make(map[int]string, len(s.Applications))
	for _, a := range s.Applications {
		mids[a.MessageIndex] = a.WakeUpMID
	}
	rows := make([]string, 0, s.Messages)
	for i := 0; i < s.Messages; i++ {
		entry := "  { { " + unusedMID + " } }"
		if mid, ok := mids[i]; ok {
			entry = "  { {" + mid + ", 0xC000, 0x0001, 0x0000} }"
		}
		if i < s.Messages-1 {
			entry += ","
		}
		rows = append(rows, fmt.Sprintf("/* command ID #%2d  */\n%s", i, entry))
	}
	return rows
}

// IndexName is the define naming an application's message index.
func IndexName(a dictionary.ScheduledApplication) string {
	return strings.ToUpper(a.Name) + "_WAKEUP_INDEX"
}

// Defines renders the message index defines ordered by index.
func (s *Schedule) Defines() []string {
	apps := slices.Clone(s.Applications)
	slices.SortFunc(apps, func(a, b dictionary.ScheduledApplication) int {
		return cmp.Compare(a.MessageIndex, b.MessageIndex)
	})
	width := 12
	for _, a := range apps {
		width = max(width, len(IndexName(a)))
	}
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, fmt.Sprintf("#define %-*s %d", width, IndexName(a), a.MessageIndex))
	}
	return out
}

// SlotRows renders every time slot padded to EntriesPerSlot entries. The
// last entry of the table has no trailing comma.
func (s *Schedule) SlotRows() []string {
	rows := make([]string, 0, len(s.Slots))
	for i, apps := range s.Slots {
		var b strings.Builder
		fmt.Fprintf(&b, "/* slot #%2d  */\n", i+1)
		for j := 0; j < s.EntriesPerSlot; j++ {
			entry := unusedEntry
			if j < len(apps) {
				entry = fmt.Sprintf("{SCH_ENABLED, SCH_ACTIVITY_SEND_MSG, 1, 0, %s, %s}", IndexName(apps[j]), apps[j].Group)
			}
			if i < len(s.Slots)-1 || j < s.EntriesPerSlot-1 {
				entry += ","
			}
			b.WriteString("  " + entry + "\n")
		}
		rows = append(rows, b.String())
	}
	return rows
}

// GenerateSchedule writes the SCH default message and schedule tables.
func GenerateSchedule(logger *slog.Logger, outputDir string, md *meta.Metadata) error {
	sch, err := NewSchedule(md.Dict.Project().Scheduler)
	if err != nil {
		return err
	}
	logger.Debug("Scheduler tables", "applications", len(sch.Applications), "slots", len(sch.Slots))

	msgs := struct {
		Tables       []string
		Applications []dictionary.ScheduledApplication
		Messages     []string
	}{nil, sch.Applications, sch.MessageRows()}
	if err := render(logger, md, filepath.Join(outputDir, MessageTableFileName), messageTableTmpl, msgs); err != nil {
		return err
	}

	slots := struct {
		Tables  []string
		Defines []string
		Slots   []string
	}{nil, sch.Defines(), sch.SlotRows()}
	return render(logger, md, filepath.Join(outputDir, ScheduleTableFileName), scheduleTableTmpl, slots)
}
