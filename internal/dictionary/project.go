// Package dictionary holds the telemetry/command dictionary snapshot that the
// generators read from: structure tables, commands, data types, data streams
// and the per-project data fields.
//
// A Project is the decoded snapshot file. NewDictionary indexes it and
// resolves structure sizes and variable offsets once; the resulting
// Dictionary is read-only for the rest of a generation run.
package dictionary

// Data field names looked up on structure tables.
const (
	FieldMessageID     = "Message ID"
	FieldMessageIDName = "Message ID Name"
	FieldSystem        = "System"
)

// Project is the on-disk dictionary snapshot.
type Project struct {
	Project         string           `json:"project" yaml:"project" toml:"project"`
	User            string           `json:"user,omitempty" yaml:"user,omitempty" toml:"user,omitempty"`
	System          string           `json:"system,omitempty" yaml:"system,omitempty" toml:"system,omitempty"`
	Headers         []string         `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
	Includes        []string         `json:"includes,omitempty" yaml:"includes,omitempty" toml:"includes,omitempty"`
	DataTypes       []DataType       `json:"dataTypes,omitempty" yaml:"dataTypes,omitempty" toml:"dataTypes,omitempty"`
	Structures      []Structure      `json:"structures" yaml:"structures" toml:"structures"`
	Commands        []Command        `json:"commands,omitempty" yaml:"commands,omitempty" toml:"commands,omitempty"`
	Streams         []DataStream     `json:"streams,omitempty" yaml:"streams,omitempty" toml:"streams,omitempty"`
	FlightComputers []FlightComputer `json:"flightComputers,omitempty" yaml:"flightComputers,omitempty" toml:"flightComputers,omitempty"`
	Scheduler       *Scheduler       `json:"scheduler,omitempty" yaml:"scheduler,omitempty" toml:"scheduler,omitempty"`
	Startup         []StartupEntry   `json:"startup,omitempty" yaml:"startup,omitempty" toml:"startup,omitempty"`
}

// Structure is one structure table: its data fields and definition rows.
type Structure struct {
	Name        string            `json:"name" yaml:"name" toml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty" yaml:"fields,omitempty" toml:"fields,omitempty"`
	Rows        []Row             `json:"rows" yaml:"rows" toml:"rows"`
}

// Row is a single variable row of a structure table.
type Row struct {
	Name        string            `json:"name" yaml:"name" toml:"name"`
	DataType    string            `json:"dataType" yaml:"dataType" toml:"dataType"`
	ArraySize   string            `json:"arraySize,omitempty" yaml:"arraySize,omitempty" toml:"arraySize,omitempty"`
	BitLength   int               `json:"bitLength,omitempty" yaml:"bitLength,omitempty" toml:"bitLength,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Rates       map[string]string `json:"rates,omitempty" yaml:"rates,omitempty" toml:"rates,omitempty"`

	// Enumeration lists "value,name,textColor,backColor" discrete
	// conversions separated by '|'.
	Enumeration string `json:"enumeration,omitempty" yaml:"enumeration,omitempty" toml:"enumeration,omitempty"`
	// Limits is "redLow,yellowLow,yellowHigh,redHigh" or a limit set
	// "contextMnemonic|lo..hi,redLow,...|...".
	Limits string `json:"limits,omitempty" yaml:"limits,omitempty" toml:"limits,omitempty"`
	// Polynomial lists comma separated coefficients a0,a1,...; one set per
	// flight computer separated by ';'.
	Polynomial string `json:"polynomial,omitempty" yaml:"polynomial,omitempty" toml:"polynomial,omitempty"`
}

// Command is a command table entry.
type Command struct {
	Name          string `json:"name" yaml:"name" toml:"name"`
	Code          string `json:"code" yaml:"code" toml:"code"`
	MessageIDName string `json:"messageIdName,omitempty" yaml:"messageIdName,omitempty" toml:"messageIdName,omitempty"`
	MessageID     string `json:"messageId,omitempty" yaml:"messageId,omitempty" toml:"messageId,omitempty"`
	System        string `json:"system,omitempty" yaml:"system,omitempty" toml:"system,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`

	Arguments []Argument `json:"arguments,omitempty" yaml:"arguments,omitempty" toml:"arguments,omitempty"`
}

// Argument is one command argument. Enumeration lists "value,name" pairs
// separated by '|'. Minimum and Maximum default to the data type's range.
type Argument struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	DataType    string `json:"dataType" yaml:"dataType" toml:"dataType"`
	ArraySize   string `json:"arraySize,omitempty" yaml:"arraySize,omitempty" toml:"arraySize,omitempty"`
	Enumeration string `json:"enumeration,omitempty" yaml:"enumeration,omitempty" toml:"enumeration,omitempty"`
	Minimum     string `json:"minimum,omitempty" yaml:"minimum,omitempty" toml:"minimum,omitempty"`
	Maximum     string `json:"maximum,omitempty" yaml:"maximum,omitempty" toml:"maximum,omitempty"`
}

// DataStream groups the telemetry messages downlinked at one rate.
type DataStream struct {
	Name     string    `json:"name" yaml:"name" toml:"name"`
	Messages []Message `json:"messages,omitempty" yaml:"messages,omitempty" toml:"messages,omitempty"`
}

// Message is a telemetry message assembled from structure variables.
// Variables are full paths, e.g. "Telemetry,uint16_t.count".
type Message struct {
	Name      string   `json:"name" yaml:"name" toml:"name"`
	ID        string   `json:"id" yaml:"id" toml:"id"`
	Variables []string `json:"variables,omitempty" yaml:"variables,omitempty" toml:"variables,omitempty"`
}

// FlightComputer prefixes packet names and offsets message IDs in record
// files generated for multi-processor missions.
type FlightComputer struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Offset string `json:"offset" yaml:"offset" toml:"offset"`
}

// Scheduler is the content of the SCH application's default message and
// schedule tables. Every time slot lists the applications woken in it.
type Scheduler struct {
	// EntriesPerSlot is SCH_ENTRIES_PER_SLOT; 5 when unset.
	EntriesPerSlot int `json:"entriesPerSlot,omitempty" yaml:"entriesPerSlot,omitempty" toml:"entriesPerSlot,omitempty"`
	// Messages is SCH_MAX_MESSAGES; 128 when unset.
	Messages     int                    `json:"messages,omitempty" yaml:"messages,omitempty" toml:"messages,omitempty"`
	Applications []ScheduledApplication `json:"applications,omitempty" yaml:"applications,omitempty" toml:"applications,omitempty"`
	TimeSlots    []TimeSlot             `json:"timeSlots,omitempty" yaml:"timeSlots,omitempty" toml:"timeSlots,omitempty"`
}

// ScheduledApplication is an application woken by the scheduler.
// MessageIndex is its row in the message table. WakeUpMID defaults to
// <NAME>_WAKEUP_MID and Group to SCH_GROUP_NONE. Applications with a lower
// Priority come first within a time slot.
type ScheduledApplication struct {
	Name         string `json:"name" yaml:"name" toml:"name"`
	MessageIndex int    `json:"messageIndex" yaml:"messageIndex" toml:"messageIndex"`
	WakeUpMID    string `json:"wakeUpMid,omitempty" yaml:"wakeUpMid,omitempty" toml:"wakeUpMid,omitempty"`
	Priority     int    `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
	Group        string `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"`
}

// TimeSlot names the applications woken in one scheduler slot.
type TimeSlot struct {
	Applications []string `json:"applications,omitempty" yaml:"applications,omitempty" toml:"applications,omitempty"`
}

// StartupEntry is one line of the cFE ES start-up script.
type StartupEntry struct {
	ModuleType      string `json:"moduleType" yaml:"moduleType" toml:"moduleType"`
	Path            string `json:"path" yaml:"path" toml:"path"`
	EntryPoint      string `json:"entryPoint" yaml:"entryPoint" toml:"entryPoint"`
	Name            string `json:"name" yaml:"name" toml:"name"`
	Priority        string `json:"priority" yaml:"priority" toml:"priority"`
	StackSize       string `json:"stackSize" yaml:"stackSize" toml:"stackSize"`
	ExceptionAction string `json:"exceptionAction,omitempty" yaml:"exceptionAction,omitempty" toml:"exceptionAction,omitempty"`
}
