package itos_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/fswgen/internal/codegen/generator/itos"
	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/dictionary"
	fswtest "github.com/Alia5/fswgen/internal/testing"
)

func testProject() *dictionary.Project {
	return &dictionary.Project{
		Project: "demo",
		Structures: []dictionary.Structure{
			{
				Name:   "Telemetry",
				Fields: map[string]string{dictionary.FieldMessageID: "0x0881"},
				Rows: []dictionary.Row{
					{Name: "count", DataType: "uint16_t"},
					{Name: "a", DataType: "uint8_t", BitLength: 3},
					{Name: "b", DataType: "uint8_t", BitLength: 5},
					{Name: "samples", DataType: "float", ArraySize: "2"},
					{Name: "samples[0]", DataType: "float"},
					{Name: "samples[1]", DataType: "float"},
				},
			},
			{Name: "Vec", Rows: []dictionary.Row{{Name: "x", DataType: "int16_t"}}},
			{Name: "A", Rows: []dictionary.Row{{Name: "v", DataType: "Vec"}}},
			{Name: "B", Rows: []dictionary.Row{{Name: "w", DataType: "Vec"}}},
		},
		Commands: []dictionary.Command{
			{Name: "SC_NOOP", Code: "0", MessageID: "0x1880"},
			{
				Name:      "SC_SET_MODE",
				Code:      "0x02",
				MessageID: "0x1880",
				Arguments: []dictionary.Argument{
					{Name: "mode", DataType: "uint8_t", Enumeration: "0,SAFE|1,SCIENCE"},
					{Name: "label", DataType: "char", ArraySize: "8"},
					{Name: "gain", DataType: "float"},
					{Name: "level", DataType: "int16_t", Minimum: "-10"},
					{Name: "", DataType: "uint8_t"},
				},
			},
		},
	}
}

func metadata(t *testing.T, p *dictionary.Project, order layout.ByteOrder) *meta.Metadata {
	t.Helper()
	return fswtest.Metadata(t, p, order)
}

func generate(t *testing.T, md *meta.Metadata) string {
	t.Helper()
	return fswtest.Generate(t, itos.Generate, md)
}

func read(t *testing.T, dir, name string) string {
	t.Helper()
	return fswtest.ReadFile(t, dir, name)
}

func TestExtractMessageID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0x0881", "0x0081"},
		{"0881", "0x0081"},
		{"0x1fff", "0x07ff"},
		{"bogus", "0x0000"},
		{"", "0x0000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, itos.ExtractMessageID(tt.in))
		})
	}
	assert.Equal(t, "0x080", itos.ExtractCommandID("0x1880"))
	assert.Equal(t, "0x000", itos.ExtractCommandID("xyz"))
}

func TestIntegerRange(t *testing.T) {
	tests := []struct {
		size     int
		signed   bool
		min, max string
	}{
		{1, false, "0", "255"},
		{1, true, "-128", "127"},
		{2, true, "-32768", "32767"},
		{8, false, "0", "18446744073709551615"},
		{8, true, "-9223372036854775808", "9223372036854775807"},
	}
	for _, tt := range tests {
		lo, hi := itos.IntegerRange(tt.size, tt.signed)
		assert.Equal(t, tt.min, lo)
		assert.Equal(t, tt.max, hi)
	}
}

func TestParseEnumeration(t *testing.T) {
	got := itos.ParseEnumeration("0,SAFE| 1, SCIENCE |bad")
	want := []itos.EnumerationValue{{Value: "0", Name: "SAFE"}, {Value: "1", Name: "SCIENCE"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("enumeration mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeCodes(t *testing.T) {
	for _, tt := range []struct {
		dt   dictionary.DataType
		want string
	}{
		{dictionary.DataType{Name: "uint16_t", Size: 2, Base: dictionary.UnsignedInt}, "U2"},
		{dictionary.DataType{Name: "int32_t", Size: 4, Base: dictionary.SignedInt}, "I4"},
		{dictionary.DataType{Name: "double", Size: 8, Base: dictionary.FloatingPoint}, "F8"},
		{dictionary.DataType{Name: "char", Size: 1, Base: dictionary.Character}, "S1"},
		{dictionary.DataType{Name: "address", Size: 4, Base: dictionary.Pointer}, "U4"},
	} {
		assert.Equal(t, tt.want, itos.TwoCharCode(tt.dt))
	}
}

func TestTelemetryRecords(t *testing.T) {
	dir := generate(t, metadata(t, testProject(), layout.BigEndian))
	tlm := read(t, dir, "sc_BE.rec")

	assert.True(t, strings.HasPrefix(tlm, "/* Created : "))
	assert.Contains(t, tlm, "\nCfeTelemetryPacket Telemetry\n{\n"+
		"  applyWhen={FieldInRange{field = applicationId, range = 0x0081}},\n"+
		"  U2 count {generateMnemonic=\"no\"},\n"+
		"  U1 a {lengthInBits=3 generateMnemonic=\"no\"},\n"+
		"  U1 b {lengthInBits=5 generateMnemonic=\"no\"},\n"+
		"  F4 samples_0 {generateMnemonic=\"no\"},\n"+
		"  F4 samples_1 {generateMnemonic=\"no\"}\n}\n")
	assert.NotContains(t, tlm, "CFS_PRI_HEADER")
	assert.Contains(t, tlm, "\nprototype Structure A\n{\n  Vec v {}\n}\n")
	assert.NotContains(t, tlm, "prototype Structure Vec")

	shared := read(t, dir, itos.CommonFileName)
	assert.Contains(t, shared, "\nprototype Structure Vec\n{\n  I2 x {generateMnemonic=\"no\"}\n}\n")
	assert.NotContains(t, shared, "Telemetry\n{")
}

func TestLittleEndianReversesPackedMembers(t *testing.T) {
	dir := generate(t, metadata(t, testProject(), layout.LittleEndian))
	tlm := read(t, dir, "sc_LE.rec")

	assert.Contains(t, tlm, "  U2 count {generateMnemonic=\"no\"},\n"+
		"  U1 b {lengthInBits=5 generateMnemonic=\"no\"},\n"+
		"  U1 a {lengthInBits=3 generateMnemonic=\"no\"},\n")
	assert.FileExists(t, filepath.Join(dir, "sc_CMD_LE.rec"))
}

func TestCommandRecords(t *testing.T) {
	dir := generate(t, metadata(t, testProject(), layout.BigEndian))
	cmd := read(t, dir, "sc_CMD_BE.rec")

	assert.Contains(t, cmd, "\n/* Enumerations */\nEnumeration SC_SET_MODE_mode_ENUMERATION\n{\n"+
		"  EnumerationValue SAFE {value = 0}\n"+
		"  EnumerationValue SCIENCE {value = 1}\n}\n")
	assert.Contains(t, cmd, "\nCfeSoftwareCommand SC_NOOP\n{\n  applicationId {range=0x080}\n  commandCode {range=0}\n}\n")
	assert.Contains(t, cmd, "\nCfeSoftwareCommand SC_SET_MODE\n{\n  applicationId {range=0x080}\n  commandCode {range=2}\n")
	assert.Contains(t, cmd, "  U1 mode {enumeration = SC_SET_MODE_mode_ENUMERATION, range=0..255}\n")
	assert.Contains(t, cmd, "  S1 label {lengthInCharacters = 8}\n")
	assert.Contains(t, cmd, "  F4 gain {}\n")
	assert.Contains(t, cmd, "  I2 level {range=-10..32767}\n")
	assert.Equal(t, 1, strings.Count(cmd, "  U1 "))
	assert.Less(t, strings.Index(cmd, "Enumeration "), strings.Index(cmd, "CfeSoftwareCommand"))
}

func TestFlightComputers(t *testing.T) {
	p := testProject()
	p.FlightComputers = []dictionary.FlightComputer{
		{Name: "FC1_", Offset: "0x0000"},
		{Name: "FC2_", Offset: "0x0600"},
	}
	dir := generate(t, metadata(t, p, layout.BigEndian))

	tlm := read(t, dir, "sc_BE.rec")
	assert.Contains(t, tlm, "\nCfeTelemetryPacket FC1_Telemetry\n{\n  applyWhen={FieldInRange{field = applicationId, range = 0x0081}},\n")
	assert.Contains(t, tlm, "\nCfeTelemetryPacket FC2_Telemetry\n{\n  applyWhen={FieldInRange{field = applicationId, range = 0x0681}},\n")
	assert.Equal(t, 1, strings.Count(tlm, "prototype Structure A\n"))

	assert.Contains(t, read(t, dir, "FC1_sc_CMD_BE.rec"), "CfeSoftwareCommand FC1_SC_NOOP\n{\n  applicationId {range=0x080}\n")
	assert.Contains(t, read(t, dir, "FC2_sc_CMD_BE.rec"), "CfeSoftwareCommand FC2_SC_NOOP\n{\n  applicationId {range=0x680}\n")
}

func TestGenerateErrors(t *testing.T) {
	t.Run("invalid flight computer offset", func(t *testing.T) {
		p := testProject()
		p.FlightComputers = []dictionary.FlightComputer{{Name: "FC1_", Offset: "zz"}}
		err := itos.Generate(fswtest.Discard(), t.TempDir(), metadata(t, p, layout.BigEndian))
		assert.ErrorContains(t, err, "invalid offset")
	})
	t.Run("invalid command code", func(t *testing.T) {
		p := testProject()
		p.Commands[0].Code = "zz"
		err := itos.Generate(fswtest.Discard(), t.TempDir(), metadata(t, p, layout.BigEndian))
		assert.ErrorContains(t, err, "invalid command code")
	})
}

func conversionProject() *dictionary.Project {
	p := testProject()
	p.FlightComputers = []dictionary.FlightComputer{
		{Name: "FC1_", Offset: "0x0000"},
		{Name: "FC2_", Offset: "0x0600"},
		{Name: "FC3_", Offset: "0x0a00"},
	}
	p.Structures = append(p.Structures, dictionary.Structure{
		Name:   "Status",
		Fields: map[string]string{dictionary.FieldMessageID: "0x0882"},
		Rows: []dictionary.Row{
			{Name: "mode", DataType: "uint8_t", Enumeration: "0,OFF,white,red|1,ON", Rates: map[string]string{"Stream1": "1"}},
			{Name: "temp", DataType: "int16_t", Limits: "-10,-5,40,50", Polynomial: "0.5, 2"},
			{Name: "volts", DataType: "uint16_t", Limits: "mode|0..0,1,2,,4|1..1,5,6,7,8", Polynomial: "1,2;3,4"},
			{Name: "gain", DataType: "float", Polynomial: "1;2;3;4"},
			{Name: "name", DataType: "char", ArraySize: "4", Limits: "1,2,3,4"},
			{Name: "pos", DataType: "Vec"},
			{Name: "pts", DataType: "Vec", ArraySize: "2"},
			{Name: "raw", DataType: "uint8_t", ArraySize: "2", Rates: map[string]string{"Stream1": " "}},
		},
	})
	return p
}

func TestTelemetryConversions(t *testing.T) {
	dir := generate(t, metadata(t, conversionProject(), layout.BigEndian))
	tlm := read(t, dir, "sc_BE.rec")

	assert.Contains(t, tlm, "\n/* Discrete Conversions */\nDiscreteConversion Status_mode_CONVERSION\n{\n"+
		"  Dsc OFF {range = 0, bgColor = red, fgColor = white}\n"+
		"  Dsc ON {range = 1}\n}\n")
	assert.Contains(t, tlm, "\n/* Limit Definitions */\nLimit Status_temp_LIMIT\n{\n"+
		"  redLow = -10\n  yellowLow = -5\n  yellowHigh = 40\n  redHigh = 50\n}\n")
	assert.Contains(t, tlm, "LimitSet Status_volts_LIMIT\n{\n  contextMnemonic = mode\n"+
		"\n  Limit limit1\n  {\n    contextRange = 0..0\n    redLow = 1\n    yellowLow = 2\n    redHigh = 4\n  }\n"+
		"\n  Limit limit2\n  {\n    contextRange = 1..1\n    redLow = 5\n    yellowLow = 6\n    yellowHigh = 7\n    redHigh = 8\n  }\n}\n")
	assert.NotContains(t, tlm, "Status_name_LIMIT")

	assert.Contains(t, tlm, "PolynomialConversion Status_temp_CONVERSION\n{\n  coefficients = {0.5, 2}\n}\n")
	assert.Contains(t, tlm, "PolynomialConversion FC1_Status_volts_CONVERSION\n{\n  coefficients = {1, 2}\n}\n")
	assert.Contains(t, tlm, "PolynomialConversion FC2_Status_volts_CONVERSION\n{\n  coefficients = {3, 4}\n}\n")
	assert.Contains(t, tlm, "PolynomialConversion FC3_Status_volts_CONVERSION\n{\n  coefficients = {3, 4}\n}\n",
		"computers beyond the last set reuse it")
	assert.Contains(t, tlm, "PolynomialConversion FC3_Status_gain_CONVERSION\n{\n  coefficients = {3}\n}\n")
	assert.NotContains(t, tlm, "coefficients = {4}")
	assert.Equal(t, 1, strings.Count(tlm, "PolynomialConversion Status_temp_CONVERSION"))

	last := strings.LastIndex(tlm, "CfeTelemetryPacket ")
	sections := []string{"/* Discrete Conversions */", "/* Limit Definitions */", "/* Polynomial Conversions", "/* Mnemonic Definitions */"}
	for _, s := range sections {
		i := strings.Index(tlm, s)
		require.Greater(t, i, last, s)
		last = i
	}
}

func TestMnemonicDefinitions(t *testing.T) {
	dir := generate(t, metadata(t, conversionProject(), layout.BigEndian))
	tlm := read(t, dir, "sc_BE.rec")
	_, mnemonics, ok := strings.Cut(tlm, "\n/* Mnemonic Definitions */\n")
	require.True(t, ok)

	for _, want := range []string{
		"I FC1_Status_temp {sourceFields = {FC1_Status.temp} conversion = Status_temp_CONVERSION limits = Status_temp_LIMIT}\n",
		"U FC2_Status_volts {sourceFields = {FC2_Status.volts} conversion = FC2_Status_volts_CONVERSION limits = Status_volts_LIMIT}\n",
		"F FC3_Status_gain {sourceFields = {FC3_Status.gain} conversion = FC3_Status_gain_CONVERSION}\n",
		"S FC1_Status_name {sourceFields = {FC1_Status.name}}\n",
		"I FC2_Status_pos_x {sourceFields = {FC2_Status.pos.x}}\n",
		"I FC1_Status_pts_1_x {sourceFields = {FC1_Status.pts_1.x}}\n",
		"U FC3_Status_raw_1 {sourceFields = {FC3_Status.raw_1}}\n",
		"U FC1_Telemetry_a {sourceFields = {FC1_Telemetry.a}}\n",
		"F FC1_Telemetry_samples_0 {sourceFields = {FC1_Telemetry.samples_0}}\n",
	} {
		assert.Contains(t, mnemonics, want)
	}
	assert.NotContains(t, mnemonics, "Status_mode", "telemetered values have no mnemonic")
	assert.NotContains(t, mnemonics, "Status_name_0")
	assert.Equal(t, 3, strings.Count(mnemonics, "_Status_temp {"))
}

func TestCommandDiscreteConversions(t *testing.T) {
	dir := generate(t, metadata(t, testProject(), layout.BigEndian))
	assert.NotContains(t, read(t, dir, "sc_CMD_BE.rec"), "Discrete Conversions")

	p := testProject()
	p.Commands[1].Arguments[0].Enumeration = "0,SAFE,green|1,SCIENCE"
	dir = generate(t, metadata(t, p, layout.BigEndian))
	cmd := read(t, dir, "sc_CMD_BE.rec")

	assert.Contains(t, cmd, "Enumeration SC_SET_MODE_mode_ENUMERATION\n{\n"+
		"  EnumerationValue SAFE {value = 0}\n"+
		"  EnumerationValue SCIENCE {value = 1}\n}\n")
	assert.Contains(t, cmd, "\n/* Discrete Conversions */\nDiscreteConversion SC_SET_MODE_mode_CONVERSION\n{\n"+
		"  Dsc SAFE {range = 0, fgColor = green}\n"+
		"  Dsc SCIENCE {range = 1}\n}\n")
}

func TestParseLimits(t *testing.T) {
	tests := []struct {
		in      string
		want    *itos.LimitDefinition
		wantErr string
	}{
		{in: " "},
		{in: "1,,3", want: &itos.LimitDefinition{Single: itos.Limit{Values: []string{"1", "", "3"}}}},
		{
			in: "MODE|0..1,1,2|2..3,,4,5,6",
			want: &itos.LimitDefinition{ContextMnemonic: "MODE", Sets: []itos.Limit{
				{ContextRange: "0..1", Values: []string{"1", "2"}},
				{ContextRange: "2..3", Values: []string{"", "4", "5", "6"}},
			}},
		},
		{in: "1,2,3,4,5", wantErr: "at most 4"},
		{in: "1,hot", wantErr: `invalid limit "hot"`},
		{in: "0..1,2", wantErr: `invalid limit "0..1"`},
		{in: "|0..1,2", wantErr: "without a context mnemonic"},
		{in: "MODE|a..1,2", wantErr: "invalid context range"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := itos.ParseLimits(tt.in)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("limits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDiscreteConversion(t *testing.T) {
	got := itos.ParseDiscreteConversion("0,OFF,white,red|1,ON|,NONE|2")
	want := []itos.Discrete{
		{Value: "0", Name: "OFF", TextColor: "white", BackColor: "red"},
		{Value: "1", Name: "ON"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("discrete mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []itos.EnumerationValue{{Value: "0", Name: "OFF"}}, itos.ParseEnumeration("0,OFF,white,red"))
}

func TestConversionErrors(t *testing.T) {
	tests := []struct {
		name string
		row  dictionary.Row
		want string
	}{
		{"polynomial", dictionary.Row{Name: "v", DataType: "uint8_t", Polynomial: "1,x"}, `Status.v: invalid polynomial coefficient "x"`},
		{"limit", dictionary.Row{Name: "v", DataType: "uint8_t", Limits: "1,x"}, `Status.v: limits: invalid limit "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProject()
			p.Structures = append(p.Structures, dictionary.Structure{
				Name:   "Status",
				Fields: map[string]string{dictionary.FieldMessageID: "0x0882"},
				Rows:   []dictionary.Row{tt.row},
			})
			err := itos.Generate(fswtest.Discard(), t.TempDir(), metadata(t, p, layout.BigEndian))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
