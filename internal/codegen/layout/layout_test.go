package layout_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/dictionary"
)

func build(t *testing.T, structures ...dictionary.Structure) *layout.Result {
	t.Helper()
	d, err := dictionary.NewDictionary(&dictionary.Project{Structures: structures})
	require.NoError(t, err)
	res, err := layout.Build(d)
	require.NoError(t, err)
	return res
}

type placed struct {
	Name   string
	Offset int
	Size   int
}

func placements(s *layout.Structure) []placed {
	out := make([]placed, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, placed{f.Info().Name, f.Info().Offset, f.ByteSize()})
	}
	return out
}

func TestTelemetryExample(t *testing.T) {
	res := build(t, dictionary.Structure{
		Name:   "Telemetry",
		Fields: map[string]string{dictionary.FieldMessageID: "0x0881"},
		Rows: []dictionary.Row{
			{Name: "count", DataType: "uint16_t"},
			{Name: "flag", DataType: "uint8_t"},
			{Name: "value", DataType: "uint32_t", BitLength: 20},
		},
	})

	s, ok := res.Structure("Telemetry")
	require.True(t, ok)
	assert.True(t, s.HasMessageHeader)
	assert.True(t, s.HasBitField)
	assert.True(t, res.HasBitField("Telemetry"))
	assert.Equal(t, 19, s.TotalSize)

	want := []placed{
		{"CFS_PRI_HEADER", 0, 6},
		{"CFS_SEC_HEADER", 6, 6},
		{"count", 12, 2},
		{"flag", 14, 1},
		{"value", 15, 0},
	}
	if diff := cmp.Diff(want, placements(s)); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}

	bf, ok := s.Fields[4].(*layout.BitField)
	require.True(t, ok)
	assert.Equal(t, 20, bf.Bits)
	assert.Equal(t, "uint32_t value:20", bf.Declaration())
}

func TestPlainStructureSizesSum(t *testing.T) {
	res := build(t, dictionary.Structure{
		Name: "Plain",
		Rows: []dictionary.Row{
			{Name: "a", DataType: "uint8_t"},
			{Name: "b", DataType: "int32_t"},
			{Name: "c", DataType: "double"},
			{Name: "d", DataType: "uint16_t"},
		},
	})
	s, _ := res.Structure("Plain")
	sum := 0
	for _, f := range s.Fields {
		sum += f.ByteSize()
	}
	assert.Equal(t, s.TotalSize, sum)
	assert.Equal(t, 15, s.TotalSize)
	assert.False(t, s.HasMessageHeader)
	assert.False(t, s.HasBitField)
}

func TestArraysMembersAndDuplicates(t *testing.T) {
	res := build(t,
		dictionary.Structure{
			Name: "Vec",
			Rows: []dictionary.Row{
				{Name: "x", DataType: "int16_t"},
				{Name: "y", DataType: "int16_t"},
			},
		},
		dictionary.Structure{
			Name: "Outer",
			Rows: []dictionary.Row{
				{Name: "id", DataType: "uint8_t"},
				{Name: "v", DataType: "Vec", ArraySize: "3"},
				{Name: "v[0]", DataType: "Vec", ArraySize: "3"},
				{Name: "v[1]", DataType: "Vec", ArraySize: "3"},
				{Name: "v[2]", DataType: "Vec", ArraySize: "3"},
				{Name: "m", DataType: "float", ArraySize: "2, 3"},
				{Name: "id", DataType: "uint8_t"},
			},
		},
	)
	s, _ := res.Structure("Outer")
	require.Len(t, s.Fields, 3)

	want := []placed{
		{"id", 0, 1},
		{"v", 1, 12},
		{"m", 13, 24},
	}
	if diff := cmp.Diff(want, placements(s)); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}

	arr := s.Fields[2].(*layout.Array)
	assert.Equal(t, "float m[2][3]", arr.Declaration())
	assert.Equal(t, "2x3x4=24 bytes", arr.SizeText())
	assert.Equal(t, "Vec", s.Fields[1].(*layout.Array).Structure)
	assert.Equal(t, 37, s.TotalSize)
}

func TestHeaderOnlyAndEmpty(t *testing.T) {
	res := build(t,
		dictionary.Structure{Name: "Empty"},
		dictionary.Structure{Name: "HeaderOnly", Fields: map[string]string{dictionary.FieldMessageID: "0x0800"}},
	)
	e, _ := res.Structure("Empty")
	assert.Empty(t, e.Fields)
	assert.Equal(t, 0, e.TotalSize)

	h, _ := res.Structure("HeaderOnly")
	require.Len(t, h.Fields, 2)
	assert.Equal(t, 12, h.TotalSize)
	assert.True(t, h.Fields[0].Info().Synthetic)
	assert.Equal(t, "#CCSDS_PriHdr_t", h.Fields[0].Info().Comment)
	assert.Equal(t, len("   char CFS_PRI_HEADER[6]; "), h.DefinitionWidth)
}

func TestUnknownTypePassesThrough(t *testing.T) {
	res := build(t, dictionary.Structure{
		Name: "Odd",
		Rows: []dictionary.Row{
			{Name: "thing", DataType: "mystery_t"},
			{Name: "other", DataType: "mystery_t"},
		},
	})
	s, _ := res.Structure("Odd")
	sc, ok := s.Fields[0].(*layout.Scalar)
	require.True(t, ok)
	assert.False(t, sc.Known)
	assert.Equal(t, 0, sc.ByteSize())
	assert.Equal(t, "mystery_t thing", sc.Declaration())
	assert.Equal(t, []string{"mystery_t"}, s.UnknownTypes)
}

func TestNestedMessageStructureSize(t *testing.T) {
	res := build(t,
		dictionary.Structure{
			Name:   "Inner",
			Fields: map[string]string{dictionary.FieldMessageID: "0x0882"},
			Rows:   []dictionary.Row{{Name: "x", DataType: "uint16_t"}},
		},
		dictionary.Structure{
			Name: "Outer",
			Rows: []dictionary.Row{
				{Name: "in", DataType: "Inner"},
				{Name: "y", DataType: "uint32_t"},
			},
		},
	)
	in, _ := res.Structure("Inner")
	assert.Equal(t, 14, in.TotalSize)

	s, _ := res.Structure("Outer")
	want := []placed{
		{"in", 0, 14},
		{"y", 14, 4},
	}
	if diff := cmp.Diff(want, placements(s)); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 18, s.TotalSize)
}

func TestDefinitionWidth(t *testing.T) {
	res := build(t, dictionary.Structure{
		Name: "W",
		Rows: []dictionary.Row{
			{Name: "a", DataType: "uint8_t"},
			{Name: "a_much_longer_name", DataType: "uint16_t", ArraySize: "4"},
		},
	})
	s, _ := res.Structure("W")
	assert.Equal(t, len("   uint16_t a_much_longer_name[4]; "), s.DefinitionWidth)
}

func TestNestedBitFieldOwnership(t *testing.T) {
	res := build(t,
		dictionary.Structure{
			Name: "Flags",
			Rows: []dictionary.Row{
				{Name: "a", DataType: "uint8_t", BitLength: 3},
				{Name: "b", DataType: "uint8_t", BitLength: 5},
			},
		},
		dictionary.Structure{
			Name: "Holder",
			Rows: []dictionary.Row{{Name: "f", DataType: "Flags"}},
		},
	)
	assert.True(t, res.HasBitField("Flags"))
	assert.False(t, res.HasBitField("Holder"))
	assert.Equal(t, []string{"Flags", "Holder"}, names(res))
}

func names(res *layout.Result) []string {
	var out []string
	for _, s := range res.Structures {
		out = append(out, s.Name)
	}
	return out
}
