package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/dictionary"
)

func groupNames(groups []layout.PackGroup) [][]string {
	out := make([][]string, 0, len(groups))
	for _, g := range groups {
		var ns []string
		for _, f := range g.Fields {
			ns = append(ns, f.Name)
		}
		out = append(out, ns)
	}
	return out
}

func TestPackGroups(t *testing.T) {
	tests := []struct {
		name    string
		rows    []dictionary.Row
		want    [][]string
		offsets []int
	}{
		{
			name: "single unit",
			rows: []dictionary.Row{
				{Name: "a", DataType: "uint8_t", BitLength: 1},
				{Name: "b", DataType: "uint8_t", BitLength: 3},
				{Name: "c", DataType: "uint8_t", BitLength: 4},
			},
			want:    [][]string{{"a", "b", "c"}},
			offsets: []int{0},
		},
		{
			name: "overflow starts new unit",
			rows: []dictionary.Row{
				{Name: "a", DataType: "uint8_t", BitLength: 5},
				{Name: "b", DataType: "uint8_t", BitLength: 4},
			},
			want:    [][]string{{"a"}, {"b"}},
			offsets: []int{0, 1},
		},
		{
			name: "type change starts new unit",
			rows: []dictionary.Row{
				{Name: "a", DataType: "uint8_t", BitLength: 2},
				{Name: "b", DataType: "uint16_t", BitLength: 2},
				{Name: "c", DataType: "uint16_t", BitLength: 14},
			},
			want:    [][]string{{"a"}, {"b", "c"}},
			offsets: []int{0, 1},
		},
		{
			name: "scalar interrupts run",
			rows: []dictionary.Row{
				{Name: "a", DataType: "uint8_t", BitLength: 2},
				{Name: "x", DataType: "uint8_t"},
				{Name: "b", DataType: "uint8_t", BitLength: 2},
			},
			want:    [][]string{{"a"}, {"b"}},
			offsets: []int{0, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := build(t, dictionary.Structure{Name: "P", Rows: tt.rows})
			s, _ := res.Structure("P")
			groups := layout.PackGroups(s.Fields)
			require.Len(t, groups, len(tt.want))
			assert.Equal(t, tt.want, groupNames(groups))
			for i, g := range groups {
				assert.Equal(t, tt.offsets[i], g.Offset, "group %d", i)
				for _, f := range g.Fields {
					assert.Equal(t, g.Offset, f.Offset, "field %s shares the unit offset", f.Name)
				}
				assert.LessOrEqual(t, g.Filled, g.Capacity())
			}
		})
	}
}

func TestReorderForByteOrder(t *testing.T) {
	res := build(t, dictionary.Structure{
		Name: "R",
		Rows: []dictionary.Row{
			{Name: "h", DataType: "uint16_t"},
			{Name: "a", DataType: "uint8_t", BitLength: 2},
			{Name: "b", DataType: "uint8_t", BitLength: 3},
			{Name: "c", DataType: "uint8_t", BitLength: 3},
			{Name: "d", DataType: "uint8_t", BitLength: 4},
			{Name: "e", DataType: "uint8_t", BitLength: 4},
			{Name: "t", DataType: "uint32_t"},
		},
	})
	s, _ := res.Structure("R")

	order := func(fs []layout.Field) []string {
		var out []string
		for _, f := range fs {
			out = append(out, f.Info().Name)
		}
		return out
	}

	assert.Equal(t, []string{"h", "a", "b", "c", "d", "e", "t"}, order(layout.ReorderForByteOrder(s.Fields, layout.BigEndian)))
	assert.Equal(t, []string{"h", "c", "b", "a", "e", "d", "t"}, order(layout.ReorderForByteOrder(s.Fields, layout.LittleEndian)))
	assert.Equal(t, []string{"h", "a", "b", "c", "d", "e", "t"}, order(s.Fields), "input must not be modified")
}

func TestParseByteOrder(t *testing.T) {
	for in, want := range map[string]layout.ByteOrder{
		"BE": layout.BigEndian, "be": layout.BigEndian, "big": layout.BigEndian,
		"LE": layout.LittleEndian, "little-endian": layout.LittleEndian,
	} {
		got, err := layout.ParseByteOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := layout.ParseByteOrder("middle")
	assert.Error(t, err)
}
