package common_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/fswgen/internal/codegen/common"
	"github.com/Alia5/fswgen/internal/codegen/meta"
)

func TestBanner(t *testing.T) {
	info := meta.Info{
		Created: time.Date(2024, 3, 5, 10, 4, 5, 0, time.UTC),
		User:    "ops",
		Project: "Demo",
		Tool:    "fswgen 1.0.0",
	}
	want := "/* Created : Tue Mar  5 10:04:05 UTC 2024\n" +
		"   User    : ops\n" +
		"   Project : Demo\n" +
		"   Tool    : fswgen 1.0.0\n" +
		"   Table(s): A,\n" +
		"             B\n" +
		"*/\n"
	assert.Equal(t, want, common.Banner(info, []string{"A", "B"}))
	assert.NotContains(t, common.Banner(info, nil), "Table(s)")
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "_SHARED_TYPES_H_", common.IncludeGuard("shared_types"))
	assert.Equal(t, "_DEMO_V2_MSGIDS_H_", common.IncludeGuard("demo-v2_msgids"))
	assert.Equal(t, "_1abc", common.Identifier("1abc"))
	assert.Equal(t, []string{"a", "b", "c"}, common.SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
	assert.Equal(t, "ab   ", common.PadRight("ab", 5))
	assert.Equal(t, "abcdef", common.PadRight("abcdef", 3))
}

func TestGetVersion(t *testing.T) {
	old := common.Version
	t.Cleanup(func() { common.Version = old })

	common.Version = ""
	v, err := common.GetVersion()
	assert.NoError(t, err)
	assert.Equal(t, "0.0.1-dev", v)

	common.Version = "v1.2.3-dirty"
	v, err = common.GetVersion()
	assert.NoError(t, err)
	assert.Equal(t, "1.2.3-dirty", v)

	common.Version = "nope"
	_, err = common.GetVersion()
	assert.Error(t, err)
}
