package common

import (
	"sort"
	"strings"
)

// IncludeGuard builds the "_NAME_H_" include guard for a header base name.
func IncludeGuard(base string) string {
	return "_" + strings.ToUpper(Identifier(base)) + "_H_"
}

// Identifier replaces every character that is not valid in a C identifier
// with '_' and prefixes names that start with a digit.
func Identifier(name string) string {
	if name == "" {
		return ""
	}
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
		default:
			b[i] = '_'
		}
	}
	if b[0] >= '0' && b[0] <= '9' {
		return "_" + string(b)
	}
	return string(b)
}

// SortedKeys returns the sorted keys of a string keyed map.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PadRight left-aligns s in a field of width characters, like "%-Ns".
func PadRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
