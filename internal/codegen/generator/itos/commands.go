package itos

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/dictionary"
)

// EnumerationName is the record name of a command argument enumeration.
func EnumerationName(cmd dictionary.Command, arg dictionary.Argument) string {
	return cmd.Name + "_" + arg.Name + "_ENUMERATION"
}

// EnumerationValue is one "value,name" pair of an argument enumeration.
type EnumerationValue struct {
	Value string
	Name  string
}

// ParseEnumeration splits "0,OFF|1,ON" into its pairs. Pairs without a
// name are dropped, trailing color columns are ignored.
func ParseEnumeration(s string) []EnumerationValue {
	var out []EnumerationValue
	for _, d := range ParseDiscreteConversion(s) {
		out = append(out, EnumerationValue{Value: d.Value, Name: d.Name})
	}
	return out
}

// IntegerRange returns the default minimum and maximum of an integer of
// size bytes.
func IntegerRange(size int, signed bool) (minimum, maximum string) {
	limit := new(big.Int).Lsh(big.NewInt(1), uint(size*8))
	if !signed {
		return "0", limit.Sub(limit, big.NewInt(1)).String()
	}
	half := new(big.Int).Rsh(limit, 1)
	lo := new(big.Int).Neg(half)
	hi := half.Sub(half, big.NewInt(1))
	return lo.String(), hi.String()
}

// commandBlocks renders the enumerations and command definitions for one
// flight computer. Commands are grouped by system in first-seen order;
// each group lists its enumerations ahead of its commands.
func commandBlocks(md *meta.Metadata, fc FlightComputer) ([]string, error) {
	commands := md.Dict.Project().Commands
	var systems []string
	bySystem := make(map[string][]dictionary.Command)
	for _, c := range commands {
		if _, ok := bySystem[c.System]; !ok {
			systems = append(systems, c.System)
		}
		bySystem[c.System] = append(bySystem[c.System], c)
	}

	var blocks []string
	for _, sys := range systems {
		group := bySystem[sys]
		first := true
		for _, c := range group {
			for _, a := range c.Arguments {
				values := ParseEnumeration(a.Enumeration)
				if len(values) == 0 {
					continue
				}
				if first {
					blocks = append(blocks, "\n/* Enumerations */\n")
					first = false
				}
				blocks = append(blocks, enumerationBlock(EnumerationName(c, a), values))
			}
		}
		for _, c := range group {
			b, err := commandBlock(md, fc, c)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, b)
		}
	}

	// Enumerations with display colors also get a discrete conversion.
	var discretes []string
	for _, c := range commands {
		for _, a := range c.Arguments {
			if ds := ParseDiscreteConversion(a.Enumeration); hasColors(ds) {
				discretes = append(discretes, discreteBlock(c.Name+"_"+a.Name+"_CONVERSION", ds))
			}
		}
	}
	return appendSection(blocks, "Discrete Conversions", discretes), nil
}

func enumerationBlock(name string, values []EnumerationValue) string {
	var b strings.Builder
	b.WriteString("Enumeration " + name + "\n{\n")
	for _, v := range values {
		fmt.Fprintf(&b, "  EnumerationValue %s {value = %s}\n", v.Name, v.Value)
	}
	b.WriteString("}\n")
	return b.String()
}

func commandBlock(md *meta.Metadata, fc FlightComputer, c dictionary.Command) (string, error) {
	code := uint64(0)
	if s := strings.TrimSpace(c.Code); s != "" {
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return "", fmt.Errorf("command %s: invalid command code %q", c.Name, c.Code)
		}
		code = v
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nCfeSoftwareCommand %s%s\n{\n", fc.Prefix, c.Name)
	fmt.Fprintf(&b, "  applicationId {range=%s}\n", applicationID(c.MessageID, fc.Offset, 3))
	fmt.Fprintf(&b, "  commandCode {range=%d}\n", code)
	for _, a := range c.Arguments {
		line, ok, err := argumentLine(md, c, a)
		if err != nil {
			return "", err
		}
		if ok {
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func argumentLine(md *meta.Metadata, c dictionary.Command, a dictionary.Argument) (string, bool, error) {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.DataType) == "" {
		return "", false, nil
	}
	letter := "R"
	if dt, ok := md.Dict.Primitive(a.DataType); ok {
		letter = TypeLetter(dt)
	}
	size := md.Dict.SizeOf(a.DataType)

	var info string
	switch letter {
	case "I", "U":
		if strings.TrimSpace(a.Enumeration) != "" {
			info += "enumeration = " + EnumerationName(c, a) + ", "
		}
		if size != 0 {
			lo, hi := IntegerRange(size, letter == "I")
			if v := strings.TrimSpace(a.Minimum); v != "" {
				lo = v
			}
			if v := strings.TrimSpace(a.Maximum); v != "" {
				hi = v
			}
			info += "range=" + lo + ".." + hi
		}
	case "S":
		length := "1"
		dims, err := dictionary.ParseArraySize(a.ArraySize)
		if err != nil {
			return "", false, fmt.Errorf("command %s, argument %s: %w", c.Name, a.Name, err)
		}
		if len(dims) > 0 {
			length = strconv.Itoa(dims[len(dims)-1])
		}
		size = 1
		info = "lengthInCharacters = " + length
	}
	return fmt.Sprintf("  %s%d %s {%s}", letter, size, a.Name, info), true, nil
}
