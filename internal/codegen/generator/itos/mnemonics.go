package itos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/fswgen/internal/codegen/layout"
	"github.com/Alia5/fswgen/internal/codegen/meta"
	"github.com/Alia5/fswgen/internal/dictionary"
)

// limitNames orders the values of a limit definition.
var limitNames = [...]string{"redLow", "yellowLow", "yellowHigh", "redHigh"}

// Value is one telemetry value of a message structure with its nested
// structures and arrays expanded. Name joins the path with '_', e.g.
// "Telemetry_pos_x_1"; SourcePath joins it with '.', e.g. "Telemetry.pos.x_1".
type Value struct {
	Name       string
	SourcePath string
	Letter     string
	Info       *layout.FieldInfo
	// String marks a character array read as one text value.
	String bool
}

// Telemetered reports whether the value's row is downlinked at any rate.
func (v Value) Telemetered() bool {
	for _, r := range v.Info.Rates {
		if strings.TrimSpace(r) != "" {
			return true
		}
	}
	return false
}

// Values expands every leaf of a message structure in declaration order.
// Character arrays are one string value, other arrays one value per element.
func Values(res *layout.Result, s *layout.Structure) []Value {
	var out []Value
	var walk func(st *layout.Structure, name, path string)
	walk = func(st *layout.Structure, name, path string) {
		for _, f := range st.Fields {
			info := f.Info()
			if info.Synthetic {
				continue
			}
			n, p := name+"_"+info.Name, path+"."+info.Name
			switch f := f.(type) {
			case *layout.Scalar:
				out = append(out, Value{Name: n, SourcePath: p, Letter: mnemonicLetter(f.Type), Info: info})
			case *layout.BitField:
				out = append(out, Value{Name: n, SourcePath: p, Letter: mnemonicLetter(f.Type), Info: info})
			case *layout.Nested:
				if child, ok := res.Structure(f.DataType); ok {
					walk(child, n, p)
				}
			case *layout.Array:
				switch {
				case f.Structure != "":
					child, ok := res.Structure(f.Structure)
					if !ok {
						continue
					}
					for _, suffix := range elementSuffixes(f.Dims) {
						walk(child, n+suffix, p+suffix)
					}
				case f.Known && f.Element.Base == dictionary.Character:
					out = append(out, Value{Name: n, SourcePath: p, Letter: "S", Info: info, String: true})
				default:
					letter := mnemonicLetter(f.Element)
					for _, suffix := range elementSuffixes(f.Dims) {
						out = append(out, Value{Name: n + suffix, SourcePath: p + suffix, Letter: letter, Info: info})
					}
				}
			}
		}
	}
	walk(s, s.Name, s.Name)
	return out
}

// mnemonicLetter is TypeLetter with unrecognized types read as unsigned.
func mnemonicLetter(dt dictionary.DataType) string {
	if l := TypeLetter(dt); l != "R" {
		return l
	}
	return "U"
}

// Discrete is one entry of a discrete conversion.
type Discrete struct {
	Value     string
	Name      string
	TextColor string
	BackColor string
}

// ParseDiscreteConversion splits "0,OFF,white,red|1,ON" into its entries.
// The colors are optional; entries without a value or name are dropped.
func ParseDiscreteConversion(s string) []Discrete {
	var out []Discrete
	for _, item := range strings.Split(s, "|") {
		parts := strings.Split(item, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		d := Discrete{Value: parts[0], Name: parts[1]}
		if len(parts) > 2 {
			d.TextColor = parts[2]
		}
		if len(parts) > 3 {
			d.BackColor = parts[3]
		}
		out = append(out, d)
	}
	return out
}

func hasColors(ds []Discrete) bool {
	for _, d := range ds {
		if d.TextColor != "" || d.BackColor != "" {
			return true
		}
	}
	return false
}

func discreteBlock(name string, ds []Discrete) string {
	var b strings.Builder
	b.WriteString("DiscreteConversion " + name + "\n{\n")
	for _, d := range ds {
		fmt.Fprintf(&b, "  Dsc %s {range = %s", d.Name, d.Value)
		if d.BackColor != "" {
			b.WriteString(", bgColor = " + d.BackColor)
		}
		if d.TextColor != "" {
			b.WriteString(", fgColor = " + d.TextColor)
		}
		b.WriteString("}\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// Limit is one limit of a limit definition. Values follow limitNames;
// blank values are left out.
type Limit struct {
	ContextRange string
	Values       []string
}

// LimitDefinition is a single limit, or a limit set selected by the value
// of ContextMnemonic when Sets is not empty.
type LimitDefinition struct {
	Single          Limit
	ContextMnemonic string
	Sets            []Limit
}

// ParseLimits reads a limits column. A single group is a plain limit, more
// groups are a limit set whose first group names the context mnemonic.
func ParseLimits(s string) (*LimitDefinition, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	groups := strings.Split(s, "|")
	if len(groups) == 1 {
		l, err := parseLimit(groups[0], false)
		if err != nil {
			return nil, err
		}
		return &LimitDefinition{Single: l}, nil
	}
	def := &LimitDefinition{ContextMnemonic: strings.TrimSpace(groups[0])}
	if def.ContextMnemonic == "" {
		return nil, fmt.Errorf("limit set without a context mnemonic")
	}
	for _, g := range groups[1:] {
		l, err := parseLimit(g, true)
		if err != nil {
			return nil, err
		}
		def.Sets = append(def.Sets, l)
	}
	return def, nil
}

func parseLimit(group string, inSet bool) (Limit, error) {
	var l Limit
	for _, v := range strings.Split(group, ",") {
		v = strings.TrimSpace(v)
		if lo, hi, ok := strings.Cut(v, ".."); ok && inSet {
			if !isNumber(lo) || !isNumber(hi) {
				return Limit{}, fmt.Errorf("invalid context range %q", v)
			}
			l.ContextRange = v
			continue
		}
		if v != "" && !isNumber(v) {
			return Limit{}, fmt.Errorf("invalid limit %q", v)
		}
		l.Values = append(l.Values, v)
	}
	if len(l.Values) > len(limitNames) {
		return Limit{}, fmt.Errorf("%d limits given, at most %d allowed", len(l.Values), len(limitNames))
	}
	return l, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func limitLines(b *strings.Builder, indent string, l Limit) {
	if l.ContextRange != "" {
		b.WriteString(indent + "contextRange = " + l.ContextRange + "\n")
	}
	for i, v := range l.Values {
		if v != "" {
			b.WriteString(indent + limitNames[i] + " = " + v + "\n")
		}
	}
}

func limitBlock(name string, def *LimitDefinition) string {
	var b strings.Builder
	if len(def.Sets) == 0 {
		b.WriteString("Limit " + name + "\n{\n")
		limitLines(&b, "  ", def.Single)
		b.WriteString("}\n")
		return b.String()
	}
	b.WriteString("LimitSet " + name + "\n{\n")
	b.WriteString("  contextMnemonic = " + def.ContextMnemonic + "\n")
	for i, l := range def.Sets {
		fmt.Fprintf(&b, "\n  Limit limit%d\n  {\n", i+1)
		limitLines(&b, "    ", l)
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// ParsePolynomial reads the coefficient sets of a polynomial column.
func ParsePolynomial(s string) ([][]string, error) {
	var sets [][]string
	for _, set := range strings.Split(s, ";") {
		var coeffs []string
		for _, c := range strings.Split(set, ",") {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if !isNumber(c) {
				return nil, fmt.Errorf("invalid polynomial coefficient %q", c)
			}
			coeffs = append(coeffs, c)
		}
		if len(coeffs) > 0 {
			sets = append(sets, coeffs)
		}
	}
	return sets, nil
}

func polynomialBlock(name string, coeffs []string) string {
	return "PolynomialConversion " + name + "\n{\n  coefficients = {" + strings.Join(coeffs, ", ") + "}\n}\n"
}

// conversions holds the parsed columns of one value.
type conversions struct {
	value      Value
	discrete   []Discrete
	limits     *LimitDefinition
	polynomial [][]string
}

// perComputer reports whether the value has one polynomial per flight
// computer. Sets beyond the number of computers are ignored.
func (c conversions) perComputer(fcs []FlightComputer) bool {
	return min(len(c.polynomial), len(fcs)) > 1
}

func (c conversions) hasConversion() bool {
	return len(c.discrete) > 0 || len(c.polynomial) > 0
}

// definitionBlocks renders the discrete conversions, limits, polynomial
// conversions and mnemonics of the message structures' values.
func definitionBlocks(md *meta.Metadata, fcs []FlightComputer) ([]string, error) {
	var all []conversions
	for _, s := range md.Layout.Structures {
		if !s.HasMessageHeader {
			continue
		}
		for _, v := range Values(md.Layout, s) {
			c := conversions{value: v}
			if !v.String {
				var err error
				c.discrete = ParseDiscreteConversion(v.Info.Enumeration)
				if c.limits, err = ParseLimits(v.Info.Limits); err != nil {
					return nil, fmt.Errorf("%s: limits: %w", v.SourcePath, err)
				}
				if c.polynomial, err = ParsePolynomial(v.Info.Polynomial); err != nil {
					return nil, fmt.Errorf("%s: %w", v.SourcePath, err)
				}
			}
			all = append(all, c)
		}
	}

	var discretes, limits, polys, mnemonics []string
	for _, c := range all {
		name := c.value.Name
		if len(c.discrete) > 0 {
			discretes = append(discretes, discreteBlock(name+"_CONVERSION", c.discrete))
		}
		if c.limits != nil {
			limits = append(limits, limitBlock(name+"_LIMIT", c.limits))
		}
		switch {
		case c.perComputer(fcs):
			for i, fc := range fcs {
				set := c.polynomial[min(i, len(c.polynomial)-1)]
				polys = append(polys, polynomialBlock(fc.Prefix+name+"_CONVERSION", set))
			}
		case len(c.polynomial) > 0:
			polys = append(polys, polynomialBlock(name+"_CONVERSION", c.polynomial[0]))
		}
		if !c.value.Telemetered() {
			for _, fc := range fcs {
				mnemonics = append(mnemonics, mnemonicLine(fc, c, fcs))
			}
		}
	}

	var blocks []string
	blocks = appendSection(blocks, "Discrete Conversions", discretes)
	blocks = appendSection(blocks, "Limit Definitions", limits)
	blocks = appendSection(blocks, "Polynomial Conversions: y = a0 + a1*x + a2*x^2 + ... + an*x^n", polys)
	blocks = appendSection(blocks, "Mnemonic Definitions", mnemonics)
	return blocks, nil
}

func appendSection(blocks []string, title string, section []string) []string {
	if len(section) == 0 {
		return blocks
	}
	return append(append(blocks, "\n/* "+title+" */\n"), section...)
}

func mnemonicLine(fc FlightComputer, c conversions, fcs []FlightComputer) string {
	v := c.value
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s%s {sourceFields = {%s%s}", v.Letter, fc.Prefix, v.Name, fc.Prefix, v.SourcePath)
	if c.hasConversion() {
		if c.perComputer(fcs) {
			b.WriteString(" conversion = " + fc.Prefix + v.Name + "_CONVERSION")
		} else {
			b.WriteString(" conversion = " + v.Name + "_CONVERSION")
		}
	}
	if c.limits != nil {
		b.WriteString(" limits = " + v.Name + "_LIMIT")
	}
	b.WriteString("}\n")
	return b.String()
}
