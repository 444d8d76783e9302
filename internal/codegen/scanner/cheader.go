// Package scanner imports structure definitions from C headers into a
// dictionary snapshot.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Alia5/fswgen/internal/dictionary"
)

// Header holds what was scanned from one or more C headers.
type Header struct {
	Structures []dictionary.Structure
	Macros     map[string]string
	// HeaderStructures lists structures that carried CCSDS header members.
	// The members are dropped; the structure needs a Message ID data field
	// for the header to be generated again.
	HeaderStructures []string
	// UndefinedTypes lists member types that are neither primitives nor
	// scanned structures.
	UndefinedTypes []string
}

var (
	structStartPattern = regexp.MustCompile(`^(typedef\s+)?struct(?:\s+([A-Za-z_]\w*))?\s*(\{)?\s*(?:/\*.*|//.*)?$`)
	structEndPattern   = regexp.MustCompile(`^\}\s*(?:OS_PACK\s+)?([A-Za-z_]\w*)?\s*;`)
	definePattern      = regexp.MustCompile(`^#\s*define\s+([A-Za-z_]\w*)\s+(.+?)\s*(?:/\*.*|//.*)?$`)
	memberPattern      = regexp.MustCompile(`^([^;]+);\s*(.*)$`)
	firstDeclPattern   = regexp.MustCompile(`^(.+?)\s*(\**)\s*\b([A-Za-z_]\w*)\s*((?:\[[^\]]*\]\s*)*)(?::\s*(\w+))?$`)
	declaratorPattern  = regexp.MustCompile(`^(\**)\s*([A-Za-z_]\w*)\s*((?:\[[^\]]*\]\s*)*)(?::\s*(\w+))?$`)
	dimPattern         = regexp.MustCompile(`\[([^\]]*)\]`)
	annotationPattern  = regexp.MustCompile(`^\[\s*\d+\]\s*(.*)$`)
	ratePattern        = regexp.MustCompile(`^\{([^@}]+?)\s*@\s*([^}]*?)\s*Hz\}`)
)

var headerMembers = map[string]bool{"CFS_PRI_HEADER": true, "CFS_SEC_HEADER": true}

// ScanFiles scans every header in order. Macros defined in earlier files
// are visible to later ones.
func ScanFiles(paths []string) (*Header, error) {
	s := newScanner()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open header %s: %w", p, err)
		}
		err = s.scan(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return s.result(), nil
}

// Scan scans a single header.
func Scan(r io.Reader) (*Header, error) {
	s := newScanner()
	if err := s.scan(r); err != nil {
		return nil, err
	}
	return s.result(), nil
}

// Project wraps the scanned structures into a snapshot.
func (h *Header) Project(name, system string) *dictionary.Project {
	return &dictionary.Project{
		Project:    name,
		System:     system,
		Structures: h.Structures,
	}
}

type scanner struct {
	header  *Header
	names   map[string]bool
	headers map[string]bool
}

func newScanner() *scanner {
	return &scanner{
		header:  &Header{Macros: make(map[string]string)},
		names:   make(map[string]bool),
		headers: make(map[string]bool),
	}
}

// lines reads r, joins backslash continued lines and trims every line.
func lines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	cont := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if cont {
			prev := out[len(out)-1]
			out[len(out)-1] = strings.TrimSuffix(prev, "\\") + " " + line
		} else {
			out = append(out, line)
		}
		cont = strings.HasSuffix(line, "\\")
	}
	return out, sc.Err()
}

func (s *scanner) scan(r io.Reader) error {
	src, err := lines(r)
	if err != nil {
		return err
	}

	var comment []string
	for i := 0; i < len(src); i++ {
		line := src[i]
		switch {
		case strings.HasPrefix(line, "/*"):
			block, end := commentBlock(src, i)
			comment = block
			i = end
			continue
		case strings.HasPrefix(line, "//"):
			comment = []string{strings.TrimSpace(strings.TrimPrefix(line, "//"))}
			continue
		case line == "":
			continue
		}

		if m := definePattern.FindStringSubmatch(line); m != nil {
			s.header.Macros[m[1]] = m[2]
			comment = nil
			continue
		}
		m := structStartPattern.FindStringSubmatch(line)
		if m == nil {
			comment = nil
			continue
		}

		st := dictionary.Structure{Name: m[2], Description: structDescription(comment)}
		comment = nil
		end, err := s.structBody(src, i+1, &st)
		if err != nil {
			return err
		}
		i = end
		if st.Name == "" {
			return fmt.Errorf("line %d: structure without a name", i+1)
		}
		if s.names[st.Name] {
			return fmt.Errorf("line %d: duplicate structure %s", i+1, st.Name)
		}
		s.names[st.Name] = true
		s.header.Structures = append(s.header.Structures, st)
	}
	return nil
}

// structBody parses the members following a struct opening line and
// returns the index of the closing line.
func (s *scanner) structBody(src []string, start int, st *dictionary.Structure) (int, error) {
	ccsds := false
	for i := start; i < len(src); i++ {
		line := src[i]
		switch {
		case line == "", line == "{", strings.HasPrefix(line, "#"), strings.HasPrefix(line, "//"):
			continue
		case strings.HasPrefix(line, "/*"):
			_, i = commentBlock(src, i)
			continue
		case strings.HasPrefix(line, "}"):
			m := structEndPattern.FindStringSubmatch(line)
			if m == nil {
				return 0, fmt.Errorf("line %d: malformed structure end %q", i+1, line)
			}
			if m[1] != "" {
				st.Name = m[1]
			}
			if ccsds {
				s.headers[st.Name] = true
			}
			return i, nil
		case strings.HasPrefix(line, "union"), strings.HasPrefix(line, "struct") && strings.Contains(line, "{"):
			return 0, fmt.Errorf("line %d: nested struct or union definitions are not supported", i+1)
		}

		m := memberPattern.FindStringSubmatch(line)
		if m == nil {
			return 0, fmt.Errorf("line %d: cannot parse member %q", i+1, line)
		}
		trailing := m[2]
		if strings.HasPrefix(trailing, "/*") && !strings.Contains(trailing, "*/") {
			var block []string
			block, i = commentBlock(src, i)
			trailing = strings.Join(block, " ")
		} else {
			trailing = commentText(trailing)
		}

		rows, err := s.members(m[1], trailing)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", i+1, err)
		}
		for _, r := range rows {
			if headerMembers[r.Name] {
				ccsds = true
				continue
			}
			st.Rows = append(st.Rows, r)
		}
	}
	return 0, fmt.Errorf("structure %s: missing closing brace", st.Name)
}

// members splits one declaration into rows, one per declarator.
func (s *scanner) members(decl, comment string) ([]dictionary.Row, error) {
	parts := strings.Split(decl, ",")
	first := firstDeclPattern.FindStringSubmatch(strings.TrimSpace(parts[0]))
	if first == nil {
		return nil, fmt.Errorf("cannot parse declaration %q", decl)
	}
	baseType := normalizeType(first[1])
	description, rates := parseAnnotation(comment)

	declarators := [][]string{{first[2], first[3], first[4], first[5]}}
	for _, p := range parts[1:] {
		d := declaratorPattern.FindStringSubmatch(strings.TrimSpace(p))
		if d == nil {
			return nil, fmt.Errorf("cannot parse declarator %q", p)
		}
		declarators = append(declarators, d[1:])
	}

	rows := make([]dictionary.Row, 0, len(declarators))
	for _, d := range declarators {
		stars, name, dims, bits := d[0], d[1], d[2], d[3]
		r := dictionary.Row{Name: name, DataType: baseType, Description: description, Rates: rates}
		if stars != "" {
			r.DataType = "address"
		}
		if dims != "" {
			size, err := s.arraySize(dims)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			r.ArraySize = size
		}
		if bits != "" {
			n, err := s.resolveInt(bits)
			if err != nil {
				return nil, fmt.Errorf("%s: bit length: %w", name, err)
			}
			r.BitLength = n
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (s *scanner) arraySize(dims string) (string, error) {
	var out []string
	for _, m := range dimPattern.FindAllStringSubmatch(dims, -1) {
		n, err := s.resolveInt(m[1])
		if err != nil {
			return "", fmt.Errorf("array size: %w", err)
		}
		if n <= 0 {
			return "", fmt.Errorf("array size: extent %q must be positive", strings.TrimSpace(m[1]))
		}
		out = append(out, strconv.Itoa(n))
	}
	return strings.Join(out, ", "), nil
}

// resolveInt evaluates an integer literal or a macro naming one.
func (s *scanner) resolveInt(tok string) (int, error) {
	orig := tok
	for range 16 {
		tok = strings.TrimSpace(tok)
		for strings.HasPrefix(tok, "(") && strings.HasSuffix(tok, ")") {
			tok = strings.TrimSpace(tok[1 : len(tok)-1])
		}
		lit := strings.TrimRight(tok, "uUlL")
		if v, err := strconv.ParseInt(lit, 0, 64); err == nil {
			return int(v), nil
		}
		next, ok := s.header.Macros[tok]
		if !ok {
			return 0, fmt.Errorf("%q is not an integer constant", orig)
		}
		tok = next
	}
	return 0, fmt.Errorf("%q: macro expansion too deep", orig)
}

func (s *scanner) result() *Header {
	h := s.header
	for _, st := range h.Structures {
		if s.headers[st.Name] {
			h.HeaderStructures = append(h.HeaderStructures, st.Name)
		}
	}

	known := make(map[string]bool)
	for _, dt := range dictionary.DefaultDataTypes {
		known[dt.Name] = true
	}
	undefined := make(map[string]bool)
	for _, st := range h.Structures {
		for _, r := range st.Rows {
			if !known[r.DataType] && !s.names[r.DataType] {
				undefined[r.DataType] = true
			}
		}
	}
	for t := range undefined {
		h.UndefinedTypes = append(h.UndefinedTypes, t)
	}
	sort.Strings(h.UndefinedTypes)
	return h
}

// commentBlock collects the text of the block comment starting at src[i]
// and returns the index of its last line.
func commentBlock(src []string, i int) ([]string, int) {
	var text []string
	for j := i; j < len(src); j++ {
		line := src[j]
		if j == i {
			line = strings.TrimPrefix(line[strings.Index(line, "/*"):], "/*")
		}
		if k := strings.Index(line, "*/"); k >= 0 {
			if t := strings.TrimSpace(line[:k]); t != "" {
				text = append(text, t)
			}
			return text, j
		}
		if t := strings.TrimSpace(strings.TrimPrefix(line, "*")); t != "" {
			text = append(text, t)
		}
	}
	return text, len(src) - 1
}

func commentText(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "//"):
		return strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, "/*"):
		s = strings.TrimPrefix(s, "/*")
		if k := strings.Index(s, "*/"); k >= 0 {
			s = s[:k]
		}
		return strings.TrimSpace(s)
	}
	return ""
}

// structDescription picks the description out of the comment preceding a
// structure. Generated headers label it "Description:" after a
// "Structure:" size line.
func structDescription(comment []string) string {
	var text []string
	for _, line := range comment {
		if _, d, ok := strings.Cut(line, "Description:"); ok {
			return strings.TrimSpace(d)
		}
		if !strings.HasPrefix(line, "Structure:") {
			text = append(text, line)
		}
	}
	return strings.Join(text, " ")
}

// parseAnnotation splits a member comment. Comments written by the types
// header generator carry "[offset] (size){Stream @rate Hz}  text"; only the
// rates and text are kept. Other comments are the description.
func parseAnnotation(comment string) (string, map[string]string) {
	m := annotationPattern.FindStringSubmatch(comment)
	if m == nil {
		return comment, nil
	}
	rest := m[1]
	if strings.HasPrefix(rest, "(") {
		if k := strings.Index(rest, ")"); k >= 0 {
			rest = rest[k+1:]
		}
	}
	var rates map[string]string
	for {
		r := ratePattern.FindStringSubmatch(rest)
		if r == nil {
			break
		}
		if rates == nil {
			rates = make(map[string]string)
		}
		rates[strings.TrimSpace(r[1])] = r[2]
		rest = rest[len(r[0]):]
	}
	return strings.TrimSpace(rest), rates
}

func normalizeType(t string) string {
	fields := strings.Fields(t)
	out := fields[:0]
	for _, f := range fields {
		switch f {
		case "struct", "const", "volatile":
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
