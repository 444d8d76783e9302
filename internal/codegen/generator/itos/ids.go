package itos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/fswgen/internal/dictionary"
)

// applicationIDMask keeps the application ID part of a CCSDS stream ID.
const applicationIDMask = 0x7ff

// FlightComputer is one processor the record files are generated for.
// Prefix is prepended to packet and command names, Offset is added to every
// message ID.
type FlightComputer struct {
	Prefix string
	Offset uint64
}

// FlightComputers returns the project's flight computers, or a single
// unprefixed computer at offset 0 when none are defined.
func FlightComputers(p *dictionary.Project) ([]FlightComputer, error) {
	if len(p.FlightComputers) == 0 {
		return []FlightComputer{{}}, nil
	}
	out := make([]FlightComputer, 0, len(p.FlightComputers))
	for _, fc := range p.FlightComputers {
		off := uint64(0)
		if strings.TrimSpace(fc.Offset) != "" {
			v, ok := parseHex(fc.Offset)
			if !ok {
				return nil, fmt.Errorf("flight computer %s: invalid offset %q", fc.Name, fc.Offset)
			}
			off = v
		}
		out = append(out, FlightComputer{Prefix: fc.Name, Offset: off})
	}
	return out, nil
}

// ExtractMessageID returns the application ID of a hexadecimal message ID
// as a four digit hex number, e.g. "0x0881" -> "0x0081". IDs that are not
// hexadecimal yield "0x0000".
func ExtractMessageID(msgID string) string {
	return applicationID(msgID, 0, 4)
}

// ExtractCommandID is ExtractMessageID with three digits.
func ExtractCommandID(msgID string) string {
	return applicationID(msgID, 0, 3)
}

func applicationID(msgID string, offset uint64, digits int) string {
	v, ok := parseHex(msgID)
	if !ok {
		return "0x" + strings.Repeat("0", digits)
	}
	return fmt.Sprintf("0x%0*x", digits, (v+offset)&applicationIDMask)
}

// parseHex reads a message ID or offset. The value is hexadecimal with or
// without the 0x prefix.
func parseHex(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
