package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseStatus records how a raw value was turned into a number.
type ParseStatus int

const (
	// ParseOK means the raw value was a valid number.
	ParseOK ParseStatus = iota
	// ParseMissing means the value was absent or blank and the default was used.
	ParseMissing
	// ParseMalformed means the value was present but not numeric; the default was used.
	ParseMalformed
)

func (s ParseStatus) String() string {
	switch s {
	case ParseOK:
		return "ok"
	case ParseMissing:
		return "missing"
	case ParseMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("ParseStatus(%d)", int(s))
	}
}

// ParsedFloat is the result of a best-effort float coercion.
type ParsedFloat struct {
	Value  float64
	Status ParseStatus
	Raw    any
}

// Defaulted reports whether Value is the fallback rather than the parsed input.
func (p ParsedFloat) Defaulted() bool { return p.Status != ParseOK }

// ParsedInt is the result of a best-effort integer coercion.
type ParsedInt struct {
	Value  int
	Status ParseStatus
	Raw    any
}

// Defaulted reports whether Value is the fallback rather than the parsed input.
func (p ParsedInt) Defaulted() bool { return p.Status != ParseOK }

// ParseFloat coerces a raw JSON/CSV value to float64, falling back to def.
// Strings are trimmed; an empty string counts as missing.
func ParseFloat(raw any, def float64) ParsedFloat {
	out := ParsedFloat{Value: def, Status: ParseMissing, Raw: raw}
	switch v := raw.(type) {
	case nil:
		return out
	case float64:
		out.Value, out.Status = v, ParseOK
	case float32:
		out.Value, out.Status = float64(v), ParseOK
	case int:
		out.Value, out.Status = float64(v), ParseOK
	case int64:
		out.Value, out.Status = float64(v), ParseOK
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			out.Status = ParseMalformed
			return out
		}
		out.Value, out.Status = f, ParseOK
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return out
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			out.Status = ParseMalformed
			return out
		}
		out.Value, out.Status = f, ParseOK
	default:
		out.Status = ParseMalformed
	}
	if math.IsNaN(out.Value) || math.IsInf(out.Value, 0) {
		out.Value, out.Status = def, ParseMalformed
	}
	return out
}

// ParseInt coerces a raw value to an int by truncating its float value, 0 on failure.
func ParseInt(raw any) ParsedInt {
	f := ParseFloat(raw, 0)
	if f.Defaulted() {
		return ParsedInt{Value: 0, Status: f.Status, Raw: raw}
	}
	return ParsedInt{Value: int(math.Trunc(f.Value)), Status: ParseOK, Raw: raw}
}

// ParseYearPrefix reads a year from the first four characters of a date
// string such as "1954-04-13".
func ParseYearPrefix(date string) ParsedInt {
	s := strings.TrimSpace(date)
	if s == "" {
		return ParsedInt{Status: ParseMissing, Raw: date}
	}
	if len(s) < 4 {
		return ParsedInt{Status: ParseMalformed, Raw: date}
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return ParsedInt{Status: ParseMalformed, Raw: date}
	}
	return ParsedInt{Value: y, Status: ParseOK, Raw: date}
}
