package runtime

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// String is the dynamic, null-terminated-for-C-interop string from
// spec.md §3.6. In Go there is no explicit null terminator to manage; the
// type exists to host the doubling-growth ABI the spec names.
type String struct {
	data  []byte
	Diags Diagnostics
}

const stringInitialCapacity = 8

// NewString is string_create: materializes a String from raw bytes.
func NewString(s string) *String {
	return &String{data: []byte(s)}
}

// Length is string_length.
func (s *String) Length() int64 {
	if s == nil {
		return 0
	}
	return int64(len(s.data))
}

// CharAt is string_char_at: out-of-bounds reads report and return 0.
func (s *String) CharAt(i int64) byte {
	if s == nil || i < 0 || i >= int64(len(s.data)) {
		reportBounds(s.diags(), "string_char_at", i)
		return 0
	}
	return s.data[i]
}

// Substring is string_substring.
func (s *String) Substring(start, end int64) *String {
	if s == nil {
		return NewString("")
	}
	n := int64(len(s.data))
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return NewString("")
	}
	return NewString(string(s.data[start:end]))
}

// Concat is string_concat.
func (s *String) Concat(other *String) *String {
	var a, b string
	if s != nil {
		a = string(s.data)
	}
	if other != nil {
		b = string(other.data)
	}
	return NewString(a + b)
}

// AppendChar is string_append_char: grows by doubling.
func (s *String) AppendChar(c byte) {
	if s == nil {
		return
	}
	if cap(s.data) == len(s.data) {
		newCap := cap(s.data) * 2
		if newCap == 0 {
			newCap = stringInitialCapacity
		}
		grown := make([]byte, len(s.data), newCap)
		copy(grown, s.data)
		s.data = grown
	}
	s.data = append(s.data, c)
}

// Compare is string_compare: -1, 0, or 1.
func (s *String) Compare(other *String) int {
	return strings.Compare(s.text(), other.text())
}

// Equals is string_equals.
func (s *String) Equals(other *String) bool {
	return s.text() == other.text()
}

// Find is string_find: the byte index of the first occurrence of needle
// in haystack at or after start, or -1.
func (s *String) Find(needle *String, start int64) int64 {
	hay := s.text()
	n := needle.text()
	if start < 0 {
		start = 0
	}
	if start > int64(len(hay)) {
		return -1
	}
	idx := strings.Index(hay[start:], n)
	if idx < 0 {
		return -1
	}
	return start + int64(idx)
}

func (s *String) text() string {
	if s == nil {
		return ""
	}
	return string(s.data)
}

func (s *String) diags() Diagnostics {
	if s == nil || s.Diags == nil {
		return defaultDiagnostics
	}
	return s.Diags
}

// Destroy is string_destroy.
func (s *String) Destroy() {
	if s == nil {
		return
	}
	s.data = nil
}

// Character classifiers.

func IsDigit(c byte) bool      { return c >= '0' && c <= '9' }
func IsAlpha(c byte) bool      { return unicode.IsLetter(rune(c)) || c == '_' }
func IsAlnum(c byte) bool      { return IsAlpha(c) || IsDigit(c) }
func IsWhitespace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }
func IsNewline(c byte) bool    { return c == '\n' }

// CharToString is char_to_string.
func CharToString(c byte) *String {
	return NewString(string(c))
}

// NumberToString is number_to_string: at least 6 significant digits, with
// a trailing ".0" for integral values per spec.md §9.
func NumberToString(v float64) *String {
	return NewString(FormatNumber(v))
}

// FormatNumber is the shared, test-deterministic float formatting rule
// from spec.md §9: human form, trailing ".0" for integral values.
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 1) {
		return "Infinity"
	}
	if math.IsInf(v, -1) {
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'g', 6, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// StringToNumber is string_to_number: NaN on failure.
func StringToNumber(s *String) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s.text()), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
