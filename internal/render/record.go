// Package render turns the JSON-lines output of a search tool into a
// grouped, colorized result document and serializes it as panel markup
// or terminal text.
//
// The pipeline is: wire records -> canonical Records -> file Groups ->
// Document nodes -> HTML / terminal output. Every step is a pure function
// of its input and safe for concurrent use.
package render

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strings"
)

// Kind distinguishes match lines from surrounding context lines.
type Kind string

const (
	KindMatch   Kind = "match"
	KindContext Kind = "context"
)

// Span is a half-open byte range [Start, End) into a line.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Record is one match or context line, independent of which wire shape
// the search tool used to report it.
type Record struct {
	Kind       Kind
	FilePath   string
	LineNumber int
	LineText   string
	Submatches []Span
}

// textValue decodes a field that is either a plain string or an object
// {"text": "..."} / {"bytes": "<base64>"}. The bytes form is what ripgrep
// emits for paths and lines that are not valid UTF-8.
type textValue struct {
	value string
	set   bool
}

func (t *textValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &t.value); err != nil {
			return err
		}
		t.set = true
		return nil
	}

	var obj struct {
		Text  *string `json:"text"`
		Bytes *string `json:"bytes"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.Text != nil:
		t.value, t.set = *obj.Text, true
	case obj.Bytes != nil:
		raw, err := base64.StdEncoding.DecodeString(*obj.Bytes)
		if err != nil {
			return err
		}
		t.value, t.set = string(raw), true
	}
	return nil
}

// lineNumber accepts integral JSON numbers written either way, 2 or 2.0.
// A fractional or out of range value decodes as 0, which Normalize rejects.
type lineNumber int

func (n *lineNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		*n = 0
		return nil
	}
	*n = lineNumber(f)
	return nil
}

// String returns the decoded value, or "" when the field was absent or null.
func (t *textValue) String() string {
	if t == nil {
		return ""
	}
	return t.value
}

// wireFields holds the fields shared by both wire shapes. In the nested
// shape they live under "data"; in the flat shape at the top level.
type wireFields struct {
	Path       *textValue  `json:"path"`
	LineNumber *lineNumber `json:"line_number"`
	Lines      *textValue  `json:"lines"`
	Text       *string     `json:"text"`
	LineText   *string     `json:"line_text"`
	Submatches []Span      `json:"submatches"`
	Matches    []Span      `json:"matches"`
}

// wireRecord is one decoded line of tool output. Data is set for the
// nested shape (ripgrep --json); the embedded fields carry the flat shape.
type wireRecord struct {
	Type string      `json:"type"`
	Data *wireFields `json:"data"`
	wireFields
}

// fields returns the field set the record's payload lives in.
func (w *wireRecord) fields() *wireFields {
	if w.Data != nil {
		return w.Data
	}
	return &w.wireFields
}

// path prefers the nested path, then the flat one.
func (w *wireRecord) path() string {
	if w.Data != nil && w.Data.Path.String() != "" {
		return w.Data.Path.String()
	}
	return w.wireFields.Path.String()
}

// lineText returns the first non-empty of lines.text, text and line_text.
func (f *wireFields) lineText() string {
	if s := f.Lines.String(); s != "" {
		return s
	}
	if f.Text != nil && *f.Text != "" {
		return *f.Text
	}
	if f.LineText != nil {
		return *f.LineText
	}
	return ""
}

func (f *wireFields) spans() []Span {
	if len(f.Submatches) > 0 {
		return f.Submatches
	}
	return f.Matches
}

// ParseLine decodes one line of tool output into a Record.
// It reports false for blank lines, malformed JSON and records that are
// not usable match or context lines.
func ParseLine(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, false
	}

	var w wireRecord
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return Record{}, false
	}
	return Normalize(w)
}

// Normalize converts either wire shape into a canonical Record.
// Records without a path, with a line number below 1, or of any type
// other than match or context are rejected.
func Normalize(w wireRecord) (Record, bool) {
	kind := Kind(w.Type)
	if kind != KindMatch && kind != KindContext {
		return Record{}, false
	}

	path := w.path()
	if path == "" {
		return Record{}, false
	}

	f := w.fields()
	if f.LineNumber == nil || *f.LineNumber < 1 {
		return Record{}, false
	}

	rec := Record{
		Kind:       kind,
		FilePath:   path,
		LineNumber: int(*f.LineNumber),
		LineText:   trimLineTerminator(f.lineText()),
	}
	if kind == KindMatch {
		rec.Submatches = append([]Span(nil), f.spans()...)
	}
	return rec, true
}

// trimLineTerminator drops the single trailing newline the tool reports
// as part of each line.
func trimLineTerminator(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
