package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Record
		ok       bool
	}{
		{
			name: "nested match",
			line: `{"type":"match","data":{"path":{"text":"./a.go"},"lines":{"text":"foo bar\n"},"line_number":3,"submatches":[{"match":{"text":"bar"},"start":4,"end":7}]}}`,
			expected: Record{
				Kind: KindMatch, FilePath: "./a.go", LineNumber: 3, LineText: "foo bar",
				Submatches: []Span{{Start: 4, End: 7}},
			},
			ok: true,
		},
		{
			name:     "nested context with string path",
			line:     `{"type":"context","data":{"path":"b.go","lines":{"text":"ctx\r\n"},"line_number":9,"submatches":[]}}`,
			expected: Record{Kind: KindContext, FilePath: "b.go", LineNumber: 9, LineText: "ctx"},
			ok:       true,
		},
		{
			name: "flat match with line_text",
			line: `{"type":"match","path":"c.go","line_number":1,"line_text":"xyz","matches":[{"start":0,"end":1}]}`,
			expected: Record{
				Kind: KindMatch, FilePath: "c.go", LineNumber: 1, LineText: "xyz",
				Submatches: []Span{{Start: 0, End: 1}},
			},
			ok: true,
		},
		{
			name:     "flat text field",
			line:     `{"type":"match","path":"c.go","line_number":2,"text":"from text"}`,
			expected: Record{Kind: KindMatch, FilePath: "c.go", LineNumber: 2, LineText: "from text"},
			ok:       true,
		},
		{
			name:     "context drops submatches",
			line:     `{"type":"context","path":"c.go","line_number":2,"line_text":"x","matches":[{"start":0,"end":1}]}`,
			expected: Record{Kind: KindContext, FilePath: "c.go", LineNumber: 2, LineText: "x"},
			ok:       true,
		},
		{
			name:     "base64 path and line",
			line:     `{"type":"match","data":{"path":{"bytes":"L3RtcC9m/w=="},"lines":{"bytes":"aGk="},"line_number":1,"submatches":[]}}`,
			expected: Record{Kind: KindMatch, FilePath: "/tmp/f\xff", LineNumber: 1, LineText: "hi"},
			ok:       true,
		},
		{
			name:     "nested without path falls back to flat path",
			line:     `{"type":"match","path":"flat.go","data":{"line_number":4,"lines":{"text":"q"}}}`,
			expected: Record{Kind: KindMatch, FilePath: "flat.go", LineNumber: 4, LineText: "q"},
			ok:       true,
		},
		{
			name:     "integral float line number",
			line:     `{"type":"match","path":"f.go","line_number":2.0,"line_text":"q"}`,
			expected: Record{Kind: KindMatch, FilePath: "f.go", LineNumber: 2, LineText: "q"},
			ok:       true,
		},
		{name: "fractional line number", line: `{"type":"match","path":"a.go","line_number":2.5,"line_text":"x"}`},
		{name: "line number as string", line: `{"type":"match","path":"a.go","line_number":"2","line_text":"x"}`},
		{name: "begin record", line: `{"type":"begin","data":{"path":{"text":"a.go"}}}`},
		{name: "summary record", line: `{"type":"summary","data":{"elapsed_total":{"secs":0,"nanos":1}}}`},
		{name: "missing path", line: `{"type":"match","data":{"line_number":1,"lines":{"text":"x"}}}`},
		{name: "missing line number", line: `{"type":"match","path":"a.go","line_text":"x"}`},
		{name: "zero line number", line: `{"type":"match","path":"a.go","line_number":0,"line_text":"x"}`},
		{name: "invalid json", line: `{"type":"match",`},
		{name: "not an object", line: `[1,2,3]`},
		{name: "blank", line: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := ParseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, rec)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	raw := `{"type":"begin","data":{"path":{"text":"b.go"}}}
{"type":"match","data":{"path":{"text":"b.go"},"lines":{"text":"one\n"},"line_number":5,"submatches":[]}}
not json at all
{"type":"match","path":"a.go","line_number":1,"line_text":"two"}

{"type":"context","data":{"path":{"text":"b.go"},"lines":{"text":"three\n"},"line_number":2,"submatches":[]}}
{"type":"end","data":{"path":{"text":"b.go"}}}`

	groups, hasContext, parsed := Collect(raw)

	assert.True(t, hasContext)
	assert.Equal(t, 3, parsed)
	require.Len(t, groups, 2)
	assert.Equal(t, "b.go", groups[0].Path)
	assert.Equal(t, "a.go", groups[1].Path)

	// stream order is kept within a group, even when line numbers go backwards
	require.Len(t, groups[0].Records, 2)
	assert.Equal(t, 5, groups[0].Records[0].LineNumber)
	assert.Equal(t, 2, groups[0].Records[1].LineNumber)
}

func TestCollectGroupsByRawPath(t *testing.T) {
	raw := `{"type":"match","path":"./a.go","line_number":1,"line_text":"x"}
{"type":"match","path":"a.go","line_number":2,"line_text":"y"}`

	groups, hasContext, parsed := Collect(raw)
	assert.False(t, hasContext)
	assert.Equal(t, 2, parsed)
	assert.Len(t, groups, 2)
}
