package render

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/standardbeagle/colorgrep/internal/debug"
	"github.com/standardbeagle/colorgrep/pkg/pathutil"
)

// Status identifies the degenerate outcomes of a render.
type Status int

const (
	// StatusNoResults means the tool produced no output at all
	StatusNoResults Status = iota + 1
	// StatusNoMatches means output was present but held no usable records
	StatusNoMatches
	// StatusError means rendering failed; Message carries the cause
	StatusError
)

// Node is one element of a rendered Document.
type Node interface {
	node()
}

// StatusNode replaces all other nodes when there is nothing to show.
type StatusNode struct {
	Status  Status
	Message string
}

// GroupNode is one file: its header followed by line and gap nodes.
type GroupNode struct {
	Header HeaderNode
	Body   []Node
}

// HeaderNode labels a group with the file's display path.
type HeaderNode struct {
	DisplayPath string
}

// LineNode is a clickable match or context line.
type LineNode struct {
	Kind        Kind
	DisplayPath string
	// AbsPath is the path handed to the "open at location" action
	AbsPath string
	// Line is zero-based for editors; Label is the tool's 1-based number
	Line      int
	Label     int
	Fragments []Fragment
}

// GapNode marks a jump in line numbers within a group.
type GapNode struct{}

// SeparatorNode divides two consecutive groups.
type SeparatorNode struct{}

func (*StatusNode) node()    {}
func (*GroupNode) node()     {}
func (*LineNode) node()      {}
func (*GapNode) node()       {}
func (*SeparatorNode) node() {}

// Fragment is a run of line text, highlighted when it is part of a match.
type Fragment struct {
	Text      string
	Highlight bool
}

// Document is the structured result of rendering one search.
type Document struct {
	IsDark bool
	Nodes  []Node
}

// Status returns the document's status node, or nil when it has groups.
func (d Document) Status() *StatusNode {
	if len(d.Nodes) == 1 {
		if s, ok := d.Nodes[0].(*StatusNode); ok {
			return s
		}
	}
	return nil
}

// Build renders raw tool output into a Document.
//
// searchPath is the directory the tool ran against and baseDir the
// workspace root, if any; both only affect displayed and clickable paths.
// Build never panics: any failure becomes a StatusError document.
func Build(raw, searchPath string, isDark bool, baseDir string) (doc Document) {
	doc.IsDark = isDark
	defer func() {
		if r := recover(); r != nil {
			debug.Log("RENDER", "recovered from panic: %v\n", r)
			doc.Nodes = []Node{&StatusNode{Status: StatusError, Message: fmt.Sprint(r)}}
		}
	}()

	if strings.TrimSpace(raw) == "" {
		doc.Nodes = []Node{&StatusNode{Status: StatusNoResults}}
		return doc
	}

	groups, hasContext, _ := Collect(raw)
	if len(groups) == 0 {
		doc.Nodes = []Node{&StatusNode{Status: StatusNoMatches}}
		return doc
	}

	for i, group := range groups {
		if i > 0 {
			doc.Nodes = append(doc.Nodes, &SeparatorNode{})
		}
		doc.Nodes = append(doc.Nodes, buildGroup(group, hasContext, searchPath, baseDir))
	}
	return doc
}

func buildGroup(group Group, hasContext bool, searchPath, baseDir string) *GroupNode {
	node := &GroupNode{
		Header: HeaderNode{DisplayPath: pathutil.DisplayPath(group.Records[0].FilePath, searchPath, baseDir)},
		Body:   make([]Node, 0, len(group.Records)),
	}

	previous := -1
	for _, rec := range group.Records {
		// the gap check is gated on context anywhere in the stream, not per file
		if hasContext && previous != -1 && rec.LineNumber-previous > 1 {
			node.Body = append(node.Body, &GapNode{})
		}
		previous = rec.LineNumber

		line := &LineNode{
			Kind:        rec.Kind,
			DisplayPath: pathutil.DisplayPath(rec.FilePath, searchPath, baseDir),
			AbsPath:     pathutil.AbsolutePath(rec.FilePath, baseDir),
			Line:        rec.LineNumber - 1,
			Label:       rec.LineNumber,
		}
		if rec.Kind == KindMatch {
			line.Fragments = Highlight(rec.LineText, rec.Submatches)
		} else {
			line.Fragments = plain(rec.LineText)
		}
		node.Body = append(node.Body, line)
	}
	return node
}

func plain(text string) []Fragment {
	if text == "" {
		return nil
	}
	return []Fragment{{Text: text}}
}

// Highlight cuts text into fragments around the given byte spans.
//
// Spans are processed by descending start so each cut leaves the offsets
// of the remaining spans valid. Ends are clamped to the text; empty spans
// and spans that overlap one already cut are skipped. A boundary inside a
// multi-byte character is widened to the enclosing rune.
func Highlight(text string, spans []Span) []Fragment {
	if len(spans) == 0 {
		return plain(text)
	}

	sorted := append([]Span(nil), spans...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	// built back to front, reversed at the end
	var reversed []Fragment
	limit := len(text)
	for _, span := range sorted {
		start, end := span.Start, span.End
		if end > len(text) {
			end = len(text)
		}
		if start < 0 {
			start = 0
		}
		start = runeStart(text, start)
		end = runeEnd(text, end)
		if start >= end || end > limit {
			continue
		}

		if end < limit {
			reversed = append(reversed, Fragment{Text: text[end:limit]})
		}
		reversed = append(reversed, Fragment{Text: text[start:end], Highlight: true})
		limit = start
	}
	if limit > 0 {
		reversed = append(reversed, Fragment{Text: text[:limit]})
	}

	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed
}

// runeStart moves i left to the start of the rune containing it.
func runeStart(s string, i int) int {
	if i >= len(s) {
		return i
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeEnd moves i right past the end of the rune containing it.
func runeEnd(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

// Stats summarizes a Document.
type Stats struct {
	Files   int `json:"files"`
	Matches int `json:"matches"`
	Context int `json:"context"`
}

// Stats counts files, match lines and context lines in the document.
func (d Document) Stats() Stats {
	var s Stats
	for _, n := range d.Nodes {
		group, ok := n.(*GroupNode)
		if !ok {
			continue
		}
		s.Files++
		for _, b := range group.Body {
			line, ok := b.(*LineNode)
			if !ok {
				continue
			}
			if line.Kind == KindMatch {
				s.Matches++
			} else {
				s.Context++
			}
		}
	}
	return s
}
