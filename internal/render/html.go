package render

import (
	"strconv"
	"strings"

	"github.com/standardbeagle/colorgrep/internal/color"
)

const highlightOpen = `<span style="font-weight: bold; color: #ff6b6b; text-decoration: underline;">`

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// jsEscaper escapes a value for a single-quoted JavaScript string literal.
var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	"'", `\'`,
	`"`, `\"`,
	"\r", `\r`,
	"\n", `\n`,
	"\t", `\t`,
	"\v", `\v`,
	"\f", `\f`,
)

// EscapeHTML escapes & < > " and ' for HTML text and attribute values.
// Invalid UTF-8 becomes U+FFFD.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(strings.ToValidUTF8(s, "\uFFFD"))
}

// EscapeJS escapes s for embedding in a single-quoted JavaScript string.
func EscapeJS(s string) string {
	return jsEscaper.Replace(strings.ToValidUTF8(s, "\uFFFD"))
}

// ConvertMatchStreamToMarkup renders raw tool output straight to panel markup.
func ConvertMatchStreamToMarkup(raw, searchPath string, isDark bool, baseDir string) string {
	return HTML(Build(raw, searchPath, isDark, baseDir))
}

// HTML serializes a Document as panel markup. Only text leaves are
// escaped; the markup around them is emitted verbatim.
func HTML(doc Document) string {
	var b strings.Builder
	for _, n := range doc.Nodes {
		switch n := n.(type) {
		case *StatusNode:
			writeStatus(&b, n)
		case *GroupNode:
			writeGroup(&b, n, doc.IsDark)
		case *SeparatorNode:
			b.WriteString(`<div class="group-separator context-element"></div>`)
		}
	}
	return b.String()
}

// StatusMarkup returns the markup for a status outcome.
func StatusMarkup(status Status, message string) string {
	var b strings.Builder
	writeStatus(&b, &StatusNode{Status: status, Message: message})
	return b.String()
}

func writeStatus(b *strings.Builder, n *StatusNode) {
	switch n.Status {
	case StatusNoResults:
		b.WriteString(`<div class="error">No results found</div>`)
	case StatusNoMatches:
		b.WriteString(`<div class="no-matches">No matches found</div>`)
	default:
		b.WriteString(`<div class="error">Error parsing search results: `)
		b.WriteString(EscapeHTML(n.Message))
		b.WriteString(`</div>`)
	}
}

func coloredPath(display string, isDark bool) string {
	return color.ApplyToPath(EscapeHTML(display), isDark)
}

func writeGroup(b *strings.Builder, g *GroupNode, isDark bool) {
	b.WriteString(`<div class="search-group">`)
	b.WriteString(`<div class="filename-group" data-file="`)
	b.WriteString(EscapeHTML(g.Header.DisplayPath))
	b.WriteString(`">`)
	b.WriteString(coloredPath(g.Header.DisplayPath, isDark))
	b.WriteString(`</div>`)

	for _, n := range g.Body {
		switch n := n.(type) {
		case *GapNode:
			b.WriteString(`<div class="context-gap"></div>`)
		case *LineNode:
			writeLine(b, n, isDark)
		}
	}
	b.WriteString(`</div>`)
}

func writeLine(b *strings.Builder, n *LineNode, isDark bool) {
	prefix, marker := "context", "-"
	if n.Kind == KindMatch {
		prefix, marker = "match", ":"
	}

	b.WriteString(`<div class="` + prefix + `-line">`)
	b.WriteString(`<a href="#" onclick="openFile('`)
	b.WriteString(EscapeHTML(EscapeJS(n.AbsPath)))
	b.WriteString(`', `)
	b.WriteString(strconv.Itoa(n.Line))
	b.WriteString(`); return false;" class="` + prefix + `-link">`)
	b.WriteString(`<span class="file-path">`)
	b.WriteString(coloredPath(n.DisplayPath, isDark))
	b.WriteString(`:</span><span class="line-number">`)
	b.WriteString(strconv.Itoa(n.Label))
	b.WriteString(`</span>` + marker + `</a>`)
	b.WriteString(`<span class="` + prefix + `-content">`)
	for _, f := range n.Fragments {
		if f.Highlight {
			b.WriteString(highlightOpen)
			b.WriteString(EscapeHTML(f.Text))
			b.WriteString(`</span>`)
		} else {
			b.WriteString(EscapeHTML(f.Text))
		}
	}
	b.WriteString(`</span></div>`)
}
