package render

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/standardbeagle/colorgrep/internal/color"
)

// terminalStyles holds the styles for one output stream. Colors are only
// emitted when the renderer detects a color-capable terminal.
type terminalStyles struct {
	r         *lipgloss.Renderer
	highlight lipgloss.Style
	label     lipgloss.Style
	muted     lipgloss.Style
	status    lipgloss.Style
	err       lipgloss.Style
}

func newTerminalStyles(r *lipgloss.Renderer) terminalStyles {
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return terminalStyles{
		r:         r,
		highlight: base.Bold(true).Underline(true).Foreground(lipgloss.Color("#ff6b6b")),
		label:     base.Foreground(lipgloss.Color("#81c784")),
		muted:     base.Faint(true),
		status:    base.Italic(true),
		err:       base.Bold(true).Foreground(lipgloss.Color("#e53935")),
	}
}

func (s terminalStyles) path(display string, isDark bool) string {
	var b strings.Builder
	for _, seg := range color.SplitPath(display) {
		if seg.Separator {
			b.WriteString(seg.Text)
			continue
		}
		hex := color.Semantic(seg.Text, isDark).Hex()
		b.WriteString(s.r.NewStyle().Foreground(lipgloss.Color(hex)).Render(seg.Text))
	}
	return b.String()
}

// Terminal writes the document as grep-style terminal text: a colored
// header per file, "N:" for matches, "N-" for context, "--" for gaps and
// a blank line between files.
func Terminal(doc Document, w io.Writer) error {
	return TerminalWith(doc, w, lipgloss.NewRenderer(w))
}

// TerminalWith is Terminal with an explicit lipgloss renderer, for callers
// that need to force or disable color.
func TerminalWith(doc Document, w io.Writer, r *lipgloss.Renderer) error {
	s := newTerminalStyles(r)
	bw := bufio.NewWriter(w)

	for _, n := range doc.Nodes {
		switch n := n.(type) {
		case *StatusNode:
			switch n.Status {
			case StatusNoResults:
				bw.WriteString(s.status.Render("No results found") + "\n")
			case StatusNoMatches:
				bw.WriteString(s.status.Render("No matches found") + "\n")
			default:
				bw.WriteString(s.err.Render("Error parsing search results: "+n.Message) + "\n")
			}
		case *SeparatorNode:
			bw.WriteString("\n")
		case *GroupNode:
			bw.WriteString(s.path(n.Header.DisplayPath, doc.IsDark) + "\n")
			for _, b := range n.Body {
				switch b := b.(type) {
				case *GapNode:
					bw.WriteString(s.muted.Render("--") + "\n")
				case *LineNode:
					writeTerminalLine(bw, s, b)
				}
			}
		}
	}
	return bw.Flush()
}

func writeTerminalLine(bw *bufio.Writer, s terminalStyles, n *LineNode) {
	marker := "-"
	if n.Kind == KindMatch {
		marker = ":"
	}
	bw.WriteString(s.label.Render(strconv.Itoa(n.Label)) + marker)
	for _, f := range n.Fragments {
		switch {
		case f.Highlight:
			bw.WriteString(s.highlight.Render(f.Text))
		case n.Kind == KindContext:
			bw.WriteString(s.muted.Render(f.Text))
		default:
			bw.WriteString(f.Text)
		}
	}
	bw.WriteString("\n")
}
