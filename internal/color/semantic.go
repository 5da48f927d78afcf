// Package color assigns deterministic display colors to path segments.
//
// The same segment always gets the same color for a given theme, so a
// directory name repeated across a result list is recognizable at a
// glance without any lookup table.
package color

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

// HSL is a color in hue/saturation/lightness form.
// H is in degrees [0,360), S and L are percentages.
type HSL struct {
	H int
	S int
	L int
}

// String renders the color as a CSS hsl() value.
func (c HSL) String() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", c.H, c.S, c.L)
}

// Hex renders the color as #rrggbb for terminals and other non-CSS sinks.
func (c HSL) Hex() string {
	return colorful.Hsl(float64(c.H), float64(c.S)/100, float64(c.L)/100).Clamped().Hex()
}

// Hash is the 32-bit signed string hash over UTF-16 code units:
// hash = hash*31 + unit, wrapping on overflow.
func Hash(segment string) int32 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(segment)) {
		hash = hash*31 + int32(unit)
	}
	return hash
}

// Semantic returns the color for segment. Dark themes get lightness in
// [60,79], light themes [30,49]; saturation is always in [60,79].
func Semantic(segment string, isDark bool) HSL {
	abs := int64(Hash(segment))
	if abs < 0 {
		abs = -abs
	}

	lightness := 30 + int(abs%20)
	if isDark {
		lightness = 60 + int(abs%20)
	}

	return HSL{
		H: int(abs % 360),
		S: 60 + int(abs%20),
		L: lightness,
	}
}

// Segment is one piece of a path split on separators.
type Segment struct {
	Text      string
	Separator bool
}

// SplitPath splits pathText on "/" and "\", keeping each separator as its
// own segment. Empty pieces are dropped.
func SplitPath(pathText string) []Segment {
	var segments []Segment
	start := 0
	for i := 0; i < len(pathText); i++ {
		if pathText[i] != '/' && pathText[i] != '\\' {
			continue
		}
		if i > start {
			segments = append(segments, Segment{Text: pathText[start:i]})
		}
		segments = append(segments, Segment{Text: pathText[i : i+1], Separator: true})
		start = i + 1
	}
	if start < len(pathText) {
		segments = append(segments, Segment{Text: pathText[start:]})
	}
	return segments
}

// ApplyToPath wraps every non-separator segment of pathText in a colored
// span. The input must already be HTML-escaped; nothing is escaped here.
func ApplyToPath(pathText string, isDark bool) string {
	var b strings.Builder
	for _, seg := range SplitPath(pathText) {
		if seg.Separator {
			b.WriteString(seg.Text)
			continue
		}
		b.WriteString(`<span style="color: `)
		b.WriteString(Semantic(seg.Text, isDark).String())
		b.WriteString(`;">`)
		b.WriteString(seg.Text)
		b.WriteString(`</span>`)
	}
	return b.String()
}
