package argparse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShellArguments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", "   \t ", []string{}},
		{"simple", "foo bar", []string{"foo", "bar"}},
		{"double quoted", `foo "bar baz" qux`, []string{"foo", "bar baz", "qux"}},
		{"single quoted", `'a b' c`, []string{"a b", "c"}},
		{"opposing quote is literal", `"it's here"`, []string{"it's here"}},
		{"quote joins adjacent text", `pre"mid dle"post`, []string{"premid dlepost"}},
		{"unterminated quote flushes rest", `foo "bar baz`, []string{"foo", "bar baz"}},
		{"empty quotes produce nothing", `a "" b`, []string{"a", "b"}},
		{"backslash is literal", `a\ b`, []string{`a\`, "b"}},
		{"tabs and newlines split", "a\tb\nc", []string{"a", "b", "c"}},
		{"unicode", "héllo wörld", []string{"héllo", "wörld"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseShellArguments(tt.input))
		})
	}
}

func TestParseShellArgumentsIdempotentWithoutQuotes(t *testing.T) {
	inputs := []string{"a b  c", "  leading", "trailing  ", "x\ty\nz", "*.go src/ lib"}
	for _, input := range inputs {
		first := ParseShellArguments(input)
		second := ParseShellArguments(strings.Join(first, " "))
		assert.Equal(t, first, second, "input %q", input)
	}
}

func TestParseCSVInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", "  ", []string{}},
		{"simple", "*.py,*.ts", []string{"*.py", "*.ts"}},
		{"quoted", `*.py,"*.ts"`, []string{"*.py", "*.ts"}},
		{"quoted with space", `./csv/,"./A B/"`, []string{"./csv/", "./A B/"}},
		{"trims tokens", " a , b ,c ", []string{"a", "b", "c"}},
		{"drops blanks", "a,, ,b,", []string{"a", "b"}},
		{"comma inside quotes", `"a,b",c`, []string{"a,b", "c"}},
		{"doubled double quote", `"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{"doubled single quote", `'it''s'`, []string{"it's"}},
		{"unterminated quote keeps rest", `a,"b,c`, []string{"a", "b,c"}},
		{"spaces are not separators", "a b,c", []string{"a b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSVInput(tt.input))
		})
	}
}

func TestHasGlobChars(t *testing.T) {
	for _, p := range []string{"*.go", "a?c", "[ab]", "x]", "{a,b}", "}"} {
		assert.True(t, HasGlobChars(p), p)
	}
	for _, p := range []string{"", "src", "./a/b.go", "C:\\dir"} {
		assert.False(t, HasGlobChars(p), p)
	}
}

func TestProcessFilePattern(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "A B"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.go"), []byte("package x"), 0644))
	absDir := filepath.Join(root, "src")

	tests := []struct {
		name      string
		pattern   string
		root      string
		multiMode bool
		expected  []string
	}{
		{"blank", "   ", root, true, []string{"."}},
		{"empty", "", "", false, []string{"."}},
		{"only empty quotes", `""`, root, true, []string{"."}},
		{"directory gets slash", "src", root, true, []string{"src/"}},
		{"directory with slash unchanged", "src/", root, true, []string{"src/"}},
		{"absolute directory", absDir, root, true, []string{absDir + "/"}},
		{"file unchanged", "file.go", root, true, []string{"file.go"}},
		{"missing passes through", "nope", root, true, []string{"nope"}},
		{"glob never checked on disk", "src*", root, true, []string{"src*"}},
		{"no workspace root", "src", "", true, []string{"src"}},
		{"multi mode splits", `src file.go "A B"`, root, true, []string{"src/", "file.go", "A B/"}},
		{"single mode keeps whole input", " A B ", root, false, []string{"A B/"}},
		{"single mode with spaces not a dir", "src file.go", root, false, []string{"src file.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ProcessFilePattern(tt.pattern, tt.root, tt.multiMode))
		})
	}
}
