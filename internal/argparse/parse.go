// Package argparse turns free-form pattern and path text typed into the
// search panel into the argument lists handed to the search tool.
//
// Two quoting dialects are supported: whitespace-delimited shell style
// and comma-delimited CSV style. Neither ever fails; malformed quoting
// degrades to literal text.
package argparse

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// globChars are the metacharacters that mark a token as a glob rather than a path
const globChars = "*?[]{}"

// ParseShellArguments splits input on whitespace outside quotes.
//
// A single or double quote opens a quoted section that only the same
// character closes. Quote characters are not part of the token and there
// is no escape character. A token still open at the end of input is
// flushed as the final token.
func ParseShellArguments(input string) []string {
	args := []string{}
	var current strings.Builder
	var quote rune

	for _, r := range input {
		switch {
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && unicode.IsSpace(r):
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

// ParseCSVInput splits input on commas outside quotes and trims each token.
//
// Inside a quoted section a doubled quote character yields one literal
// quote. Blank tokens are dropped.
func ParseCSVInput(input string) []string {
	result := []string{}
	if strings.TrimSpace(input) == "" {
		return result
	}

	var current strings.Builder
	var quote rune
	runes := []rune(input)

	flush := func() {
		if token := strings.TrimSpace(current.String()); token != "" {
			result = append(result, token)
		}
		current.Reset()
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case quote != 0 && r == quote:
			if i+1 < len(runes) && runes[i+1] == quote {
				current.WriteRune(r)
				i++
				continue
			}
			quote = 0
		case quote == 0 && r == ',':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return result
}

// HasGlobChars reports whether pattern contains any of * ? [ ] { }.
func HasGlobChars(pattern string) bool {
	return strings.ContainsAny(pattern, globChars)
}

// ProcessFilePattern expands a user pattern into the path arguments for
// the search tool.
//
// A blank pattern means "search everything" and yields ".". In multi mode
// the pattern is tokenized with ParseShellArguments, otherwise the trimmed
// input is one token. When workspaceRoot is known, every token without
// glob characters that names an existing directory gets a trailing "/".
// Tokens that cannot be checked on disk pass through unchanged.
func ProcessFilePattern(pattern, workspaceRoot string, multiMode bool) []string {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return []string{"."}
	}

	var tokens []string
	if multiMode {
		tokens = ParseShellArguments(trimmed)
	} else {
		tokens = []string{trimmed}
	}
	if len(tokens) == 0 {
		return []string{"."}
	}

	processed := make([]string, 0, len(tokens))
	for _, token := range tokens {
		processed = append(processed, markDirectory(token, workspaceRoot))
	}
	return processed
}

// markDirectory appends "/" to token when it names an existing directory
func markDirectory(token, workspaceRoot string) string {
	if workspaceRoot == "" || HasGlobChars(token) || strings.HasSuffix(token, "/") {
		return token
	}

	candidate := token
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(workspaceRoot, token)
	}

	info, err := os.Stat(candidate)
	if err != nil || !info.IsDir() {
		return token
	}
	return token + "/"
}
