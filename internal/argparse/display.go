package argparse

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/colorgrep/internal/debug"
)

// Display holds the normalized strings echoed back into the panel inputs
// after a search, so the user sees how their input was tokenized.
type Display struct {
	SearchText  string `json:"searchTextDisplay"`
	FilePattern string `json:"filePatternDisplay"`
	Path        string `json:"pathDisplay"`
}

// DisplayStrings re-joins the tokenized file pattern and path inputs.
// Tokens containing a space or a double quote are wrapped in double quotes.
func DisplayStrings(searchText, filePattern, path string) Display {
	return Display{
		SearchText:  searchText,
		FilePattern: joinTokens(ParseShellArguments(filePattern)),
		Path:        joinTokens(ParseShellArguments(path)),
	}
}

func joinTokens(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, token := range tokens {
		if strings.ContainsAny(token, " \"") {
			quoted[i] = `"` + token + `"`
		} else {
			quoted[i] = token
		}
	}
	return strings.Join(quoted, " ")
}

// ValidateGlobs returns one warning per pattern that is not a valid glob.
// Invalid patterns are still handed to the search tool, which has the
// final say on glob syntax.
func ValidateGlobs(patterns []string) []string {
	var warnings []string
	for _, pattern := range patterns {
		// a leading "!" negates the glob for the search tool
		glob := strings.TrimPrefix(pattern, "!")
		if !doublestar.ValidatePattern(glob) {
			debug.LogSearch("invalid glob pattern %q\n", pattern)
			warnings = append(warnings, "invalid glob pattern: "+pattern)
		}
	}
	return warnings
}
