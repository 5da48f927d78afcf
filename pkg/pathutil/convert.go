// Package pathutil converts between the paths a search tool reports and
// the paths shown to users or handed to an editor.
//
// The search tool reports paths relative to its working directory, with a
// leading "./", or absolute, depending on how it was invoked. Display
// output should be relative to the workspace whenever that is safe, while
// "open at location" actions need absolute paths.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go" (outside root)
//   - ToRelative("src/main.go", "/home/user/project") → "src/main.go" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// A leading ".." means the file is outside the root; the absolute path is clearer
	if escapesRoot(relPath) {
		return absPath
	}

	return relPath
}

// escapesRoot reports whether a filepath.Rel result leaves its root
func escapesRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// DisplayPath derives the label shown for a file reported by the search tool.
//
// A leading "./" is stripped. An absolute path is made relative to baseDir
// when baseDir is known and the result stays inside it; otherwise a path
// under searchPath is made relative to searchPath. Anything else is shown
// as reported. A path equal to its root is shown by its base name.
func DisplayPath(filePath, searchPath, baseDir string) string {
	display := strings.TrimPrefix(filePath, "./")

	if baseDir != "" && filepath.IsAbs(filePath) {
		rel := ToRelative(filePath, baseDir)
		if filepath.IsAbs(rel) {
			return display
		}
		if rel == "." {
			return filepath.Base(filePath)
		}
		return rel
	}

	if searchPath != "" && searchPath != "." && strings.HasPrefix(filePath, searchPath) {
		rel, err := filepath.Rel(searchPath, filePath)
		if err != nil || escapesRoot(rel) {
			return display
		}
		if rel == "" || rel == "." {
			return filepath.Base(filePath)
		}
		return rel
	}

	return display
}

// AbsolutePath returns the path an editor should open for filePath.
// Relative paths are joined onto baseDir when it is known.
func AbsolutePath(filePath, baseDir string) string {
	if baseDir != "" && !filepath.IsAbs(filePath) {
		return filepath.Join(baseDir, filePath)
	}
	return filePath
}
