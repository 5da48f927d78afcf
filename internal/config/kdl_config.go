package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/colorgrep/internal/debug"
	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
)

// ApplyKDLFile applies the KDL file at path on top of cfg.
// It reports false without error when the file does not exist.
func ApplyKDLFile(cfg *Config, path string) (bool, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, cgerrors.NewFileError("read", path, err)
	}

	dir := filepath.Dir(path)
	if err := applyKDL(cfg, string(content), dir); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	cfg.ConfigDir = dir
	debug.Printf("applied config %s\n", path)
	return true, nil
}

// parseKDL parses content on top of the defaults for the working directory
func parseKDL(content string) (*Config, error) {
	defaultRoot, _ := os.Getwd()
	if defaultRoot == "" {
		defaultRoot = "."
	}
	cfg := Default(defaultRoot)
	if err := applyKDL(cfg, content, defaultRoot); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyKDL walks the KDL document and overrides the settings it names.
// A relative project root is resolved against dir.
func applyKDL(cfg *Config, content string, dir string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children { // project { root "." }
				assignSimpleString(cn, "root", func(v string) {
					if !filepath.IsAbs(v) {
						v = filepath.Join(dir, v)
					}
					cfg.Project.Root = filepath.Clean(v)
				})
			}
		case "tool":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "binary":
					if s, ok := firstStringArg(cn); ok {
						cfg.Tool.Binary = s
					}
				case "timeout_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Tool.TimeoutMs = v
					}
				case "context_lines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Tool.ContextLines = v
					}
				case "max_output":
					if v, ok := firstIntArg(cn); ok {
						cfg.Tool.MaxOutputBytes = int64(v)
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Tool.MaxOutputBytes = sz
						} else {
							return cgerrors.NewConfigError("tool.max_output", s, err)
						}
					}
				case "args":
					cfg.Tool.ExtraArgs = collectStringArgs(cn)
				}
			}
		case "display":
			for _, cn := range n.Children {
				assignSimpleString(cn, "theme", func(v string) { cfg.Display.Theme = strings.ToLower(v) })
			}
		case "editor":
			for _, cn := range n.Children {
				assignSimpleString(cn, "command", func(v string) { cfg.Editor.Command = v })
			}
		case "history":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_entries":
					if v, ok := firstIntArg(cn); ok {
						cfg.History.MaxEntries = v
					}
				case "dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.History.Dir = s
					}
				case "suggest_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.History.SuggestThreshold = v
					}
				}
			}
		case "server":
			for _, cn := range n.Children {
				assignSimpleString(cn, "socket", func(v string) { cfg.Server.Socket = v })
			}
		case "exclude":
			cfg.Exclude = mergeExcludes(cfg.Exclude, collectStringArgs(n))
		}
	}

	return nil
}

// Helper functions leveraging kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}
func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}
func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		debug.Printf("WARNING: invalid float value for '%s' in KDL config, expected number but got %T\n", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	// inline format: exclude "a" "b"
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// block format: exclude { "a"; "b" } where each node name is the value
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}
func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}

// Format renders cfg as a KDL document that applyKDL reads back unchanged.
func Format(cfg *Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "project {\n    root %s\n}\n\n", strconv.Quote(cfg.Project.Root))

	b.WriteString("tool {\n")
	fmt.Fprintf(&b, "    binary %s\n", strconv.Quote(cfg.Tool.Binary))
	fmt.Fprintf(&b, "    timeout_ms %d\n", cfg.Tool.TimeoutMs)
	fmt.Fprintf(&b, "    context_lines %d\n", cfg.Tool.ContextLines)
	fmt.Fprintf(&b, "    max_output %d\n", cfg.Tool.MaxOutputBytes)
	if len(cfg.Tool.ExtraArgs) > 0 {
		fmt.Fprintf(&b, "    args %s\n", quoteAll(cfg.Tool.ExtraArgs))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "display {\n    theme %s\n}\n\n", strconv.Quote(cfg.Display.Theme))
	fmt.Fprintf(&b, "editor {\n    command %s\n}\n\n", strconv.Quote(cfg.Editor.Command))

	b.WriteString("history {\n")
	fmt.Fprintf(&b, "    max_entries %d\n", cfg.History.MaxEntries)
	fmt.Fprintf(&b, "    dir %s\n", strconv.Quote(cfg.History.Dir))
	fmt.Fprintf(&b, "    suggest_threshold %s\n", strconv.FormatFloat(cfg.History.SuggestThreshold, 'f', -1, 64))
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "server {\n    socket %s\n}\n", strconv.Quote(cfg.Server.Socket))

	if len(cfg.Exclude) > 0 {
		fmt.Fprintf(&b, "\nexclude %s\n", quoteAll(cfg.Exclude))
	}
	return b.String()
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, " ")
}
