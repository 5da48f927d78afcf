package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/muesli/termenv"

	"github.com/standardbeagle/colorgrep/internal/config"
	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
	"github.com/standardbeagle/colorgrep/internal/render"
	"github.com/standardbeagle/colorgrep/internal/search"
)

// Output formats accepted by the search and render tools
const (
	FormatText = "text"
	FormatHTML = "html"
)

// SearchParams are the arguments of the search tool
type SearchParams struct {
	Text        string `json:"text"`
	FilePattern string `json:"file_pattern,omitempty"`
	Path        string `json:"path,omitempty"`
	IgnoreCase  bool   `json:"ignore_case,omitempty"`
	WholeWord   bool   `json:"whole_word,omitempty"`
	Regex       bool   `json:"regex,omitempty"`
	Format      string `json:"format,omitempty"`
	Theme       string `json:"theme,omitempty"`
}

// RenderParams are the arguments of the render tool
type RenderParams struct {
	JSONLines  string `json:"json_lines"`
	SearchPath string `json:"search_path,omitempty"`
	BaseDir    string `json:"base_dir,omitempty"`
	Format     string `json:"format,omitempty"`
	Theme      string `json:"theme,omitempty"`
}

// HistoryParams are the arguments of the history tool
type HistoryParams struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// SearchSummary is the structured part of a search or render result
type SearchSummary struct {
	HasResults bool         `json:"has_results"`
	ExitCode   int          `json:"exit_code"`
	Stats      render.Stats `json:"stats"`
	Warnings   []string     `json:"warnings,omitempty"`
	DurationMs int64        `json:"duration_ms"`
}

var errEmptyText = errors.New("text must not be empty")

var (
	formatSchema = &jsonschema.Schema{
		Type:        "string",
		Enum:        []any{FormatText, FormatHTML},
		Description: "Output format: text (plain lines) or html (panel markup). Default text.",
	}
	themeSchema = &jsonschema.Schema{
		Type:        "string",
		Enum:        []any{config.ThemeDark, config.ThemeLight, config.ThemeAuto},
		Description: "Palette for path colors in html output. Default from configuration.",
	}

	searchSchema = &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"text":         {Type: "string", Description: "Text to search for (a regex when regex is true)"},
			"file_pattern": {Type: "string", Description: "Comma separated globs, e.g. \"*.go, !*_test.go\""},
			"path":         {Type: "string", Description: "Comma separated files or directories, relative to the workspace"},
			"ignore_case":  {Type: "boolean"},
			"whole_word":   {Type: "boolean"},
			"regex":        {Type: "boolean", Description: "Treat text as a regular expression instead of a literal"},
			"format":       formatSchema,
			"theme":        themeSchema,
		},
		Required: []string{"text"},
	}

	renderSchema = &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"json_lines":  {Type: "string", Description: "Search tool --json output, one record per line"},
			"search_path": {Type: "string", Description: "Directory the search ran in; paths below it are shown relative"},
			"base_dir":    {Type: "string", Description: "Workspace root; absolute paths below it are shown relative"},
			"format":      formatSchema,
			"theme":       themeSchema,
		},
		Required: []string{"json_lines"},
	}

	historySchema = &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"action": {Type: "string", Enum: []any{"list", "delete", "suggest", "clear"}},
			"text":   {Type: "string", Description: "Entry to delete"},
			"prefix": {Type: "string", Description: "Prefix to complete"},
			"limit":  {Type: "integer", Minimum: jsonschema.Ptr(0.0)},
		},
		Required: []string{"action"},
	}

	resolvedSearch  = mustResolve(searchSchema)
	resolvedRender  = mustResolve(renderSchema)
	resolvedHistory = mustResolve(historySchema)
)

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return resolved
}

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "search",
		Description: "Search the workspace with ripgrep and return grouped, highlighted results. Literal text by default; set regex for patterns.",
		InputSchema: searchSchema,
	}, s.handleSearch)

	s.server.AddTool(&mcp.Tool{
		Name:        "render",
		Description: "Render existing ripgrep --json output as grouped results (text or panel html).",
		InputSchema: renderSchema,
	}, s.handleRender)

	s.server.AddTool(&mcp.Tool{
		Name:        "history",
		Description: "List, complete, delete or clear recent searches.",
		InputSchema: historySchema,
	}, s.handleHistory)
}

// decodeArgs validates raw tool arguments against schema and unmarshals them
func decodeArgs(req *mcp.CallToolRequest, schema *jsonschema.Resolved, out any) error {
	raw := json.RawMessage(`{}`)
	if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
		raw = req.Params.Arguments
	}

	var instance map[string]any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return json.Unmarshal(raw, out)
}

func (s *Server) resolveTheme(theme string) bool {
	if theme == "" {
		theme = s.cfg.Display.Theme
	}
	switch theme {
	case config.ThemeLight:
		return false
	case config.ThemeDark:
		return true
	default:
		return s.isDark
	}
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SearchParams
	if err := decodeArgs(req, resolvedSearch, &params); err != nil {
		return createErrorResponse("search", err)
	}
	if strings.TrimSpace(params.Text) == "" {
		return createErrorResponse("search", cgerrors.NewSearchError(params.Text, errEmptyText))
	}

	if s.history != nil {
		if _, err := s.history.Add(params.Text); err != nil {
			s.diagnosticLogger.Errorf("cannot save history: %v", err)
		}
	}

	isDark := s.resolveTheme(params.Theme)
	outcome, err := s.runner.Run(ctx, search.Request{
		Text:        params.Text,
		FilePattern: params.FilePattern,
		Path:        params.Path,
		Options: search.Options{
			IgnoreCase: params.IgnoreCase,
			WholeWord:  params.WholeWord,
			Regex:      params.Regex,
		},
	}, isDark)
	s.diagnosticLogger.Printf("search %q: exit=%d matches=%d in %s", params.Text, outcome.ExitCode, outcome.Stats.Matches, outcome.Duration)

	if err != nil && !outcome.HasResults {
		return createErrorResponse("search", err)
	}

	summary := SearchSummary{
		HasResults: outcome.HasResults,
		ExitCode:   outcome.ExitCode,
		Stats:      outcome.Stats,
		Warnings:   outcome.Warnings,
		DurationMs: outcome.Duration.Milliseconds(),
	}

	if params.Format == FormatHTML {
		return createResultResponse(outcome.HTML, summary)
	}

	doc := outcome.Document
	if len(doc.Nodes) == 0 {
		doc = render.Document{IsDark: isDark, Nodes: []render.Node{&render.StatusNode{Status: render.StatusNoMatches}}}
	}
	text, renderErr := plainText(doc)
	if renderErr != nil {
		return createErrorResponse("search", renderErr)
	}
	if outcome.Stderr != "" {
		text += "\n" + outcome.Stderr + "\n"
	}
	return createResultResponse(text, summary)
}

func (s *Server) handleRender(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params RenderParams
	if err := decodeArgs(req, resolvedRender, &params); err != nil {
		return createErrorResponse("render", err)
	}

	doc := render.Build(params.JSONLines, params.SearchPath, s.resolveTheme(params.Theme), params.BaseDir)
	summary := SearchSummary{
		HasResults: strings.TrimSpace(params.JSONLines) != "",
		Stats:      doc.Stats(),
	}
	if status := doc.Status(); status != nil && status.Status == render.StatusError {
		return createErrorResponse("render", fmt.Errorf("error parsing search results: %s", status.Message))
	}

	if params.Format == FormatHTML {
		return createResultResponse(render.HTML(doc), summary)
	}
	text, err := plainText(doc)
	if err != nil {
		return createErrorResponse("render", err)
	}
	return createResultResponse(text, summary)
}

func (s *Server) handleHistory(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params HistoryParams
	if err := decodeArgs(req, resolvedHistory, &params); err != nil {
		return createErrorResponse("history", err)
	}
	if s.history == nil {
		return createErrorResponse("history", fmt.Errorf("search history is not available"))
	}

	switch params.Action {
	case "list":
		return createJSONResponse(map[string]any{"history": s.history.Load()})
	case "suggest":
		return createJSONResponse(map[string]any{
			"prefix":      params.Prefix,
			"suggestions": s.history.Suggest(params.Prefix, params.Limit),
		})
	case "delete":
		if params.Text == "" {
			return createErrorResponse("history", fmt.Errorf("delete needs text"))
		}
		entries, err := s.history.Delete(params.Text)
		if err != nil {
			return createErrorResponse("history", err)
		}
		return createJSONResponse(map[string]any{"history": entries})
	case "clear":
		if err := s.history.Clear(); err != nil {
			return createErrorResponse("history", err)
		}
		return createJSONResponse(map[string]any{"history": []string{}})
	}
	return createErrorResponse("history", fmt.Errorf("unknown action %q", params.Action))
}

// plainText renders doc as uncolored terminal lines
func plainText(doc render.Document) (string, error) {
	var buf bytes.Buffer
	r := lipgloss.NewRenderer(&buf)
	r.SetColorProfile(termenv.Ascii)
	if err := render.TerminalWith(doc, &buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}
