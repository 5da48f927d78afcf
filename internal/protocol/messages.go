// Package protocol defines the messages exchanged between a results panel
// and colorgrep. Every message is a JSON object whose "command" field names
// its type.
package protocol

import "github.com/standardbeagle/colorgrep/internal/argparse"

// Inbound commands, sent by the panel.
const (
	CommandSearch             = "search"
	CommandDeleteHistory      = "deleteHistory"
	CommandOpenFile           = "openFile"
	CommandRequestInitialData = "requestInitialData"
	CommandSuggestHistory     = "suggestHistory"
)

// Outbound commands, sent to the panel.
const (
	CommandThemeInfo          = "themeInfo"
	CommandSearchHistory      = "searchHistory"
	CommandBaseDirInfo        = "baseDirInfo"
	CommandSetDisplayStrings  = "setDisplayStrings"
	CommandSearchResult       = "searchResult"
	CommandFocusSearchInput   = "focusSearchInput"
	CommandHistorySuggestions = "historySuggestions"
	CommandError              = "error"
)

// Inbound is a message from the panel
type Inbound interface {
	Command() string
}

// Outbound is a message to the panel
type Outbound interface {
	Command() string
}

// SearchOptions are the toggles sent with a search. Context and Multi are
// accepted for compatibility; context lines come from configuration and
// comma splitting is always on.
type SearchOptions struct {
	IgnoreCase bool  `json:"ignoreCase"`
	WholeWord  bool  `json:"wholeWord"`
	Regex      bool  `json:"regex"`
	Context    *bool `json:"context,omitempty"`
	Multi      *bool `json:"multi,omitempty"`
}

type Search struct {
	Text        string        `json:"text"`
	FilePattern string        `json:"filePattern,omitempty"`
	Path        string        `json:"path,omitempty"`
	HistoryID   int           `json:"historyId"`
	Options     SearchOptions `json:"options"`
}

type DeleteHistory struct {
	Text string `json:"text"`
}

// OpenFile asks for a file to be opened at a zero-based line.
type OpenFile struct {
	FilePath   string `json:"filePath"`
	LineNumber int    `json:"lineNumber"`
}

type RequestInitialData struct{}

type SuggestHistory struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit,omitempty"`
}

func (Search) Command() string             { return CommandSearch }
func (DeleteHistory) Command() string      { return CommandDeleteHistory }
func (OpenFile) Command() string           { return CommandOpenFile }
func (RequestInitialData) Command() string { return CommandRequestInitialData }
func (SuggestHistory) Command() string     { return CommandSuggestHistory }

type ThemeInfo struct {
	IsDark bool `json:"isDark"`
}

type SearchHistory struct {
	History []string `json:"history"`
}

// BaseDirInfo carries the workspace root; BaseDir is null without one.
type BaseDirInfo struct {
	BaseDir      *string `json:"baseDir"`
	HasWorkspace bool    `json:"hasWorkspace"`
}

type SetDisplayStrings struct {
	HistoryID int `json:"historyId"`
	argparse.Display
}

type SearchResult struct {
	HTML       string `json:"html"`
	HistoryID  int    `json:"historyId"`
	HasResults bool   `json:"hasResults"`
}

type FocusSearchInput struct{}

type HistorySuggestions struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

type Error struct {
	Message string `json:"message"`
}

func (ThemeInfo) Command() string          { return CommandThemeInfo }
func (SearchHistory) Command() string      { return CommandSearchHistory }
func (BaseDirInfo) Command() string        { return CommandBaseDirInfo }
func (SetDisplayStrings) Command() string  { return CommandSetDisplayStrings }
func (SearchResult) Command() string       { return CommandSearchResult }
func (FocusSearchInput) Command() string   { return CommandFocusSearchInput }
func (HistorySuggestions) Command() string { return CommandHistorySuggestions }
func (Error) Command() string              { return CommandError }

// NewBaseDirInfo reports root, or no workspace when root is empty
func NewBaseDirInfo(root string) BaseDirInfo {
	if root == "" {
		return BaseDirInfo{}
	}
	return BaseDirInfo{BaseDir: &root, HasWorkspace: true}
}
