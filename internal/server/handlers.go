package server

import (
	"context"

	"github.com/standardbeagle/colorgrep/internal/argparse"
	"github.com/standardbeagle/colorgrep/internal/debug"
	"github.com/standardbeagle/colorgrep/internal/protocol"
	"github.com/standardbeagle/colorgrep/internal/search"
	"github.com/standardbeagle/colorgrep/internal/session"
)

// Handle runs one decoded panel message for sess and returns the messages
// to send back, in order.
func (s *PanelServer) Handle(ctx context.Context, sess *session.Session, msg protocol.Inbound) []protocol.Outbound {
	switch m := msg.(type) {
	case protocol.Search:
		return s.handleSearch(ctx, sess, m)
	case protocol.DeleteHistory:
		return []protocol.Outbound{protocol.SearchHistory{History: s.deleteHistory(m.Text)}}
	case protocol.OpenFile:
		return s.handleOpenFile(m)
	case protocol.RequestInitialData:
		return s.initialData(sess)
	case protocol.SuggestHistory:
		return []protocol.Outbound{protocol.HistorySuggestions{
			Prefix:      m.Prefix,
			Suggestions: s.suggest(m.Prefix, m.Limit),
		}}
	}
	return []protocol.Outbound{protocol.Error{Message: "unsupported command " + msg.Command()}}
}

// handleSearch records the search, echoes how the inputs were understood,
// then runs it. History is updated before the search runs.
func (s *PanelServer) handleSearch(ctx context.Context, sess *session.Session, m protocol.Search) []protocol.Outbound {
	entries := s.addHistory(m.Text)

	display := argparse.DisplayStrings(m.Text, m.FilePattern, m.Path)

	req := search.Request{
		Text:        m.Text,
		FilePattern: m.FilePattern,
		Path:        m.Path,
		Options: search.Options{
			IgnoreCase: m.Options.IgnoreCase,
			WholeWord:  m.Options.WholeWord,
			Regex:      m.Options.Regex,
		},
		HistoryID: m.HistoryID,
		Root:      sess.Root,
	}

	outcome, err := s.runner.Run(ctx, req, sess.IsDark())
	if err != nil {
		debug.LogServer("search %d failed: %v\n", m.HistoryID, err)
	}
	for _, warning := range outcome.Warnings {
		debug.LogServer("search %d: %s\n", m.HistoryID, warning)
	}

	return []protocol.Outbound{
		protocol.SetDisplayStrings{HistoryID: m.HistoryID, Display: display},
		protocol.SearchResult{HTML: outcome.HTML, HistoryID: m.HistoryID, HasResults: outcome.HasResults},
		protocol.SearchHistory{History: entries},
	}
}

func (s *PanelServer) handleOpenFile(m protocol.OpenFile) []protocol.Outbound {
	if err := s.OpenFile(m.FilePath, m.LineNumber, s.cfg.Editor.Command); err != nil {
		debug.LogServer("open %s:%d failed: %v\n", m.FilePath, m.LineNumber, err)
		return []protocol.Outbound{protocol.Error{Message: err.Error()}}
	}
	return []protocol.Outbound{}
}

// initialData is what a freshly opened panel needs
func (s *PanelServer) initialData(sess *session.Session) []protocol.Outbound {
	return []protocol.Outbound{
		protocol.ThemeInfo{IsDark: sess.IsDark()},
		protocol.SearchHistory{History: s.historyEntries()},
		protocol.NewBaseDirInfo(sess.BaseDir()),
	}
}

func (s *PanelServer) historyEntries() []string {
	if s.history == nil {
		return []string{}
	}
	return s.history.Entries()
}

func (s *PanelServer) addHistory(text string) []string {
	if s.history == nil {
		return []string{}
	}
	entries, err := s.history.Add(text)
	if err != nil {
		debug.LogServer("cannot save history: %v\n", err)
	}
	return entries
}

func (s *PanelServer) deleteHistory(text string) []string {
	if s.history == nil {
		return []string{}
	}
	entries, err := s.history.Delete(text)
	if err != nil {
		debug.LogServer("cannot save history: %v\n", err)
	}
	return entries
}

func (s *PanelServer) suggest(prefix string, limit int) []string {
	if s.history == nil {
		return []string{}
	}
	return s.history.Suggest(prefix, limit)
}
