package config

import (
	"errors"
	"fmt"
	"strconv"

	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	v.setSmartDefaults(cfg)

	if cfg.Project.Root == "" {
		return cgerrors.NewConfigError("project.root", "", errors.New("project root cannot be empty"))
	}

	if err := v.validateToolConfig(&cfg.Tool); err != nil {
		return err
	}

	switch cfg.Display.Theme {
	case ThemeDark, ThemeLight, ThemeAuto:
	default:
		return cgerrors.NewConfigError("display.theme", cfg.Display.Theme,
			fmt.Errorf("theme must be one of %q, %q or %q", ThemeDark, ThemeLight, ThemeAuto))
	}

	if err := v.validateHistoryConfig(&cfg.History); err != nil {
		return err
	}

	return nil
}

// validateToolConfig validates search tool configuration
func (v *Validator) validateToolConfig(tool *Tool) error {
	if tool.TimeoutMs <= 0 {
		return cgerrors.NewConfigError("tool.timeout_ms", strconv.Itoa(tool.TimeoutMs),
			fmt.Errorf("timeout must be positive, got %d", tool.TimeoutMs))
	}

	if tool.ContextLines < 0 || tool.ContextLines > 20 {
		return cgerrors.NewConfigError("tool.context_lines", strconv.Itoa(tool.ContextLines),
			fmt.Errorf("context lines must be between 0 and 20, got %d", tool.ContextLines))
	}

	if tool.MaxOutputBytes < 0 {
		return cgerrors.NewConfigError("tool.max_output", strconv.FormatInt(tool.MaxOutputBytes, 10),
			fmt.Errorf("max output cannot be negative, got %d", tool.MaxOutputBytes))
	}

	return nil
}

// validateHistoryConfig validates search history configuration
func (v *Validator) validateHistoryConfig(history *History) error {
	if history.MaxEntries < 1 || history.MaxEntries > DefaultMaxHistory {
		return cgerrors.NewConfigError("history.max_entries", strconv.Itoa(history.MaxEntries),
			fmt.Errorf("max entries must be between 1 and %d, got %d", DefaultMaxHistory, history.MaxEntries))
	}

	if history.SuggestThreshold < 0 || history.SuggestThreshold > 1 {
		return cgerrors.NewConfigError("history.suggest_threshold",
			strconv.FormatFloat(history.SuggestThreshold, 'f', -1, 64),
			fmt.Errorf("suggest threshold must be between 0 and 1, got %v", history.SuggestThreshold))
	}

	return nil
}

// setSmartDefaults fills settings a partial config left empty
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Tool.Binary == "" {
		cfg.Tool.Binary = DefaultBinary
	}

	// MaxOutputBytes: 0 means use the default cap
	if cfg.Tool.MaxOutputBytes == 0 {
		cfg.Tool.MaxOutputBytes = DefaultMaxOutputBytes
	}

	if cfg.Display.Theme == "" {
		cfg.Display.Theme = DefaultTheme
	}

	if cfg.Editor.Command == "" {
		cfg.Editor.Command = DefaultEditorCommand
	}

	if cfg.Version == 0 {
		cfg.Version = 1
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
