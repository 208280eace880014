package persona

import (
	"errors"
	"fmt"
	"strings"

	"personamcp/internal/worldbook"
	"personamcp/pkg/fileops"
)

// maxIDLength keeps generated tool names such as list_{id}_worldbook_entries
// within client limits.
const maxIDLength = 40

// Layout selects how SystemPrompt combines safety guidelines and persona.
type Layout string

const (
	// LayoutLabeled prefixes each part with a heading. A missing safety file
	// contributes an empty section.
	LayoutLabeled Layout = "labeled"
	// LayoutPlain joins the trimmed parts with blank lines. A missing safety
	// file is an error.
	LayoutPlain Layout = "plain"
)

// ParseLayout maps a configuration value to a Layout. Empty selects LayoutLabeled.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LayoutLabeled, nil
	case LayoutLabeled, LayoutPlain:
		return l, nil
	default:
		return "", fmt.Errorf("unknown prompt layout %q (want %q or %q)", s, LayoutLabeled, LayoutPlain)
	}
}

// Bundle describes one persona as configured: which files it is built from
// and how its worldbook is searched. Relative paths resolve against the
// bundle root handed to New.
type Bundle struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name,omitempty"`
	Persona     string `yaml:"persona"`
	Safety      string `yaml:"safety,omitempty"`
	Worldbook   string `yaml:"worldbook,omitempty"`
	DefaultUser string `yaml:"default_user,omitempty"`
	DefaultChar string `yaml:"default_char,omitempty"`

	SearchPolicy      string `yaml:"search_policy,omitempty"`
	DetailedSummaries bool   `yaml:"detailed_summaries,omitempty"`
	Cache             bool   `yaml:"cache,omitempty"`
	Layout            string `yaml:"layout,omitempty"`
}

// Validate checks the bundle in isolation. File existence is not checked;
// missing files surface as errors when they are read.
func (b Bundle) Validate() error {
	var errs []error

	if b.ID == "" {
		errs = append(errs, errors.New("id is required"))
	} else if sanitized, err := fileops.SanitizeIdentifier(b.ID, maxIDLength); err != nil {
		errs = append(errs, fmt.Errorf("id %q: %w", b.ID, err))
	} else if sanitized != b.ID {
		errs = append(errs, fmt.Errorf("id %q must be lowercase letters, digits and underscores (try %q)", b.ID, sanitized))
	}

	if b.Persona == "" {
		errs = append(errs, errors.New("persona path is required"))
	}
	paths := []struct{ field, path string }{
		{"persona", b.Persona},
		{"safety", b.Safety},
		{"worldbook", b.Worldbook},
	}
	for _, p := range paths {
		if p.path == "" {
			continue
		}
		if err := fileops.ValidatePathSecurity(p.path); err != nil {
			errs = append(errs, fmt.Errorf("%s path: %w", p.field, err))
		}
	}

	if _, err := worldbook.ParsePolicy(b.SearchPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLayout(b.Layout); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("persona %q: %w", b.ID, err)
	}
	return nil
}

// DisplayName returns Name, falling back to ID.
func (b Bundle) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}
