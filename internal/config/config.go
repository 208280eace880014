package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"personamcp/internal/logging"
	"personamcp/internal/persona"
	"personamcp/internal/repository"
)

const APP_NAME = "personamcp" // application name used for config directory

// CurrentVersion is written by DefaultConfig and accepted by Validate.
const CurrentVersion = "1.0"

// Transport modes accepted in transport.mode.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds user configuration for personamcp.
type Config struct {
	Version  string `yaml:"version"`
	LogLevel string `yaml:"log_level,omitempty"`

	// Repository is where persona files live. Bundle paths are relative to it.
	Repository repository.Entry `yaml:"repository"`

	// Primary, when set, also answers to the unprefixed worldbook tools.
	Primary   string           `yaml:"primary,omitempty"`
	Transport Transport        `yaml:"transport,omitempty"`
	Personas  []persona.Bundle `yaml:"personas"`
}

// Transport selects how serve exposes the MCP server.
type Transport struct {
	Mode string `yaml:"mode,omitempty"` // stdio (default) or http
	Addr string `yaml:"addr,omitempty"` // listen address for http
}

// ConfigPath returns the standard config file path for the current platform.
func ConfigPath() string {
	configPath := filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
	logging.Debug("Determined config path", "path", configPath)
	return configPath
}

// FindConfigFile returns the path to the config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary := ConfigPath()
	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}
	return primary, false
}

// Load reads the config from path, or from the standard location when path
// is empty. A missing standard config is reported with a hint to run init.
func Load(path string) (*Config, error) {
	if path == "" {
		found, exists := FindConfigFile()
		if !exists {
			return nil, fmt.Errorf("no configuration found at %s: run 'personamcp init' to create one", found)
		}
		path = found
	}
	return LoadFrom(path)
}

// LoadFrom loads and validates the config at path.
func LoadFrom(path string) (*Config, error) {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// DefaultConfig returns a Config with the two bundled personas laid out
// under the default storage directory.
func DefaultConfig() Config {
	root := repository.DefaultStorageDir()
	logging.Debug("Using default bundle directory", "path", root)

	return Config{
		Version:  CurrentVersion,
		LogLevel: "warn",
		Repository: repository.Entry{
			Type: repository.TypeLocal,
			Path: root,
		},
		Primary: "uozumi",
		Transport: Transport{
			Mode: TransportStdio,
			Addr: "127.0.0.1:8080",
		},
		Personas: []persona.Bundle{
			{
				ID:          "luoluo",
				Name:        "Luoluo",
				Persona:     "luoluo/persona.md",
				Safety:      "luoluo/safety.md",
				Worldbook:   "luoluo/worldbook.json",
				DefaultUser: "用户",
				DefaultChar: "络络",
				Layout:      string(persona.LayoutLabeled),
			},
			{
				ID:                "uozumi",
				Name:              "Uozumi",
				Persona:           "uozumi/persona.md",
				Safety:            "uozumi/safety.md",
				Worldbook:         "uozumi/worldbook.json",
				DefaultUser:       "用户",
				DefaultChar:       "Uozumi",
				SearchPolicy:      "weighted",
				DetailedSummaries: true,
				Cache:             true,
				Layout:            string(persona.LayoutPlain),
			},
		},
	}
}

// Validate checks the whole config and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Version == "" {
		errs = append(errs, errors.New("version is required"))
	} else if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version %q (want %q)", c.Version, CurrentVersion))
	}

	if c.LogLevel != "" && !validLogLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}

	if err := c.Repository.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("repository: %w", err))
	}

	switch c.Transport.Mode {
	case "", TransportStdio:
	case TransportHTTP:
		if strings.TrimSpace(c.Transport.Addr) == "" {
			errs = append(errs, errors.New("transport: http mode requires addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("transport: unknown mode %q (want %q or %q)", c.Transport.Mode, TransportStdio, TransportHTTP))
	}

	if len(c.Personas) == 0 {
		errs = append(errs, errors.New("at least one persona is required"))
	}
	seen := make(map[string]bool, len(c.Personas))
	for _, b := range c.Personas {
		if err := b.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[b.ID] {
			errs = append(errs, fmt.Errorf("duplicate persona id %q", b.ID))
		}
		seen[b.ID] = true
	}

	if c.Primary != "" && !seen[c.Primary] {
		errs = append(errs, fmt.Errorf("primary persona %q is not configured", c.Primary))
	}

	return errors.Join(errs...)
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// Persona returns the bundle with the given id.
func (c *Config) Persona(id string) (persona.Bundle, bool) {
	for _, b := range c.Personas {
		if b.ID == id {
			return b, true
		}
	}
	return persona.Bundle{}, false
}

// Save writes the config to the standard location.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	logging.Info("Configuration saved", "path", path)
	return nil
}
