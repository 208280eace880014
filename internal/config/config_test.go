package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"

	"personamcp/internal/persona"
	"personamcp/internal/repository"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Repository = repository.Entry{Type: repository.TypeLocal, Path: t.TempDir()}
	return cfg
}

// setConfigHome points xdg at dir for the duration of the test.
func setConfigHome(t *testing.T, dir string) {
	t.Helper()
	// Registered first so it runs after t.Setenv restores the environment.
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", dir)
	xdg.Reload()
}

func TestConfigPath(t *testing.T) {
	setConfigHome(t, "/custom/config")

	if got, want := ConfigPath(), "/custom/config/personamcp/config.yaml"; got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestLoad_MissingStandardConfig(t *testing.T) {
	setConfigHome(t, t.TempDir())

	if _, exists := FindConfigFile(); exists {
		t.Fatal("FindConfigFile() reported an existing config in an empty directory")
	}
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "personamcp init") {
		t.Errorf("Load(\"\") error = %v, want init hint", err)
	}
}

func TestLoad_StandardLocation(t *testing.T) {
	setConfigHome(t, t.TempDir())

	cfg := testConfig(t)
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, exists := FindConfigFile(); !exists {
		t.Fatal("FindConfigFile() did not find the saved config")
	}

	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Primary != cfg.Primary {
		t.Errorf("Primary = %q, want %q", loaded.Primary, cfg.Primary)
	}
}

func TestConfigSaveLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	original := testConfig(t)
	original.Transport = Transport{Mode: TransportHTTP, Addr: ":9000"}

	if err := original.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %s", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %s", err)
	}

	if loaded.Version != original.Version {
		t.Errorf("Version mismatch: expected %s, got %s", original.Version, loaded.Version)
	}
	if loaded.Repository != original.Repository {
		t.Errorf("Repository mismatch: expected %+v, got %+v", original.Repository, loaded.Repository)
	}
	if loaded.Transport != original.Transport {
		t.Errorf("Transport mismatch: expected %+v, got %+v", original.Transport, loaded.Transport)
	}
	if len(loaded.Personas) != len(original.Personas) {
		t.Fatalf("Personas length = %d, want %d", len(loaded.Personas), len(original.Personas))
	}
	for i := range original.Personas {
		if loaded.Personas[i] != original.Personas[i] {
			t.Errorf("Persona %d mismatch: expected %+v, got %+v", i, original.Personas[i], loaded.Personas[i])
		}
	}
}

func TestConfigFilePermissions(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := testConfig(t)
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %s", err)
	}

	fileInfo, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %s", err)
	}
	if mode := fileInfo.Mode(); mode&0077 != 0 {
		t.Errorf("Config file should not be readable by group/others, got mode %o", mode)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() should validate: %v", err)
	}
	if cfg.Repository.Path != repository.DefaultStorageDir() {
		t.Errorf("Repository.Path = %q, want default storage dir", cfg.Repository.Path)
	}
	if _, ok := cfg.Persona(cfg.Primary); !ok {
		t.Errorf("primary %q is not among the default personas", cfg.Primary)
	}
	if _, ok := cfg.Persona("nobody"); ok {
		t.Error("Persona(\"nobody\") should not be found")
	}
}

func TestDefaultConfig_PlaceholderDefaults(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"luoluo", "用户 meets 络络"},
		{"uozumi", "用户 meets Uozumi"},
	}

	cfg := DefaultConfig()
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			b, ok := cfg.Persona(tt.id)
			if !ok {
				t.Fatalf("default config has no %s persona", tt.id)
			}

			root := t.TempDir()
			files := map[string]string{
				b.Persona:   "{{user}} meets {{char}}",
				b.Safety:    "Stay kind.",
				b.Worldbook: `{"entries": []}`,
			}
			for name, content := range files {
				path := filepath.Join(root, name)
				if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(path, []byte(content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			p, err := persona.New(root, b)
			if err != nil {
				t.Fatalf("persona.New() error = %v", err)
			}
			got, err := p.SystemPrompt(context.Background(), "", "")
			if err != nil {
				t.Fatalf("SystemPrompt() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("SystemPrompt() = %q, want it to contain %q", got, tt.want)
			}
			if strings.Contains(got, "{{") {
				t.Errorf("SystemPrompt() left placeholders unreplaced: %q", got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing version", func(c *Config) { c.Version = "" }, "version is required"},
		{"future version", func(c *Config) { c.Version = "9" }, "unsupported config version"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log_level"},
		{"bad repository", func(c *Config) { c.Repository = repository.Entry{Type: repository.TypeLocal} }, "repository:"},
		{"bad transport", func(c *Config) { c.Transport.Mode = "grpc" }, "unknown mode"},
		{"http without addr", func(c *Config) { c.Transport = Transport{Mode: TransportHTTP} }, "requires addr"},
		{"no personas", func(c *Config) { c.Personas = nil; c.Primary = "" }, "at least one persona"},
		{"duplicate id", func(c *Config) { c.Personas = append(c.Personas, c.Personas[0]) }, "duplicate persona id"},
		{"unknown primary", func(c *Config) { c.Primary = "ghost" }, "primary persona \"ghost\""},
		{"invalid bundle", func(c *Config) { c.Personas[0].Layout = "fancy" }, "prompt layout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestConfigErrorHandling(t *testing.T) {
	t.Run("load non-existent file", func(t *testing.T) {
		if _, err := LoadFrom("/non/existent/file.yaml"); err == nil {
			t.Error("Should error when loading non-existent file")
		}
	})

	t.Run("load invalid YAML", func(t *testing.T) {
		invalidFile := filepath.Join(t.TempDir(), "invalid.yaml")
		if err := os.WriteFile(invalidFile, []byte("invalid: yaml: content: ["), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(invalidFile); err == nil {
			t.Error("Should error when loading invalid YAML")
		}
	})

	t.Run("load unknown field", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(file, []byte("version: \"1.0\"\nstorage_dir: /tmp\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(file); err == nil {
			t.Error("Should error on fields personamcp does not know")
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yaml")
		body := "version: \"1.0\"\nrepository:\n  type: local\n  path: /tmp\npersonas:\n  - id: Bad-ID\n    persona: p.md\n"
		if err := os.WriteFile(file, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadFrom(file)
		if err == nil || !strings.Contains(err.Error(), "invalid config") {
			t.Errorf("LoadFrom() error = %v, want validation failure", err)
		}
	})

	t.Run("bundle fields decode", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yaml")
		body := "version: \"1.0\"\nrepository:\n  type: local\n  path: /tmp\npersonas:\n" +
			"  - id: uozumi\n    persona: uozumi/persona.md\n    search_policy: weighted\n    detailed_summaries: true\n    layout: plain\n"
		if err := os.WriteFile(file, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadFrom(file)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}
		want := persona.Bundle{
			ID:                "uozumi",
			Persona:           "uozumi/persona.md",
			SearchPolicy:      "weighted",
			DetailedSummaries: true,
			Layout:            "plain",
		}
		if cfg.Personas[0] != want {
			t.Errorf("decoded bundle = %+v, want %+v", cfg.Personas[0], want)
		}
	})
}
