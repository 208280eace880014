package repository

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr string
	}{
		{"local", Entry{Type: TypeLocal, Path: "/tmp/personas"}, ""},
		{"local missing path", Entry{Type: TypeLocal}, "requires a path"},
		{"local relative path", Entry{Type: TypeLocal, Path: "personas"}, "invalid repository path"},
		{"github", Entry{Type: TypeGitHub, RemoteURL: "git@github.com:example/personas.git"}, ""},
		{"github local remote", Entry{Type: TypeGitHub, RemoteURL: "/srv/git/personas"}, ""},
		{"github with path", Entry{Type: TypeGitHub, RemoteURL: "https://github.com/a/b", Path: "~/bundles"}, ""},
		{"github missing url", Entry{Type: TypeGitHub}, "requires a remote_url"},
		{"github bad url", Entry{Type: TypeGitHub, RemoteURL: "https://github.com/only-owner"}, "invalid remote_url"},
		{"github bad path", Entry{Type: TypeGitHub, RemoteURL: "https://github.com/a/b", Path: "/etc/x"}, "invalid repository path"},
		{"unknown type", Entry{Type: "svn", Path: "/tmp/x"}, "invalid repository type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewSource(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		src, err := NewSource(Entry{Type: TypeLocal, Path: "/tmp/personas"})
		if err != nil {
			t.Fatalf("NewSource() error = %v", err)
		}
		if ls, ok := src.(LocalSource); !ok || ls.Path != "/tmp/personas" {
			t.Errorf("NewSource() = %#v, want LocalSource", src)
		}
	})

	t.Run("github derives clone path", func(t *testing.T) {
		src, err := NewSource(Entry{Type: TypeGitHub, RemoteURL: "https://github.com/example/personas.git", Branch: "dev"})
		if err != nil {
			t.Fatalf("NewSource() error = %v", err)
		}
		gs, ok := src.(GitSource)
		if !ok {
			t.Fatalf("NewSource() = %#v, want GitSource", src)
		}
		if want := filepath.Join(DefaultStorageDir(), "personas"); gs.Path != want {
			t.Errorf("Path = %q, want %q", gs.Path, want)
		}
		if gs.Branch == nil || *gs.Branch != "dev" {
			t.Errorf("Branch = %v, want dev", gs.Branch)
		}
	})

	t.Run("github default branch", func(t *testing.T) {
		src, err := NewSource(Entry{Type: TypeGitHub, RemoteURL: "https://github.com/example/personas", Path: "/tmp/p"})
		if err != nil {
			t.Fatalf("NewSource() error = %v", err)
		}
		if gs := src.(GitSource); gs.Branch != nil || gs.Path != "/tmp/p" {
			t.Errorf("NewSource() = %+v, want nil branch and configured path", gs)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := NewSource(Entry{Type: TypeLocal}); err == nil {
			t.Error("NewSource() should fail for an invalid entry")
		}
	})
}

func TestType(t *testing.T) {
	if !TypeLocal.IsValid() || !TypeGitHub.IsValid() || Type("ftp").IsValid() {
		t.Error("IsValid() mismatch")
	}
	if TypeGitHub.String() != "github" {
		t.Errorf("String() = %q", TypeGitHub.String())
	}
	e := Entry{Type: TypeGitHub}
	if !e.IsRemote() || e.IsLocal() {
		t.Error("github entry should be remote")
	}
}
