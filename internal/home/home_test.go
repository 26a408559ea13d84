package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-syncread")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-syncread" {
			t.Errorf("expected path /tmp/test-syncread, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-syncread")

	t.Run("DataPath", func(t *testing.T) {
		expected := "/tmp/test-syncread/data"
		if dir.DataPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.DataPath())
		}
	})

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-syncread/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})

	t.Run("SessionWorkDir", func(t *testing.T) {
		expected := "/tmp/test-syncread/work/sess-1"
		if dir.SessionWorkDir("sess-1") != expected {
			t.Errorf("expected %s, got %s", expected, dir.SessionWorkDir("sess-1"))
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	syncreadDir := filepath.Join(tmpDir, "syncread-test")

	dir, err := New(syncreadDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}

	if _, err := os.Stat(dir.DataPath()); os.IsNotExist(err) {
		t.Error("data directory should exist after EnsureExists")
	}
}

func TestDir_SessionWorkDirLifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	work, err := dir.EnsureSessionWorkDir("sess-42")
	if err != nil {
		t.Fatalf("EnsureSessionWorkDir failed: %v", err)
	}
	if _, err := os.Stat(work); err != nil {
		t.Fatalf("expected session work dir to exist: %v", err)
	}

	if err := dir.RemoveSessionWorkDir("sess-42"); err != nil {
		t.Fatalf("RemoveSessionWorkDir failed: %v", err)
	}
	if _, err := os.Stat(work); !os.IsNotExist(err) {
		t.Error("expected session work dir to be removed")
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	configPath := dir.ConfigPath()
	if err := os.WriteFile(configPath, []byte("test: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}
