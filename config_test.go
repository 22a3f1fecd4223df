package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	tests := []struct {
		in, want string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/notes/TODO", filepath.Join(home, "notes/TODO")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~", "~"}, // no slash after ~, not expanded
	}
	for _, tt := range tests {
		got := expandHome(tt.in)
		if got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContractHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := contractHome(filepath.Join(home, "TODO")); got != "~/TODO" {
		t.Errorf("contractHome = %q, want ~/TODO", got)
	}
	if got := contractHome("/elsewhere/TODO"); got != "/elsewhere/TODO" {
		t.Errorf("contractHome = %q, want unchanged", got)
	}
}

func writeRawConfig(t *testing.T, data string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := loadConfig()
	if cfg != newDefaultConfig() {
		t.Fatalf("loadConfig with missing file = %+v, want defaults", cfg)
	}

	// Loading never creates the file; only --setup does.
	path, _ := configPath()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("loadConfig should not create config file, but %s exists", path)
	}
}

func TestLoadConfigKeepsDefaultsForMissingFields(t *testing.T) {
	writeRawConfig(t, `{"file": "~/notes/TODO", "undo_depth": 5}`)

	cfg := loadConfig()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir: %v", err)
	}
	if cfg.File != filepath.Join(home, "notes/TODO") {
		t.Errorf("File = %q, want expanded home path", cfg.File)
	}
	if cfg.UndoDepth != 5 {
		t.Errorf("UndoDepth = %d, want 5", cfg.UndoDepth)
	}
	if !cfg.ShowSubtasks || !cfg.Watch {
		t.Error("boolean defaults lost for missing fields")
	}
	if cfg.activePolicy() != deleteSubtasks || cfg.completedPolicy() != deleteRoots {
		t.Errorf("policies = %s/%s, want subtasks/roots", cfg.activePolicy(), cfg.completedPolicy())
	}
}

func TestLoadConfigInvalidFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name, data string
	}{
		{"corrupt json", "{invalid"},
		{"bad policy", `{"delete_active": "everything"}`},
		{"negative undo depth", `{"undo_depth": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeRawConfig(t, tt.data)
			if cfg := loadConfig(); cfg != newDefaultConfig() {
				t.Fatalf("loadConfig = %+v, want defaults", cfg)
			}
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath: %v", err)
	}
	want := newDefaultConfig()
	want.File = "/tmp/work/TODO"
	want.UndoDepth = 0
	want.DeleteActive = "both"
	want.Watch = false
	if err := saveConfig(path, want); err != nil {
		t.Fatalf("saveConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	var persisted map[string]any
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal persisted config: %v", err)
	}
	if persisted["delete_active"] != "both" {
		t.Errorf("delete_active = %v, want both", persisted["delete_active"])
	}
	if got := loadConfig(); got != want {
		t.Errorf("loadConfig = %+v, want %+v", got, want)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestRunSetup(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath: %v", err)
	}
	answers := strings.Join([]string{
		"/tmp/list/TODO", // file
		"5",              // undo depth
		"both",           // delete in TODO
		"bogus",          // delete in DONE: rejected, keeps current
		"n",              // show subtasks
		"",               // watch: keep
	}, "\n") + "\n"

	cfg := runSetup(path, newDefaultConfig(), bufio.NewScanner(strings.NewReader(answers)))
	if cfg.File != "/tmp/list/TODO" || cfg.UndoDepth != 5 {
		t.Errorf("file/undo = %q/%d", cfg.File, cfg.UndoDepth)
	}
	if cfg.DeleteActive != "both" || cfg.DeleteCompleted != "roots" {
		t.Errorf("policies = %q/%q, want both/roots", cfg.DeleteActive, cfg.DeleteCompleted)
	}
	if cfg.ShowSubtasks || !cfg.Watch {
		t.Errorf("show_subtasks = %v, watch = %v", cfg.ShowSubtasks, cfg.Watch)
	}
	if got := loadConfig(); got != cfg {
		t.Errorf("saved config = %+v, want %+v", got, cfg)
	}
}
