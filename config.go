package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ─── Config ──────────────────────────────────────────────────────────────────

type config struct {
	File            string `json:"file"`             // todo file, relative to the working directory unless absolute
	UndoDepth       int    `json:"undo_depth"`       // undoable operations kept; 0 keeps all
	ShowSubtasks    bool   `json:"show_subtasks"`    // initial subtask visibility
	DeleteActive    string `json:"delete_active"`    // "roots", "subtasks", "both" or "none"
	DeleteCompleted string `json:"delete_completed"` // same values as DeleteActive
	Watch           bool   `json:"watch"`            // reload when the file changes on disk
}

func newDefaultConfig() config {
	return config{
		File:            "TODO",
		UndoDepth:       20,
		ShowSubtasks:    true,
		DeleteActive:    deleteSubtasks.String(),
		DeleteCompleted: deleteRoots.String(),
		Watch:           true,
	}
}

func configPath() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(cfgDir, "todo", "config.json"), nil
}

// expandHome expands a leading "~/" to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// contractHome replaces the user's home directory prefix with "~/" for display.
func contractHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if rel, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~/" + rel
	}
	return path
}

func (c config) activePolicy() deletePolicy {
	p, err := parseDeletePolicy(c.DeleteActive)
	if err != nil {
		return deleteSubtasks
	}
	return p
}

func (c config) completedPolicy() deletePolicy {
	p, err := parseDeletePolicy(c.DeleteCompleted)
	if err != nil {
		return deleteRoots
	}
	return p
}

// validate reports the first field that holds an unusable value.
func (c config) validate() error {
	if c.UndoDepth < 0 {
		return fmt.Errorf("undo_depth must not be negative, got %d", c.UndoDepth)
	}
	if _, err := parseDeletePolicy(c.DeleteActive); err != nil {
		return fmt.Errorf("delete_active: %w", err)
	}
	if _, err := parseDeletePolicy(c.DeleteCompleted); err != nil {
		return fmt.Errorf("delete_completed: %w", err)
	}
	return nil
}

// loadConfig returns the saved config, or defaults if the file is missing.
// A corrupt or invalid file prints a warning and falls back to defaults.
func loadConfig() config {
	path, err := configPath()
	if err != nil {
		return newDefaultConfig()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return newDefaultConfig()
	}
	cfg := newDefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: corrupt config (%v), using defaults. Run `todo --setup` to fix.\n", err)
		return newDefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid config (%v), using defaults. Run `todo --setup` to fix.\n", err)
		return newDefaultConfig()
	}
	if cfg.File == "" {
		cfg.File = newDefaultConfig().File
	}
	cfg.File = expandHome(cfg.File)
	return cfg
}

func saveConfig(path string, cfg config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data)
}

func runSetup(path string, current config, scanner *bufio.Scanner) config {
	promptStyle := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dimStyle := lipgloss.NewStyle().Foreground(colorDim)
	if scanner == nil {
		scanner = bufio.NewScanner(os.Stdin)
	}

	fmt.Println(promptStyle.Render("  todo setup"))
	fmt.Println(dimStyle.Render("  Press enter to keep the current value."))
	fmt.Println()

	prompt := func(label, defVal string) string {
		fmt.Printf("%s %s: ", promptStyle.Render(label), dimStyle.Render("["+defVal+"]"))
		if scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				return line
			}
		}
		return defVal
	}
	yesNo := func(label string, defVal bool) bool {
		def := "n"
		if defVal {
			def = "y"
		}
		switch strings.ToLower(prompt(label, def)) {
		case "y", "yes", "true":
			return true
		case "n", "no", "false":
			return false
		}
		return defVal
	}
	policy := func(label, defVal string) string {
		v := prompt(label, defVal)
		if _, err := parseDeletePolicy(v); err != nil {
			fmt.Println(dimStyle.Render("  " + err.Error() + ", keeping " + defVal))
			return defVal
		}
		return v
	}

	cfg := current

	fmt.Println(dimStyle.Render("  File holding your tasks. Relative paths are resolved from"))
	fmt.Println(dimStyle.Render("  the directory todo is started in."))
	cfg.File = expandHome(prompt("Todo file              ", contractHome(current.File)))
	fmt.Println()

	fmt.Println(dimStyle.Render("  How many operations you can undo. 0 keeps every one."))
	depth := prompt("Undo depth             ", strconv.Itoa(current.UndoDepth))
	if n, err := strconv.Atoi(depth); err == nil && n >= 0 {
		cfg.UndoDepth = n
	}
	fmt.Println()

	fmt.Println(dimStyle.Render("  What d deletes in each list: roots, subtasks, both or none."))
	cfg.DeleteActive = policy("Delete in TODO list    ", current.DeleteActive)
	cfg.DeleteCompleted = policy("Delete in DONE list    ", current.DeleteCompleted)
	fmt.Println()

	cfg.ShowSubtasks = yesNo("Show subtasks at start ", current.ShowSubtasks)
	cfg.Watch = yesNo("Reload on file change  ", current.Watch)
	fmt.Println()

	if err := saveConfig(path, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
	} else {
		fmt.Printf("%s %s\n\n", dimStyle.Render("Saved to"), path)
	}
	return cfg
}
