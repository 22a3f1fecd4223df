package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
)

var version = ""

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

type options struct {
	file    string
	print   bool
	setup   bool
	demo    bool
	version bool
	help    bool
}

func parseArgs(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			opts.help = true
		case arg == "--version":
			opts.version = true
		case arg == "--setup":
			opts.setup = true
		case arg == "--print":
			opts.print = true
		case arg == "--demo":
			opts.demo = true
		case arg == "-f" || arg == "--file":
			if i+1 >= len(args) || args[i+1] == "" {
				return options{}, fmt.Errorf("flag %s needs a file path", arg)
			}
			i++
			opts.file = args[i]
		case strings.HasPrefix(arg, "--file="):
			opts.file = strings.TrimPrefix(arg, "--file=")
			if opts.file == "" {
				return options{}, fmt.Errorf("flag --file needs a file path")
			}
		case strings.HasPrefix(arg, "-"):
			return options{}, fmt.Errorf("unknown flag: %s", arg)
		default:
			return options{}, fmt.Errorf("unexpected argument: %s", arg)
		}
	}
	return opts, nil
}

func printUsage() {
	fmt.Println("todo: a two-list terminal task manager")
	fmt.Println()
	fmt.Println("Usage: todo [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -f, --file PATH  Todo file to open (default from config, else ./TODO)")
	fmt.Println("  --print          Render both lists as markdown and exit")
	fmt.Println("  --setup          Edit configuration")
	fmt.Println("  --demo           Launch with sample lists, nothing is saved")
	fmt.Println("  --version        Print version")
	fmt.Println("  -h, --help       Show this help")
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\nRun todo --help for usage.\n", err)
		os.Exit(1)
	}
	if opts.help {
		printUsage()
		return
	}
	if opts.version {
		fmt.Println("todo " + getVersion())
		return
	}
	if opts.setup {
		path, err := configPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		runSetup(path, loadConfig(), nil)
		return
	}

	if os.Getenv("TODO_DEBUG") != "" {
		f, err := tea.LogToFile("todo-debug.log", "todo")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	cfg := loadConfig()
	path := cfg.File
	if opts.file != "" {
		path = expandHome(opts.file)
	}

	var (
		doc    document
		status string
	)
	if opts.demo {
		doc, path, status = demoDocument(), "demo.todo", "Demo mode. Changes are not saved."
		cfg.Watch = false
	} else {
		doc, status, err = loadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if opts.print {
		style := "dark"
		if !lipgloss.HasDarkBackground() {
			style = "light"
		}
		fmt.Print(renderMarkdownBody(documentMarkdown(doc.active, doc.completed), style, 80))
		return
	}

	var watcher *fsnotify.Watcher
	if cfg.Watch {
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not start file watcher: %v\n", err)
		} else {
			defer watcher.Close()
			dir := filepath.Dir(path)
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not watch directory: %v\n", err)
			}
		}
	}

	m := newModel(doc, path, cfg, watcher)
	m.demo = opts.demo
	m.status.text = status
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fm := final.(model)
	if fm.engine.editing() {
		fm.engine.cancelEdit()
	}
	if fm.demo {
		return
	}
	if err := saveFile(path, fm.engine.active.items, fm.engine.completed.items); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
