// cmd/homework/main.go
//
// This is the entry point for the homework client.
// When you run `homework` from any directory, this is what executes.
//
// Flow:
// 1. Make sure .homework/ exists with a default config.yaml
// 2. Load config (file + HOMEWORK_* env overrides)
// 3. Launch the TUI

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/max00189xp/homework/internal/config"
	"github.com/max00189xp/homework/internal/logging"
	"github.com/max00189xp/homework/internal/tui"
)

func main() {
	projectDir := flag.String("project", "", "directory holding .homework/ (defaults to cwd)")
	setBackend := flag.String("set-backend", "", "save this backend URL to config.yaml and exit")
	flag.Parse()

	project, err := resolveProject(*projectDir)
	if err != nil {
		die("Error resolving project directory: %v", err)
	}
	if err := config.InitHomeworkDir(project); err != nil {
		die("Error initializing .homework directory: %v", err)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		die("Error loading config: %v", err)
	}

	if url := strings.TrimSpace(*setBackend); url != "" {
		if err := cfg.SetBackendURL(url); err != nil {
			die("Error saving backend URL: %v", err)
		}
		fmt.Printf("Backend saved to %s\n", cfg.ProjectConfigPath())
		return
	}

	logger, err := logging.New(cfg.LogPath())
	if err != nil {
		die("Error opening log file: %v", err)
	}
	defer logger.Close()

	app, err := tui.NewApp(cfg, tui.WithLogger(logger))
	if err != nil {
		die("Error starting client: %v", err)
	}
	defer app.Close()

	// Run blocks until the user quits
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Printf("tui exited: %v", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func resolveProject(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return os.Getwd()
	}
	return filepath.Abs(dir)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
