// Package main is the entry point for the covidnl TUI application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbeek/covidnl-tui/internal/app"
	"github.com/tbeek/covidnl-tui/internal/config"
	"github.com/tbeek/covidnl-tui/internal/logger"
	"github.com/tbeek/covidnl-tui/internal/services"
	"github.com/tbeek/covidnl-tui/internal/ui/tabs/cumulative"
	"github.com/tbeek/covidnl-tui/internal/ui/tabs/daily"
	"github.com/tbeek/covidnl-tui/internal/ui/tabs/risk"
	"github.com/tbeek/covidnl-tui/internal/ui/tabs/rrate"
	"github.com/tbeek/covidnl-tui/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	// Run the application
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from the JSON config file, .env files, and
	// environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Keep log output off the terminal the TUI draws on.
	if err := logger.UseFile(filepath.Join(filepath.Dir(cfg.DatabasePath), "covidnl.log")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}

	// 2. Initialize the service manager, which owns the dataset cache and
	// the aggregate database
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 3. Watch the cached dataset so external updates reload automatically
	if err := svcManager.Watch(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cache watching disabled: %v\n", err)
	}

	// 4. Restore the last aggregates from sqlite so the charts are not empty
	// while the fresh dataset downloads. Best effort.
	if _, err := svcManager.LoadCached(); err != nil {
		logger.Warn("could not restore cached statistics", "error", err)
	}

	// 5. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 6. Initialize tabs with shared state and services
	state := model.GetState()
	tabs := []app.Tab{
		daily.New(state, svcManager),      // Tab 0: daily counts with trend
		cumulative.New(state, svcManager), // Tab 1: running totals
		rrate.New(state, svcManager),      // Tab 2: reproduction rate
		risk.New(state, svcManager),       // Tab 3: risk classification
	}
	model.SetTabs(tabs)

	// 7. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 8. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Enable mouse support for selection
	)

	// 9. Handle signals in a separate goroutine
	go func() {
		<-sigChan
		// Send quit message to the program
		p.Send(tea.Quit())
	}()

	// 10. Run the TUI program
	// This blocks until the user quits or an error occurs
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`covidnl - Dutch COVID-19 case statistics in the terminal

Usage:
  covidnl [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-4             Switch between tabs (Daily, Cumulative, R-rate, Risk)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Scroll
  l               Toggle logarithmic scale
  r               Refresh data
  R               Force a fresh download
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  COVIDNL_CONFIG            JSON config file path
  COVIDNL_DATASET_URL       Dataset download URL
  COVIDNL_CACHE_PATH        Cached dataset file path
  COVIDNL_DATABASE_PATH     SQLite aggregate database path
  COVIDNL_SMOOTHING_WINDOW  Trailing average window in days (0 disables)
  COVIDNL_CUTOFF_DAYS       Trailing days dropped as incomplete
  COVIDNL_REGION            Province filter (e.g. Utrecht)
  COVIDNL_AGE_FILTER        Age filter (bracket, N-M range, or N+)
  COVIDNL_DATE_FILTER       Start date (ISO date or relative like 3w)
  COVIDNL_STACK_BY          Stacked breakdown: region, sex, or age
  COVIDNL_PER_CAPITA        Scale values per 100k inhabitants
  COVIDNL_LOGARITHMIC       Start charts on a logarithmic scale
  COVIDNL_FORCE_DOWNLOAD    Always re-download the dataset

Configuration:
  Settings can also be placed in ~/.config/covidnl-tui/config.json or a
  .env file in the current directory or under ~/.config/covidnl-tui/.`)
}
