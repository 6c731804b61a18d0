package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/homeshelf-tv/homeshelf/internal/config"
	"github.com/homeshelf-tv/homeshelf/internal/homerow"
	"github.com/homeshelf-tv/homeshelf/internal/jellyfin"
	"github.com/homeshelf-tv/homeshelf/internal/layout"
	"github.com/homeshelf-tv/homeshelf/internal/log"
	"github.com/homeshelf-tv/homeshelf/internal/search"
	"github.com/homeshelf-tv/homeshelf/internal/store"
	"github.com/homeshelf-tv/homeshelf/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var logout bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&logout, "logout", false, "clear server credentials and cached data")
	flag.Parse()

	if showVersion {
		fmt.Printf("homeshelf %s\n", Version)
		return
	}

	if logout {
		if err := runLogout(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Signed out. Credentials and cache cleared.")
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting homeshelf", "version", Version)

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := jellyfin.NewClient(cfg.Server.URL, cfg.Server.Token, cfg.Server.UserID, logger)

	layoutStore, err := store.NewLayoutStore(config.GetCachePath(), cfg.Server.URL)
	if err != nil {
		logger.Warn("layout cache unavailable, running without persistence", "error", err)
		layoutStore, _ = store.NewLayoutStore("", "")
	}
	defer layoutStore.Close()

	resolver := layout.NewResolver(cfg.Server.URL, cfg.Server.Token, layoutStore, logger)

	lastPlayed := homerow.NewLastPlayedCache(func(ctx context.Context, seriesID, itemID string) (int64, error) {
		dates, err := client.GetLastPlayedDates(ctx, seriesID)
		if err != nil {
			return 0, err
		}
		return dates[itemID], nil
	}, logger)

	builder := homerow.NewBuilder(client, cfg.Preferences.MaxItemsPerRow,
		cfg.Preferences.EnableRewatchingNextUp, logger)

	coordinator := homerow.NewCoordinator(client, client, builder, resolver, lastPlayed,
		homerow.Options{
			UserID:              cfg.Server.UserID,
			CombineContinueNext: cfg.Preferences.CombineContinueNext,
			UseCustomLayout:     cfg.Preferences.EnableCustomHomeRows,
			NativeContinueNext:  cfg.Preferences.CustomRowsNativeContinueNext,
		}, logger)
	defer coordinator.Close()

	notifier := tui.NewUpdateNotifier()
	coordinator.Subscribe(func(homerow.Snapshot) { notifier.Notify() })

	// Server-pushed user-data changes keep visible rows current when another
	// session marks something watched
	socket := jellyfin.NewSocket(cfg.Server.URL, cfg.Server.Token, logger)
	socket.Handler = func(itemIDs []string) {
		coordinator.HandleRemoteUserDataChange(ctx, itemIDs)
	}
	socket.Start(ctx)
	defer socket.Stop()

	filter := search.NewFilter(logger)
	model := tui.NewModel(ctx, coordinator, filter, notifier, cfg.Server.Username, logger)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *config.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to Homeshelf!")
	fmt.Println()

	serverURL, err := jellyfin.PromptForServerURL()
	if err != nil {
		return err
	}
	if serverURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}

	authFlow := jellyfin.NewAuthFlow(logger)
	result, err := authFlow.Run(context.Background(), serverURL)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	cfg.Server.URL = serverURL
	cfg.Server.Token = result.Token
	cfg.Server.UserID = result.UserID
	cfg.Server.Username = result.Username

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run homeshelf again to start the application.")

	return nil
}

// runLogout clears server credentials and all cached data
func runLogout() error {
	if err := config.ClearServerConfig(); err != nil {
		return err
	}
	return config.ClearCache()
}
