package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hackhub/internal/config"
	"hackhub/internal/eventbus"
	"hackhub/internal/listing"
	"hackhub/internal/logging"
	"hackhub/internal/search"
	"hackhub/internal/source"
	"hackhub/internal/ui"
)

var (
	// Global flags
	configPath string
	sourceFlag string
	dbFlag     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hackhub",
	Short: "Browse and search hackathons, community events and articles",
	Long: `hackhub lists hackathons, community events and articles in a terminal UI.

Press / to search everything at once, f to filter the current tab and
tab to switch between Hackathons, Community and Articles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

// loadConfig reads path, or the default location when path is empty
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.NewConfigService().LoadFromPath(path)
	}
	return config.NewConfigService().Load()
}

// applyFlags lets explicitly set flags override the config file
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		c.Source.Driver = sourceFlag
	}
	if flags.Changed("db") {
		c.Source.Path = dbFlag
		if !flags.Changed("source") {
			c.Source.Driver = config.DriverSQLite
		}
	}
}

func runTUI(ctx context.Context) error {
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	bus := eventbus.New(eventbus.WithLogger(logger))
	defer bus.Close()

	agg := search.NewAggregator(source.All(store),
		search.WithLimit(cfg.Search.PerSourceLimit),
		search.WithSourceTimeout(cfg.Search.SourceTimeout()),
		search.WithLogger(logger))
	searcher := search.NewController(agg,
		search.WithBus(bus),
		search.WithControllerLogger(logger),
		search.WithDebounce(cfg.Search.Debounce()))
	defer searcher.Close()

	list := listing.NewController(store,
		listing.WithBus(bus),
		listing.WithLogger(logger),
		listing.WithPageSize(cfg.Paging.PageSize),
		listing.WithDebounce(cfg.Search.Debounce()),
		listing.WithRevealDelay(cfg.Paging.RevealDelay()),
		listing.WithScrollThreshold(cfg.Paging.ScrollThreshold))
	defer list.Close()

	model := ui.NewModel(ctx, list, searcher, bus, logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := ui.ForwardEvents(bus, func(msg any) { p.Send(msg) })
	defer unsubscribe()

	logger.Info("starting ui", zap.String("source", cfg.Source.Driver))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running ui: %w", err)
	}
	logger.Info("ui exited")
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/hackhub/config.toml)")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", config.DriverMemory, "Data source: memory, sqlite or rest")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite database path (implies --source sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
