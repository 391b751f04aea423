// form13f normalizes SEC 13F institutional holdings into display-ready
// snapshots, change lists, style profiles and a cross-institution heatmap.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/form13f/api"
	"github.com/seenimoa/form13f/internal/config"
	"github.com/seenimoa/form13f/internal/corpus"
	"github.com/seenimoa/form13f/internal/logging"
	"github.com/seenimoa/form13f/internal/tables"
	"github.com/seenimoa/form13f/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg *config.Config
	log *logrus.Logger
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "form13f",
	Short: "form13f: normalize SEC 13F institutional holdings",
	Long: `form13f turns raw SEC 13F-HR filing histories into normalized
per-quarter snapshots, quarter-over-quarter change lists, sector style
profiles and a cross-institution holdings heatmap.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win.
		_ = godotenv.Load()

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if path, _ := cmd.Flags().GetString("history"); path != "" {
			cfg.Data.HistoryPath = path
		}
		if path, _ := cmd.Flags().GetString("tables"); path != "" {
			cfg.Data.TablesPath = path
		}
		log = logging.New(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("history", "", "13F history JSON path (overrides data.history_path)")
	rootCmd.PersistentFlags().String("tables", "", "override tables YAML path (overrides data.tables_path)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(changesCmd)
	rootCmd.AddCommand(styleCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resolveCmd)
}

// loadCorpus reads the override tables and the history concurrently and
// freezes them into a corpus.
func loadCorpus(ctx context.Context) (*corpus.Corpus, error) {
	var (
		t  *tables.Tables
		ds *models.Dataset
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = loadTables()
		return err
	})
	g.Go(func() error {
		var err error
		ds, _, err = corpus.LoadFile(cfg.Data.HistoryPath, log)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return corpus.New(ds, t, cfg.CorpusOptions(), log), nil
}

// loadTables returns the embedded tables, extended by data.tables_path
// when set.
func loadTables() (*tables.Tables, error) {
	t, err := tables.Load(cfg.Data.TablesPath)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return t, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("form13f %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and input file status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  form13f Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Output dir:    %s\n", cfg.Data.OutputDir)
		fmt.Printf("    Value unit:    %g USD\n", cfg.Normalize.ValueUnit)
		fmt.Printf("    Scale jump:    >%gx (factor %g)\n", cfg.Normalize.ScaleJumpThreshold, cfg.Normalize.ScaleFactor)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Println()

		fmt.Println("  Inputs:")
		for _, p := range config.CheckPaths(cfg) {
			status := "missing"
			if p.Exists {
				status = "ok"
			}
			path := p.Path
			if path == "" {
				path = "(built in)"
			}
			fmt.Printf("    %-17s %s [%s, %s]\n", p.Name+":", path, p.Source, status)
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		c, err := loadCorpus(ctx)
		if err != nil {
			return err
		}
		api.Version = version
		return api.NewServer(cfg, c, log).ListenAndServe(ctx, cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write flat JSON snapshots for every manager and quarter",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = cfg.Data.OutputDir
		}
		c, err := loadCorpus(ctx)
		if err != nil {
			return err
		}
		stats, err := corpus.Export(ctx, c, dir, cfg.Export.Concurrency, log)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d managers, %d files to %s\n", stats.Managers, stats.Files, dir)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "", "output directory (overrides data.output_dir)")
}
