package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"inherit/internal/config"
	"inherit/internal/crawler"
	"inherit/internal/extractor"
	"inherit/internal/index"
	"inherit/internal/logging"
	"inherit/internal/manifest"
	"inherit/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rootCmd = &cobra.Command{
		Use:           "inherit",
		Short:         "Static interface-conformance verifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	configPath string
	dbPath     string
	logLevel   string
	logJSON    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "inherit.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the run archive database (SQLite); overrides storage.path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides log.level")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit JSON logs")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(historyCmd)
}

// setup loads the configuration and builds the process logger.
func setup() error {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err = logging.New(logging.Options{Level: level, JSON: logJSON || cfg.Log.Format == "json"})
	return err
}

// initStore opens the run archive.
func initStore() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func newIndexer() (*index.Indexer, error) {
	ext, err := extractor.NewExtractor("go")
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	return index.NewIndexer(crawler.NewCrawler(ext, logger)), nil
}

// loadManifests collects the declaration streams of the run: one manifest per
// annotated Go package under each source path, plus every manifest file or
// directory named in manifestPaths.
func loadManifests(sourcePaths, manifestPaths []string) ([]*manifest.File, error) {
	var files []*manifest.File
	if len(sourcePaths) > 0 {
		idx, err := newIndexer()
		if err != nil {
			return nil, err
		}
		for _, root := range sourcePaths {
			built, err := idx.BuildManifests(root)
			if err != nil {
				return nil, fmt.Errorf("failed to extract %s: %w", root, err)
			}
			logger.Debug("extracted manifests", zap.String("root", root), zap.Int("scopes", len(built)))
			files = append(files, built...)
		}
	}

	for _, p := range manifestPaths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			loaded, err := index.LoadManifests(p)
			if err != nil {
				return nil, err
			}
			files = append(files, loaded...)
			continue
		}
		f, err := manifest.Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
