package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"asanaid/internal/adapters/cachedb"
	"asanaid/internal/adapters/cachefile"
	"asanaid/internal/config"
	"asanaid/internal/ports"
)

var (
	configPath   string
	cachePath    string
	cacheBackend string
	verbosity    int
)

var rootCmd = &cobra.Command{
	Use:   "asanaid",
	Short: "Assign stable hierarchical IDs to Asana tasks",
	Long: `asanaid assigns stable, human-readable IDs like PRJ-42 and PRJ-42-3
to tasks in Asana projects, and keeps a local counter cache in sync
with the remote tree so IDs never collide or go backwards.

Typical flow:
  asanaid init                 create a configuration
  asanaid scan                 reconcile the cache with existing IDs
  asanaid update --dry-run     preview the IDs that would be assigned
  asanaid update               assign IDs and rename tasks`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbosity)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the config file")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "path to the cache (defaults per backend)")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache-backend", "yaml", "cache backend: yaml or sqlite")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v info, -vv debug)")
}

func setupLogging(verbosity int) {
	level := slog.LevelWarn
	switch {
	case verbosity == 1:
		level = slog.LevelInfo
	case verbosity >= 2:
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openCacheStore builds the configured cache store. The returned close
// function is a no-op for the file backend.
func openCacheStore() (ports.CacheStore, func(), error) {
	switch cacheBackend {
	case "yaml":
		path := cachePath
		if path == "" {
			path = cachefile.DefaultPath
		}
		return cachefile.NewStore(path), func() {}, nil
	case "sqlite":
		path := cachePath
		if path == "" {
			path = cachedb.DefaultPath
		}
		store, err := cachedb.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q (expected yaml or sqlite)", cacheBackend)
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM, so an
// interrupted run can flush the cache before exiting.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
