package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tejzpr/privacy-portal/internal/config"
	"github.com/tejzpr/privacy-portal/internal/db"
	"github.com/tejzpr/privacy-portal/internal/handler"
	"github.com/tejzpr/privacy-portal/internal/manager"
	"github.com/tejzpr/privacy-portal/internal/webserver"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configPath string

	serve := func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, configPath)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	}

	root := &cobra.Command{
		Use:           "privacy-portal",
		Short:         "Privacy policy and data deletion pages",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")

	flags := root.PersistentFlags()
	flags.String("addr", ":5000", "listen address")
	flags.String("store", config.StoreMemory, "request store: memory or sqlite")
	flags.String("sqlite-dsn", "", "sqlite DSN when --store=sqlite")
	flags.String("log-level", "info", "log level: debug or info")
	flags.Bool("mcp", false, "also serve MCP admin tools on stdio")
	for key, flag := range map[string]string{
		"addr":       "addr",
		"store":      "store",
		"sqlite_dsn": "sqlite-dsn",
		"log_level":  "log-level",
		"mcp":        "mcp",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web server (default)",
		RunE:  serve,
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openStore(cfg *config.Config) (db.Store, func() error, error) {
	if cfg.Store != config.StoreSQLite {
		return db.NewMemoryStore(), func() error { return nil }, nil
	}
	d, err := db.Open(cfg.SQLiteDSN)
	if err != nil {
		return nil, nil, err
	}
	s := db.NewGormStore(d)
	return s, s.Close, nil
}

func run(parent context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.UsesDefaultSecret() {
		logger.Warn("secret_key is the built-in default; set PRIVACY_SECRET_KEY")
	}
	logger.Warn("admin routes are unauthenticated", zap.String("path", "/admin/deletion-requests"))

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	broker := manager.NewSSEBroker()
	requests := manager.NewDeletionManager(store, broker)

	srv, err := webserver.New(cfg, requests, broker, logger)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })

	if cfg.MCP {
		s := server.NewMCPServer(
			"privacy-portal",
			version,
			server.WithToolCapabilities(false),
		)
		handler.NewTools(requests).Register(s)

		// stdio is owned by MCP, so logs stay on stderr
		g.Go(func() error {
			err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		})
	}

	logger.Info("privacy-portal started",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
		zap.Bool("mcp", cfg.MCP))
	return g.Wait()
}
