package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/atelier/internal/api"
	"github.com/good-yellow-bee/atelier/internal/files"
	"github.com/good-yellow-bee/atelier/internal/logging"
	"github.com/good-yellow-bee/atelier/internal/metrics"
	"github.com/good-yellow-bee/atelier/internal/notifier"
	"github.com/good-yellow-bee/atelier/internal/storage"
	"github.com/good-yellow-bee/atelier/pkg/version"
)

var (
	configFile string
	envFile    string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "atelier-server",
	Short: "Atelier - interior design project portal",
	Long: `Atelier serves the designer and client portal API: registration,
login, projects, uploads and feedback.`,
	SilenceUsage: true,
	RunE:         runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("atelier-server %s\n", version.Get())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	// A missing .env file is fine.
	_ = godotenv.Load(envFile)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig(ctx, configFile, nil)
	if err != nil {
		return err
	}
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Auto-create data directory
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Infow("database initialized", "path", cfg.Database.Path)

	fm, err := files.NewManager(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("open upload root: %w", err)
	}

	srv, err := api.New(apiConfig(cfg), store, fm, logger.Named("api"))
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}

	logger.Infow("starting atelier-server", "version", version.Version)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	if cfg.Metrics.Enabled && cfg.Metrics.Address != "" {
		ms := metrics.NewServer(cfg.Metrics.Address, logger.Named("metrics"))
		g.Go(func() error { return ms.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Errorw("server stopped with error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

func apiConfig(cfg *Config) *api.Config {
	out := &api.Config{
		Address:            cfg.Server.Address,
		TLSEnabled:         cfg.Server.TLS.Enabled,
		TLSCertFile:        cfg.Server.TLS.CertFile,
		TLSKeyFile:         cfg.Server.TLS.KeyFile,
		SecureCookies:      cfg.Server.SecureCookies || cfg.Server.TLS.Enabled,
		TrustedOrigins:     cfg.Server.TrustedOrigins,
		TrustProxy:         cfg.Server.TrustProxy,
		CSRFEnabled:        cfg.CSRF.Enabled,
		SessionSecret:      []byte(cfg.Auth.SessionSecret),
		SessionTTL:         cfg.Auth.SessionTTL,
		RememberDays:       cfg.Auth.RememberDays,
		BcryptCost:         cfg.Auth.BcryptCost,
		LockoutThreshold:   cfg.Auth.LockoutThreshold,
		LockoutDuration:    cfg.Auth.LockoutDuration,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
		MaxUploadBytes:     cfg.Server.MaxUploadMB << 20,
		ExposeMetrics:      cfg.Metrics.Enabled && cfg.Metrics.Address == "",
		Verbose:            cfg.Verbose,
	}
	if cfg.CSRF.Enabled {
		out.CSRFKey = []byte(cfg.CSRF.Key)
	}

	out.Notify.MaxPerMinute = cfg.Notify.MaxPerMinute
	if e := cfg.Notify.Email; e.Host != "" {
		out.Notify.Email = &notifier.EmailConfig{
			Host:     e.Host,
			Port:     e.Port,
			Username: e.Username,
			Password: e.Password,
			From:     e.From,
		}
	}
	if cfg.Notify.SlackWebhook != "" {
		out.Notify.Slack = &notifier.SlackConfig{WebhookURL: cfg.Notify.SlackWebhook}
	}
	return out
}
