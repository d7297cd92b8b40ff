package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/marcogenualdo/sanctum-client/internal/auth"
	"github.com/marcogenualdo/sanctum-client/internal/cache"
	"github.com/marcogenualdo/sanctum-client/internal/client"
	"github.com/marcogenualdo/sanctum-client/internal/config"
	"github.com/marcogenualdo/sanctum-client/internal/metrics"
)

const version = "1.0.0"

const defaultConfigPath = "sanctum-client.yaml"

// app carries what every subcommand needs once the root pre-run has loaded
// the configuration.
type app struct {
	configPath string
	out        string

	cfg      *config.Config
	logger   *slog.Logger
	store    cache.Cache
	registry *prometheus.Registry
	client   *client.Client
}

func main() {
	a := &app{}
	root := a.rootCommand()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := root.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sanctum-client",
		Short:         "Client for session-cookie (Laravel Sanctum) backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return nil
			}
			return a.store.Close()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "path to configuration file")
	root.PersistentFlags().StringVar(&a.out, "out", envOr("SANCTUM_OUT", "text"), "output format: json|text")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.meCommand(),
		a.requestCommand(),
		a.productsCommand(),
		a.walletCommand(),
		a.splitCommand(),
		a.serveMockCommand(),
		versionCommand(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	a.logger = setupLogger(cfg.Logging)

	a.store, err = cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	a.logger.Debug("cache initialized", "type", cfg.Cache.Type)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return nil
}

// loadConfig reads the config file. A missing file is fine as long as the
// user did not name one explicitly.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err == nil {
		return cfg, nil
	}

	if !cmd.Flags().Changed("config") && errors.Is(err, os.ErrNotExist) {
		return config.FromEnv(), nil
	}

	return nil, fmt.Errorf("failed to load config: %w", err)
}

// apiClient builds the client lazily so commands that never talk to the
// backend do not restore cookies or register collectors.
func (a *app) apiClient() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	var recorder metrics.Recorder = metrics.NewNoop()
	if a.cfg.Metrics.Enabled {
		p, err := metrics.NewPrometheus(a.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		recorder = p
		a.serveMetrics()
	}

	c, err := client.New(*a.cfg, a.store, a.logger, client.WithRecorder(recorder))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	c.Signals().Subscribe(func(ev auth.Event) {
		if ev.Type == auth.EventUnauthenticated {
			a.logger.Warn("session expired", "path", ev.Path, "status", ev.Status)
		}
	})

	a.client = c
	return c, nil
}

func (a *app) metricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry})
}

func (a *app) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metricsHandler())

	srv := &http.Server{
		Addr:              a.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("serving metrics", "address", a.cfg.Metrics.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Warn("metrics listener stopped", "error", err)
		}
	}()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var w io.Writer = os.Stderr
	if strings.ToLower(cfg.Output) == "stdout" {
		w = os.Stdout
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// describe turns the client's tagged errors into something a person at a
// terminal can act on.
func describe(err error) string {
	switch {
	case auth.IsLoggingOut(err):
		return "request cancelled by logout"
	case auth.KindOf(err) == auth.KindRedirect, auth.KindOf(err) == auth.KindSilent:
		return "not signed in (run `sanctum-client login`)"
	case auth.KindOf(err) == auth.KindMismatch:
		return "the backend kept rejecting the CSRF token; try again"
	}

	var se *client.StatusError
	if errors.As(err, &se) {
		if fields := se.FieldErrors(); len(fields) > 0 {
			var b strings.Builder
			b.WriteString(se.Message())
			for field, msgs := range fields {
				fmt.Fprintf(&b, "\n  %s: %s", field, strings.Join(msgs, "; "))
			}
			return b.String()
		}
	}

	return err.Error()
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
