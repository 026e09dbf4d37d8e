package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gait-logger/controller"
	"gait-logger/services/ingest"
	"gait-logger/services/outlet"
	"gait-logger/utils"
)

var version = "dev"

type globalFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	var gf globalFlags

	root := &cobra.Command{
		Use:   "gait-logger",
		Short: "Real-time gait sensor logger writing CSV streams and session snapshots",
		Long: `gait-logger receives discrete events from a host process (session
timestamp, session dictionary, streamed samples, sensor configuration, save
and close requests) and persists them as ';'-delimited CSV files.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&gf.configPath, "config", "c", "", "config file (YAML)")
	pf.String("logs-dir", "", "directory for CSV output (overrides storage.logs_dir)")
	pf.String("log-level", "", "debug, info, warn or error (overrides logging.level)")
	pf.String("log-format", "", "text or json (overrides logging.format)")

	root.AddCommand(newRunCmd(&gf), newReplayCmd(&gf), newVersionCmd())
	return root
}

func newRunCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Read host events from stdin, one JSON object per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, gf, cmd.InOrStdin(), false)
		},
	}
}

func newReplayCmd(gf *globalFlags) *cobra.Command {
	var pace bool
	c := &cobra.Command{
		Use:   "replay <events-file>",
		Short: "Feed a recorded or scripted event file through the logger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open events file: %w", err)
			}
			defer f.Close()
			return runPipeline(cmd, gf, f, pace)
		},
	}
	c.Flags().BoolVar(&pace, "pace", false, "honor each line's delay_ms")
	return c
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gait-logger", version)
		},
	}
}

// loadConfig layers .env, defaults, the config file, env vars and flags.
func loadConfig(cmd *cobra.Command, gf *globalFlags) (*viper.Viper, *utils.Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v, err := utils.NewViper(gf.configPath)
	if err != nil {
		return nil, nil, err
	}
	for key, flag := range map[string]string{
		"storage.logs_dir": "logs-dir",
		"logging.level":    "log-level",
		"logging.format":   "log-format",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg, err := utils.LoadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	if !filepath.IsAbs(cfg.Storage.LogsDir) {
		if abs, err := filepath.Abs(cfg.Storage.LogsDir); err == nil {
			cfg.Storage.LogsDir = abs
		}
	}
	return v, cfg, nil
}

func runPipeline(cmd *cobra.Command, gf *globalFlags, src io.Reader, pace bool) error {
	v, cfg, err := loadConfig(cmd, gf)
	if err != nil {
		return err
	}

	// ── Logger ───────────────────────────────────────────────────────
	logger, err := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		return err
	}
	defer logger.Close()
	if gf.configPath != "" {
		utils.WatchLogLevel(v, logger)
	}

	logger.Info("gait-logger starting",
		"version", version, "gomaxprocs", runtime.GOMAXPROCS(0), "pid", os.Getpid(),
		"logs_dir", cfg.Storage.LogsDir, "idle_timeout", cfg.IdleTimeout())

	// ── Context with OS signal cancellation ──────────────────────────
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := utils.NewMetrics()
	if cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, cfg.Metrics.Addr, metrics, logger)
	}

	// ── Pipeline assembly ────────────────────────────────────────────
	//
	//  host events ──► EventReader ──► LoggerController ──► <id>_<stamp>_Sensors.csv
	//                                        │
	//                                        ├──► <id>_<stamp>.csv (save)
	//                                        └──► filename outlet (stdout)
	reader, err := ingest.NewEventReader(src, 0, pace, logger.With("component", "ingest"), metrics)
	if err != nil {
		return err
	}
	reader.Start(ctx)

	lc := controller.NewLoggerController(controller.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Outlet:  outlet.NewJSONOutlet(cmd.OutOrStdout()),
	})

	err = lc.Run(ctx, reader.Out)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutdown requested")
		return nil
	}
	return err
}

func serveMetrics(ctx context.Context, addr string, metrics *utils.Metrics, logger *utils.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics endpoint failed", "err", err)
	}
}
