package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/Wei1024/embase-conference-dashboard/internal/config"
	"github.com/Wei1024/embase-conference-dashboard/internal/dataset"
	appLog "github.com/Wei1024/embase-conference-dashboard/internal/log"
	"github.com/Wei1024/embase-conference-dashboard/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()

	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("confdash starting", "version", "0.1.0")

	// Best-effort .env so AUTH_USERNAME/AUTH_PASSWORD can live outside
	// the config file.
	if err := godotenv.Load(); err == nil {
		appLog.Debug("loaded .env")
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv()

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"source_url", conf.SourceURL,
		"data_file", conf.DataFile,
		"pinned_file", conf.PinnedFile,
		"refresh", conf.RefreshCron,
		"default_threshold", conf.DefaultThreshold,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	server := web.NewServer(conf)

	if flags.once {
		os.Exit(runOnce(ctx, conf, server))
	}

	// Scheduled refresh, if configured. Manual refresh via the API is
	// always available.
	if conf.RefreshCron != "" {
		c := cron.New()
		_, err := c.AddFunc(conf.RefreshCron, func() {
			if err := server.RefreshNow(ctx); err != nil {
				appLog.Error("scheduled refresh failed", err)
			}
		})
		if err != nil {
			appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
	}

	httpSrv := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("HTTP shutdown failed", err)
		}
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("confdash exiting")
}

// runOnce performs a single fetch-and-load cycle and reports the row
// count. Useful for cron-less deployments and smoke checks.
func runOnce(ctx context.Context, conf *config.Config, server *web.Server) int {
	if conf.SourceURL != "" {
		if err := server.RefreshNow(ctx); err != nil {
			appLog.Error("refresh failed", err, "source_url", conf.SourceURL)
			return 1
		}
	}

	table, err := dataset.Load(conf.DataFile, conf.HeaderSheet)
	if err != nil {
		appLog.Error("load failed", err, "data_file", conf.DataFile)
		return 1
	}

	appLog.Info("snapshot loaded",
		"rows", len(table),
		"countries", len(table.Countries()),
		"years", len(table.Years()),
	)
	return 0
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./confdash.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Fetch and load the workbook once, report, and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
