package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockdash/internal/api"
	"stockdash/internal/config"
	"stockdash/internal/store"
	"stockdash/internal/util"
)

// stockdash-export pulls tick history for the whole ticker universe from the
// gateway and writes it to local parquet, one file per symbol and window.
// Repeated runs merge with what is already on disk.
func main() {
	configPath := flag.String("config", "stockdash.yaml", "path to config file")
	windowFlag := flag.String("window", "", "tick window: day, week, or month (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	windowName := cfg.Export.Window
	if *windowFlag != "" {
		windowName = *windowFlag
	}
	window := api.TickWindow(windowName)
	valid := false
	for _, w := range api.Windows {
		if w == window {
			valid = true
			break
		}
	}
	if !valid {
		fmt.Fprintf(os.Stderr, "invalid window %q (want day, week, or month)\n", windowName)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := config.NewResolver(cfg.Gateway.URL, cfg.Gateway.ConfigURL, logger)
	resolver.Resolve(ctx)
	client := api.NewClient(resolver.GatewayURL())
	if cfg.Auth.Token != "" {
		client.SetToken(cfg.Auth.Token)
	}

	ticks := store.NewParquetStore(cfg.Storage.DataDir)

	symbols, err := client.ListStocks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listing stocks: %v\n", err)
		os.Exit(1)
	}
	logger.Info("exporting ticks", "symbols", len(symbols), "window", window,
		"data_dir", cfg.Storage.DataDir)

	limiter := util.NewRateLimiter(cfg.Export.RateLimitPerMin)
	exported, failed := 0, 0

	for _, symbol := range symbols {
		if err := limiter.Wait(ctx); err != nil {
			logger.Warn("export interrupted", "error", err)
			break
		}

		var resp *api.TickResponse
		err := util.Retry(ctx, cfg.Export.MaxAttempts, time.Second, func() error {
			var err error
			resp, err = client.GetTicks(ctx, symbol, window)
			return err
		})
		if err != nil {
			logger.Warn("fetching ticks", "symbol", symbol, "error", err)
			failed++
			continue
		}
		if len(resp.Ticks) == 0 {
			logger.Debug("no ticks", "symbol", symbol)
			continue
		}

		if err := ticks.WriteTicks(ctx, window, resp.Ticks); err != nil {
			logger.Warn("writing ticks", "symbol", symbol, "error", err)
			failed++
			continue
		}
		exported++
		logger.Debug("exported", "symbol", symbol, "ticks", len(resp.Ticks))
	}

	logger.Info("export finished", "exported", exported, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
