package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/aggregator"
	"stockdash/internal/api"
	"stockdash/internal/auth"
	"stockdash/internal/config"
	"stockdash/internal/state"
	"stockdash/internal/store"
	"stockdash/internal/ui"
	"stockdash/internal/util"
	"stockdash/internal/weather"
)

func main() {
	configPath := flag.String("config", "stockdash.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a file.
	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = fmt.Sprintf("/tmp/stockdash-%s.log", time.Now().Format("2006-01-02"))
	}
	logger := util.NewFileLogger(logPath, cfg.Logging.Level)
	util.SetDefault(logger)

	resolver := config.NewResolver(cfg.Gateway.URL, cfg.Gateway.ConfigURL, logger)
	client := api.NewClient(resolver.GatewayURL())

	user := &state.User{}
	token := cfg.Auth.Token
	if token == "" {
		saved, err := auth.LoadSession(cfg.Auth.SessionPath)
		if err != nil {
			logger.Warn("loading session", "error", err)
		}
		token = saved
	}
	if token != "" {
		claims, err := auth.ParseToken(token)
		if err != nil {
			logger.Warn("saved session token unusable", "error", err)
		} else {
			user.SignIn(state.Profile{
				Username: claims.Username,
				Email:    claims.Email,
				IsAdmin:  claims.IsAdmin,
			}, token)
			client.SetToken(token)
			logger.Info("session restored", "user", claims.Username, "admin", claims.IsAdmin)
		}
	}

	snaps, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening snapshot store: %v\n", err)
		os.Exit(1)
	}
	defer snaps.Close()

	agg := aggregator.New(client, snaps, cfg.Cache.Minutes, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := agg.Restore(ctx); err != nil {
		logger.Warn("restoring suggestion snapshot", "error", err)
	}
	cancel()

	app := ui.NewApp(ui.Deps{
		Client:      client,
		Resolver:    resolver,
		Agg:         agg,
		Weather:     weather.New(),
		Ticks:       store.NewParquetStore(cfg.Storage.DataDir),
		User:        user,
		SessionPath: cfg.Auth.SessionPath,
		Log:         logger,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "running program: %v\n", err)
		os.Exit(1)
	}
}
