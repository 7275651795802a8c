package main // Terminal dashboard

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iliyamo/astra-care/internal/client"
	"github.com/iliyamo/astra-care/internal/config"
	"github.com/iliyamo/astra-care/internal/tui"
)

func main() {
	cfg := config.LoadClient()

	// The terminal belongs to the dashboard, so reports go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		log.Fatalf("log dir: %v", err)
	}
	lf, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		log.Fatalf("log file: %v", err)
	}
	defer lf.Close()
	logger := slog.New(slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	app := client.New(cfg, client.NewReporter(logger),
		&client.FileTokenStore{Path: cfg.TokenFile},
		&client.DeviceCamera{Path: cfg.CameraDevice})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Start(ctx)
	defer app.Close()

	logger.Info("dashboard started", "api", cfg.APIURL)
	if _, err := tea.NewProgram(tui.New(ctx, app), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
		logger.Error("dashboard stopped", "error", err)
		log.Printf("dashboard: %v", err)
	}
}
