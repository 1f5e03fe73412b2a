// Bmistationd is the BMI measurement station daemon.
//
// It listens for face-scan callbacks from the access controller, reads the
// weighing scale over a serial line, correlates both into person
// measurement sessions, and serves an HTTP/WebSocket control surface.
// Shutdown is handled gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/muhammadaliwebase/BMICalculator.New/internal/app"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/config"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/logging"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "/etc/bmistation/bmistation.toml", "Path to config TOML")
		bind       = pflag.String("bind", "", "HTTP bind address (overrides server.bind)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	a := app.New(app.Options{
		Logger: logger,
		Cfg:    cfg,
		Bind:   *bind,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Errorw("bmistationd failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
