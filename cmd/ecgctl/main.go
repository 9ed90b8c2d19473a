// Command ecgctl is the terminal front end for ECG Health IQ.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/raiahtisham/ecg-health-iq/internal/cli"
	"github.com/raiahtisham/ecg-health-iq/internal/client"
	"github.com/raiahtisham/ecg-health-iq/internal/pkg/config"
	"github.com/raiahtisham/ecg-health-iq/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := logger.Init(logger.Options{
		Level:    cfg.LogLevel,
		Pretty:   true,
		Output:   os.Stderr,
		Service:  "ecgctl",
		NoCaller: true,
	})

	var sessions client.SessionStore
	if cfg.SessionPassphrase != "" {
		store, err := client.NewFileStore(cfg.SessionDir, cfg.SessionPassphrase)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		sessions = store
	} else {
		log.Warn().Msg("ECG_SESSION_PASSPHRASE not set, the session is kept for this run only")
	}

	c, err := client.New(client.Config{
		BaseURL:       cfg.APIURL,
		DeviceURL:     cfg.DeviceURL,
		Timeout:       cfg.Timeout,
		DeviceTimeout: cfg.DeviceTimeout,
		Sessions:      sessions,
		Log:           log,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	app := cli.NewApp(c, os.Stdin, os.Stdout, log)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", cli.Describe(err))
		return 1
	}
	return 0
}
