// Command authctl runs maintenance operations against the credential stores.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chattr/authcore/internal/app"
	"github.com/chattr/authcore/internal/config"
	"go.uber.org/zap"
)

func main() {
	cliApp := newApp(openManager)
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openManager connects the configured stores and returns the credential core.
func openManager(ctx context.Context, configPath string, verbose bool) (operations, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := zap.NewNop()
	if verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, nil, err
		}
	}

	backends, err := app.OpenBackends(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.NewManager(cfg, backends, logger, nil), backends.Close, nil
}
