package cli

import (
	"context"
	"os"

	"github.com/edgerunner/cypress-mongodb/internal/app/client"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/config"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
)

// DefaultRunner loads the configuration and wires a client over the
// configured transport.
func DefaultRunner(ctx context.Context) (Runner, func(), error) {
	cfg, err := config.LoadFromConfig()
	if err != nil {
		return nil, nil, err
	}
	// stdout carries the result
	logger.InitWithWriter(os.Stderr, cfg.Logging.LogLevel)

	c, err := client.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return c.Registry, func() { c.Close(context.WithoutCancel(ctx)) }, nil
}
