// Package app provides the signal-aware run loop shared by long-lived CLI
// subcommands (currently just "serve"), mirroring the graceful-shutdown
// pattern this codebase's lineage uses for its server entrypoint.
package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Entrypoint is a long-running process component with an explicit shutdown
// hook.
type Entrypoint interface {
	Run(ctx context.Context) error
	Close() error
}

// Run blocks e until SIGINT/SIGTERM or e.Run returns, then closes e and
// reports whichever error ended the run.
func Run(ctx context.Context, log *zap.SugaredLogger, e Entrypoint) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer cancel()
		return e.Run(ctx)
	})

	eg.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		return e.Close()
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	return nil
}
