package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/AhmetTanakol/buffer-manager/internal/app"
	"github.com/AhmetTanakol/buffer-manager/internal/bufferpool"
)

// servingEntrypoint wires a buffer manager into app.Entrypoint: Run just
// idles until cancelled, Close flushes dirty pages.
type servingEntrypoint struct {
	mgr *bufferpool.Manager
}

func (e *servingEntrypoint) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (e *servingEntrypoint) Close() error {
	return e.mgr.Close()
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Construct the pool and idle, flushing dirty pages on shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			mc, err := resolveConfig(opts)
			if err != nil {
				return err
			}

			log, err := newLogger(mc)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			mgr, err := newManager(mc, log)
			if err != nil {
				return err
			}

			log.Infow("buffer pool ready", "page_size", mc.PageSize, "page_count", mc.PageCount, "data_dir", mc.DataDir)

			return app.Run(cmd.Context(), log, &servingEntrypoint{mgr: mgr})
		},
	}
}
