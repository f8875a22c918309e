package main

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants"
	"github.com/spf13/cobra"

	"github.com/AhmetTanakol/buffer-manager/internal/cfg"
)

func newBenchCmd(opts *rootOptions) *cobra.Command {
	var keySpace uint64

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Hammer the pool with a goroutine-pooled concurrent fix/unfix workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			mc, err := resolveConfig(opts)
			if err != nil {
				return err
			}

			be, err := cfg.LoadBenchEnv()
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
			defer func() { _ = mgr.Close() }()

			pool, err := ants.NewPool(be.Workers)
			if err != nil {
				return fmt.Errorf("build worker pool: %w", err)
			}
			defer pool.Release()

			var (
				wg         sync.WaitGroup
				fixed      atomic.Int64
				bufferFull atomic.Int64
				ioErrors   atomic.Int64
			)

			for w := 0; w < be.Workers; w++ {
				worker := uint64(w)

				wg.Add(1)

				task := func() {
					defer wg.Done()

					for i := 0; i < be.Iterations; i++ {
						pageID := worker*1000 + uint64(i)%keySpace

						handle, err := mgr.FixPage(pageID, be.Exclusive)
						if err != nil {
							switch {
							case isBufferFull(err):
								bufferFull.Add(1)
							default:
								ioErrors.Add(1)
							}

							continue
						}

						if be.Exclusive {
							handle.Data()[0]++
						}

						fixed.Add(1)

						_ = mgr.UnfixPage(handle, be.Exclusive)
					}
				}

				if err := pool.Submit(task); err != nil {
					wg.Done()
					return fmt.Errorf("submit worker %d: %w", w, err)
				}
			}

			wg.Wait()

			log.Infow("bench complete",
				"fixed", fixed.Load(),
				"buffer_full", bufferFull.Load(),
				"io_errors", ioErrors.Load(),
				"fifo_len", len(mgr.FifoList()),
				"lru_len", len(mgr.LruList()),
			)

			return nil
		},
	}

	cmd.Flags().Uint64Var(&keySpace, "key-space", 64, "distinct page ids touched per worker")

	return cmd
}
