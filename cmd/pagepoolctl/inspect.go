package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Construct the pool against an existing data directory and print queue state",
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
			defer func() { _ = mgr.Close() }()

			fmt.Printf("fifo (probationary, oldest first): %v\n", mgr.FifoList())
			fmt.Printf("lru  (protected, least-recent first): %v\n", mgr.LruList())

			return nil
		},
	}
}
