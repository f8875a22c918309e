package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	dataDir    string
	pageSize   uint64
	pageCount  uint64
	env        string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pagepoolctl",
		Short: "Drive and inspect a 2Q buffer manager pool",
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", ".", "directory containing a .env config file")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "override DATA_DIR from config")
	cmd.PersistentFlags().Uint64Var(&opts.pageSize, "page-size", 0, "override PAGE_SIZE from config")
	cmd.PersistentFlags().Uint64Var(&opts.pageCount, "page-count", 0, "override PAGE_COUNT from config")
	cmd.PersistentFlags().StringVar(&opts.env, "environment", "", "override ENVIRONMENT from config")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newBenchCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))

	return cmd
}

func mustExecute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "pagepoolctl: %v\n", err)
		os.Exit(1)
	}
}
