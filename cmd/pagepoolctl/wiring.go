package main

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/AhmetTanakol/buffer-manager/internal/bufferpool"
	"github.com/AhmetTanakol/buffer-manager/internal/cfg"
	"github.com/AhmetTanakol/buffer-manager/internal/diskio"
	"github.com/AhmetTanakol/buffer-manager/internal/metrics"
)

func isBufferFull(err error) bool {
	return errors.Is(err, bufferpool.ErrBufferFull)
}

func resolveConfig(opts *rootOptions) (cfg.ManagerConfig, error) {
	mc, err := cfg.LoadManagerConfig(opts.configPath)
	if err != nil {
		return cfg.ManagerConfig{}, err
	}

	if opts.dataDir != "" {
		mc.DataDir = opts.dataDir
	}

	if opts.pageSize != 0 {
		mc.PageSize = opts.pageSize
	}

	if opts.pageCount != 0 {
		mc.PageCount = opts.pageCount
	}

	if opts.env != "" {
		mc.Environment = cfg.Environment(opts.env)
	}

	if err := mc.Environment.Validate(); err != nil {
		return cfg.ManagerConfig{}, err
	}

	return mc, nil
}

func newLogger(mc cfg.ManagerConfig) (*zap.SugaredLogger, error) {
	if mc.Environment == cfg.EnvProd {
		l, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("build production logger: %w", err)
		}

		return l.Sugar(), nil
	}

	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("build development logger: %w", err)
	}

	return l.Sugar(), nil
}

func newManager(mc cfg.ManagerConfig, log *zap.SugaredLogger) (*bufferpool.Manager, error) {
	device := diskio.New(afero.NewOsFs(), mc.DataDir)

	rec, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("build metrics recorder: %w", err)
	}

	mgr, err := bufferpool.New(
		mc.PageSize,
		mc.PageCount,
		device,
		bufferpool.WithLogger(log),
		bufferpool.WithMetrics(rec),
	)
	if err != nil {
		return nil, fmt.Errorf("build buffer manager: %w", err)
	}

	return mgr, nil
}
