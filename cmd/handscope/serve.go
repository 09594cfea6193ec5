package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lox/handscope/cmd/handscope/shared"
	"github.com/lox/handscope/internal/history"
	"github.com/lox/handscope/internal/server"
)

// ServeCmd runs the analysis service.
type ServeCmd struct {
	Config  string `short:"c" default:"handscope.hcl" type:"path" help:"HCL config file (defaults apply when missing)"`
	Address string `help:"Override the listen address"`
	Port    int    `short:"p" help:"Override the listen port"`
	Watch   bool   `help:"Reload the config file when it changes"`
}

func (c *ServeCmd) Run(g *Globals) error {
	logger, err := g.Logger()
	if err != nil {
		return err
	}

	cfg, err := c.load()
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(context.Background(), logger)
	defer cancel()

	var opts []server.Option
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, logger)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		opts = append(opts, server.WithRecorder(store))
		logger.Info("Recording analyses", "path", cfg.History.Path)
	}

	srv := server.New(cfg, logger, opts...)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Run(ctx)
	})
	if c.Watch {
		group.Go(func() error {
			return server.WatchConfig(ctx, c.Config, logger, func(next *server.Config) {
				c.override(next)
				srv.Reload(next)
			})
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *ServeCmd) load() (*server.Config, error) {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return nil, err
	}
	c.override(cfg)
	return cfg, cfg.Validate()
}

// override applies command-line flags on top of the file so reloads keep them.
func (c *ServeCmd) override(cfg *server.Config) {
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
}
