package main

import (
	"context"

	"github.com/lox/handscope/cmd/handscope/shared"
	"github.com/lox/handscope/internal/tui"
)

// TUICmd starts the interactive analyzer.
type TUICmd struct{}

func (c *TUICmd) Run(g *Globals) error {
	logger, err := g.Logger()
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(context.Background(), logger)
	defer cancel()

	return tui.Run(ctx, logger, g.Renderer())
}
