package main

import (
	"fmt"
	"time"

	"github.com/lox/handscope/internal/randutil"
	"github.com/lox/handscope/sdk/analysis"
	"github.com/lox/handscope/sdk/config"
)

// DealCmd deals random hole cards and analyzes each pair.
type DealCmd struct {
	Count int    `short:"n" default:"5" help:"Number of hands to deal"`
	Seed  *int64 `help:"Deterministic RNG seed (defaults to HANDSCOPE_SEED, then the clock)"`
	JSON  bool   `help:"Print analyses as JSON"`
}

func (c *DealCmd) Run(g *Globals) error {
	if c.Count < 1 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}

	logger, err := g.Logger()
	if err != nil {
		return err
	}

	seed, err := c.seed()
	if err != nil {
		return err
	}
	logger.Info("Dealing hands", "count", c.Count, "seed", seed)

	hands := randutil.DealHoleCards(randutil.New(seed), c.Count)
	results := make([]analysis.HandAnalysis, len(hands))
	for i, h := range hands {
		if results[i], err = analysis.Analyze(h[0], h[1]); err != nil {
			return err
		}
	}

	if c.JSON {
		return writeJSON(g.stdout, results)
	}
	r := g.Renderer()
	for i, a := range results {
		if i > 0 {
			fmt.Fprintln(g.stdout)
		}
		fmt.Fprint(g.stdout, r.Analysis(a))
	}
	return nil
}

func (c *DealCmd) seed() (int64, error) {
	if c.Seed != nil {
		return *c.Seed, nil
	}
	env, err := config.FromEnv()
	if err != nil {
		return 0, err
	}
	if env.Seed != 0 {
		return env.Seed, nil
	}
	return time.Now().UnixNano(), nil
}
