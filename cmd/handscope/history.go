package main

import (
	"context"
	"fmt"

	"github.com/lox/handscope/internal/history"
	"github.com/lox/handscope/internal/server"
)

// HistoryCmd lists analyses recorded by the service.
type HistoryCmd struct {
	DB     string `help:"SQLite history database (defaults to the config's history path)"`
	Config string `short:"c" default:"handscope.hcl" type:"path" help:"HCL config file used to locate the database"`
	Limit  int    `short:"n" help:"Number of entries to show (defaults to the config's recent_limit)"`
	Counts bool   `help:"Show totals per strength category instead of entries"`
	JSON   bool   `help:"Print as JSON"`
}

func (c *HistoryCmd) Run(g *Globals) error {
	logger, err := g.Logger()
	if err != nil {
		return err
	}

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	path := c.DB
	if path == "" {
		path = cfg.History.Path
	}
	limit := c.Limit
	if limit <= 0 {
		limit = cfg.History.RecentLimit
	}

	store, err := history.Open(path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	r := g.Renderer()

	if c.Counts {
		counts, err := store.CategoryCounts(ctx)
		if err != nil {
			return err
		}
		if c.JSON {
			byLabel := make(map[string]int, len(counts))
			for cat, n := range counts {
				byLabel[cat.String()] = n
			}
			return writeJSON(g.stdout, byLabel)
		}
		_, err = fmt.Fprint(g.stdout, r.Legend(counts))
		return err
	}

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(g.stdout, entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(g.stdout, "No analyses recorded")
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(g.stdout, "%s  %s %s  %-4s %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Card(e.Cards[0]), r.Card(e.Cards[1]), e.Key, r.Strength(e.Strength))
	}
	return nil
}
