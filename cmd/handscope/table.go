package main

import (
	"fmt"

	"github.com/lox/handscope/internal/fileutil"
	"github.com/lox/handscope/poker"
	"github.com/lox/handscope/sdk/analysis"
	"github.com/lox/handscope/sdk/protocol"
)

// TableCmd prints or exports the strength grid.
type TableCmd struct {
	Range  string `short:"r" help:"Highlight only this range, e.g. 'TT+,AJs+,KQo'"`
	JSON   bool   `help:"Print the table as JSON"`
	Output string `short:"o" type:"path" help:"Write the table as JSON to this file"`
}

func (c *TableCmd) Run(g *Globals) error {
	rng, err := analysis.ParseRange(c.Range)
	if err != nil {
		return err
	}

	if c.JSON || c.Output != "" {
		table := protocol.NewTableResponse(rng)
		if c.Output != "" {
			if err := fileutil.WriteJSONAtomic(c.Output, table, 0o644); err != nil {
				return err
			}
			_, err := fmt.Fprintf(g.stdout, "Wrote %d hands to %s\n", table.Size, c.Output)
			return err
		}
		return writeJSON(g.stdout, table)
	}

	r := g.Renderer()
	var highlight *analysis.Range
	if c.Range != "" {
		highlight = rng
	}
	_, err = fmt.Fprintf(g.stdout, "%s\n%s", r.Grid(highlight), r.Legend(poker.CategoryCounts()))
	if err != nil {
		return err
	}
	if highlight != nil {
		_, err = fmt.Fprintf(g.stdout, "\n%d hands, %d combos\n", rng.Size(), rng.Combos())
	}
	return err
}
