package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lox/handscope/poker"
	"github.com/lox/handscope/sdk/analysis"
)

// BatchCmd analyzes many hands concurrently.
type BatchCmd struct {
	File    string `arg:"" optional:"" type:"existingfile" help:"File with one pair per line; stdin when omitted"`
	Workers int    `short:"w" default:"0" help:"Concurrent workers (0 uses GOMAXPROCS)"`
	JSON    bool   `help:"Print analyses as JSON"`
}

func (c *BatchCmd) Run(g *Globals) error {
	in := g.stdin
	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	hands, err := readHands(in)
	if err != nil {
		return err
	}

	logger, err := g.Logger()
	if err != nil {
		return err
	}
	logger.Debug("Analyzing batch", "hands", len(hands), "workers", c.Workers)

	results, err := analysis.AnalyzeBatch(context.Background(), hands, c.Workers)
	if err != nil {
		return err
	}

	if c.JSON {
		return writeJSON(g.stdout, results)
	}
	r := g.Renderer()
	for _, a := range results {
		fmt.Fprintf(g.stdout, "%s %s  %-4s %s\n",
			r.Card(a.Cards[0]), r.Card(a.Cards[1]), a.Key, r.Strength(a.Strength))
	}
	return nil
}

// readHands reads one pair of hole cards per line. Blank lines and lines
// starting with # are skipped. Cards are normalized to ASCII so the batch
// analyzer sees exactly two tokens per hand.
func readHands(r io.Reader) ([][2]string, error) {
	var hands [][2]string
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cards, err := poker.ParseCards(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(cards) != 2 {
			return nil, fmt.Errorf("line %d: %w: expected 2 cards, got %d", line, poker.ErrInvalidCardFormat, len(cards))
		}
		hands = append(hands, [2]string{cards[0].ASCII(), cards[1].ASCII()})
	}
	return hands, scanner.Err()
}
