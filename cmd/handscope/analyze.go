package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lox/handscope/cmd/handscope/shared"
	"github.com/lox/handscope/poker"
	"github.com/lox/handscope/sdk/analysis"
	"github.com/lox/handscope/sdk/client"
	"github.com/lox/handscope/sdk/config"
)

// AnalyzeCmd analyzes one pair of hole cards locally or against a service.
type AnalyzeCmd struct {
	Cards  []string `arg:"" help:"Hole cards, e.g. 'As Kd', 'A♠ K♦' or '10h' '9h'"`
	JSON   bool     `help:"Print the analysis as JSON"`
	Server string   `help:"Analyze on a handscope service at this URL (defaults to HANDSCOPE_SERVER)"`
}

func (c *AnalyzeCmd) Run(g *Globals) error {
	c1, c2, err := poker.ParseHoleCards(strings.Join(c.Cards, " "))
	if err != nil {
		return err
	}

	serverURL := c.Server
	if serverURL == "" {
		env, err := config.FromEnv()
		if err != nil {
			return err
		}
		if env.Remote() {
			serverURL = env.ServerURL
		}
	}

	var a analysis.HandAnalysis
	if serverURL != "" {
		a, err = analyzeRemote(context.Background(), g, serverURL, c1, c2)
	} else {
		a, err = analysis.Analyze(c1, c2)
	}
	if err != nil {
		return err
	}

	if c.JSON {
		return writeJSON(g.stdout, a)
	}
	_, err = fmt.Fprint(g.stdout, g.Renderer().Analysis(a))
	return err
}

func analyzeRemote(ctx context.Context, g *Globals, serverURL string, c1, c2 poker.Card) (analysis.HandAnalysis, error) {
	cl, err := client.New(serverURL, client.WithLogger(shared.SetupClientLogger(g.stderr, g.LogLevel)))
	if err != nil {
		return analysis.HandAnalysis{}, err
	}
	resp, err := cl.Analyze(ctx, c1.ASCII(), c2.ASCII())
	if err != nil {
		return analysis.HandAnalysis{}, err
	}
	return resp.Analysis, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
