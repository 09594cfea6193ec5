package analysis

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// AnalyzeBatch analyzes many hole-card pairs concurrently. Results keep the
// input order. The first failing hand cancels the rest and its error is
// returned, annotated with the 1-based hand number.
func AnalyzeBatch(ctx context.Context, hands [][2]string, workers int) ([]HandAnalysis, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]HandAnalysis, len(hands))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, hand := range hands {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := AnalyzeStartingHand(hand[0], hand[1])
			if err != nil {
				return fmt.Errorf("hand %d: %w", i+1, err)
			}
			results[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
