package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/gamatch/config"
	"github.com/lixenwraith/gamatch/genetic"
	"github.com/lixenwraith/gamatch/parameter"
	"github.com/lixenwraith/gamatch/session"
)

// trialResult is the outcome of one independent engine run
type trialResult struct {
	index       int
	seed        uint64
	best        genetic.Gene
	evaluations uint64
	elapsed     time.Duration
}

// benchSummary aggregates trials against the exhaustive optimum
type benchSummary struct {
	Trials          int
	Hits            int
	MeanBest        float64
	MeanEvaluations float64
	Optimum         genetic.Gene
	Positions       int
}

func newBenchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench <image>",
		Short: "Run independent trials and compare them with an exhaustive scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.bench(ctx, cmd, args[0])
		},
	}
	addSearchFlags(cmd)
	f := cmd.Flags()
	f.Int(config.KeyGenerations, parameter.RunGenerations, "generations per trial")
	f.Int(config.KeyTrials, parameter.BenchTrials, "independent trials")
	f.Int(config.KeyParallel, parameter.BenchParallelism, "trials run concurrently")
	return cmd
}

func (a *app) bench(ctx context.Context, cmd *cobra.Command, path string) error {
	opts, err := a.searchOptions(path)
	if err != nil {
		return err
	}

	// session.New rejects bad regions and configs; its matcher is shared read-only across trials
	s, err := session.New(opts)
	if err != nil {
		return err
	}
	matcher := s.Matcher()
	cfg := a.settings.EngineConfig(matcher.Bounds())

	start := time.Now()
	optimum := matcher.Exhaustive()
	a.logger.Info("exhaustive scan",
		"x", optimum.X, "y", optimum.Y,
		"fitness", optimum.Fitness,
		"elapsed", time.Since(start))

	results, err := runTrials(ctx, cfg, matcher, opts.Seed, a.settings.Trials, a.settings.Parallel, a.settings.Generations)
	if err != nil {
		return err
	}

	for _, r := range results {
		a.logger.Debug("trial finished",
			"trial", r.index,
			"seed", r.seed,
			"x", r.best.X, "y", r.best.Y,
			"fitness", r.best.Fitness,
			"elapsed", r.elapsed)
	}

	sum := summarize(results, optimum, cfg.Bounds.Positions())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "optimum x=%d y=%d fitness=%g positions=%d\n", sum.Optimum.X, sum.Optimum.Y, sum.Optimum.Fitness, sum.Positions)
	fmt.Fprintf(out, "trials=%d hits=%d rate=%.2f mean_best=%g mean_evaluations=%.0f\n",
		sum.Trials, sum.Hits, float64(sum.Hits)/float64(max(sum.Trials, 1)), sum.MeanBest, sum.MeanEvaluations)
	return nil
}

// runTrials evolves trials engines with consecutive seeds, at most parallel at a time
// Results are returned in trial order
func runTrials(ctx context.Context, cfg genetic.Config, oracle genetic.Oracle, seed uint64, trials, parallel, generations int) ([]trialResult, error) {
	p := pool.NewWithResults[trialResult]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(max(parallel, 1))

	for i := range trials {
		trialSeed := seed + uint64(i)
		p.Go(func(ctx context.Context) (trialResult, error) {
			start := time.Now()
			engine, err := genetic.NewSeededEngine(cfg, oracle, trialSeed)
			if err != nil {
				return trialResult{}, err
			}
			for range generations {
				if err := ctx.Err(); err != nil {
					return trialResult{}, err
				}
				engine.Advance()
			}
			return trialResult{
				index:       i,
				seed:        trialSeed,
				best:        engine.Best(),
				evaluations: engine.Evaluations(),
				elapsed:     time.Since(start),
			}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b trialResult) int { return a.index - b.index })
	return results, nil
}

// summarize counts trials whose best gene sits on the optimum position
func summarize(results []trialResult, optimum genetic.Gene, positions int) benchSummary {
	sum := benchSummary{Trials: len(results), Optimum: optimum, Positions: positions}
	if len(results) == 0 {
		return sum
	}
	var best, evals float64
	for _, r := range results {
		if r.best.X == optimum.X && r.best.Y == optimum.Y {
			sum.Hits++
		}
		best += r.best.Fitness
		evals += float64(r.evaluations)
	}
	sum.MeanBest = best / float64(len(results))
	sum.MeanEvaluations = evals / float64(len(results))
	return sum
}
