package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/gamatch/chart"
	"github.com/lixenwraith/gamatch/config"
	"github.com/lixenwraith/gamatch/genetic"
	"github.com/lixenwraith/gamatch/parameter"
	"github.com/lixenwraith/gamatch/persistence"
	"github.com/lixenwraith/gamatch/raster"
	"github.com/lixenwraith/gamatch/session"
	"github.com/lixenwraith/gamatch/tracking"
)

type runFlags struct {
	report string
	chart  string
}

func newRunCommand(a *app) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "run <image>",
		Short: "Evolve a fixed number of generations without a terminal UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, cmd, args[0], rf)
		},
	}
	addSearchFlags(cmd)
	f := cmd.Flags()
	f.Int(config.KeyGenerations, parameter.RunGenerations, "generations to evolve")
	f.Int(config.KeyLogEvery, parameter.RunLogEvery, "log progress every N generations (0 disables)")
	f.String(config.KeyReports, parameter.ReportPath, "report directory")
	f.StringVar(&rf.report, "report", "", "save a TOML report under this name")
	f.StringVar(&rf.chart, "chart", "", "write a fitness chart PNG to this path")
	return cmd
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, path string, rf runFlags) error {
	opts, err := a.searchOptions(path)
	if err != nil {
		return err
	}
	s, err := session.New(opts)
	if err != nil {
		return err
	}

	a.logger.Info("search started",
		"search", s.ID(),
		"image", path,
		"region", raster.FormatRect(opts.Region),
		"population", opts.Population,
		"crossover", opts.Crossover,
		"mutation", opts.Mutation,
		"seed", opts.Seed)

	every := a.settings.LogEvery
	err = s.Advance(ctx, a.settings.Generations, func(stats genetic.Stats, improved bool) {
		if improved {
			a.logger.Debug("best improved", "generation", stats.Generation, "x", stats.Best.X, "y", stats.Best.Y, "fitness", stats.Best.Fitness)
		}
		if every > 0 && stats.Generation%every == 0 {
			a.logger.Info("progress",
				"generation", stats.Generation,
				"best", stats.Best.Fitness,
				"mean", stats.MeanScore,
				"sentinels", stats.Sentinels)
		}
	})
	if err != nil {
		a.logger.Warn("search interrupted", "error", err)
	}

	best := s.Best()
	stats := s.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "best x=%d y=%d fitness=%g peak=%g generation=%d evaluations=%d\n",
		best.X, best.Y, best.Fitness, s.Peak(), stats.Generation, stats.Evaluations)

	if rf.report != "" {
		reports := persistence.NewManager(a.settings.Reports)
		if reports.Exists(rf.report) {
			a.logger.Warn("overwriting report", "path", reports.FilePath(rf.report))
		}
		if err := reports.Save(rf.report, s.Report(true)); err != nil {
			return err
		}
		a.logger.Info("report saved", "path", reports.FilePath(rf.report))
	}
	if rf.chart != "" {
		title := fmt.Sprintf("%s %s", path, raster.FormatRect(opts.Region))
		if err := chart.Render(tracking.SeriesOf(s.Rows()), title, rf.chart); err != nil {
			return err
		}
		a.logger.Info("chart written", "path", rf.chart)
	}
	return nil
}
