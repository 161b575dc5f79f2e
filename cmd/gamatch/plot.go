package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/gamatch/chart"
	"github.com/lixenwraith/gamatch/persistence"
	"github.com/lixenwraith/gamatch/tracking"
)

func newPlotCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plot <report.toml> <out.png>",
		Short: "Chart the fitness history of a saved report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := persistence.LoadFile(args[0])
			if err != nil {
				return err
			}
			title := fmt.Sprintf("%s %s", report.Image, report.Region)
			if err := chart.Render(tracking.SeriesOf(report.Rows()), title, args[1]); err != nil {
				return err
			}
			a.logger.Info("chart written", "report", args[0], "path", args[1], "rows", len(report.History))
			return nil
		},
	}
}
