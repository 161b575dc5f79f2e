package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/gamatch/config"
	"github.com/lixenwraith/gamatch/metrics"
	"github.com/lixenwraith/gamatch/parameter"
	"github.com/lixenwraith/gamatch/persistence"
	"github.com/lixenwraith/gamatch/server"
	"github.com/lixenwraith/gamatch/session"
)

func newServeCommand(a *app) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve template searches over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, save)
		},
	}
	f := cmd.Flags()
	f.String(config.KeyListen, parameter.ServerListenAddr, "listen address")
	f.String(config.KeyReports, parameter.ReportPath, "report directory")
	f.Int(config.KeyPopulation, parameter.GAPopulationSize, "default population size")
	f.Float64(config.KeyCrossover, parameter.GACrossoverRate, "default crossover rate [0,1]")
	f.Float64(config.KeyMutation, parameter.GAMutationRate, "default mutation rate [0,1]")
	f.BoolVar(&save, "save", false, "save every live search as a report on shutdown")
	return cmd
}

func (a *app) serve(ctx context.Context, save bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return errors.Wrap(err, "register metrics")
	}

	var reports *persistence.Manager
	if save {
		reports = persistence.NewManager(a.settings.Reports)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Options{
		Registry: session.NewRegistry(parameter.ServerMaxSessions, reports),
		Defaults: a.settings,
		Recorder: recorder,
		Gatherer: reg,
		Logger:   a.logger,
	})
	return srv.ListenAndServe(ctx, a.settings.Listen)
}
