package main

import (
	"image"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lixenwraith/gamatch/config"
	"github.com/lixenwraith/gamatch/parameter"
	"github.com/lixenwraith/gamatch/raster"
	"github.com/lixenwraith/gamatch/session"
)

// logToFile marks commands that own the terminal
const logToFile = "log-to-file"

// app carries state shared by every subcommand
type app struct {
	v          *viper.Viper
	configPath string
	settings   config.Settings
	logger     *slog.Logger
	logCloser  io.Closer
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "gamatch",
		Short:         "Locate a template inside an image with a genetic search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logCloser != nil {
				a.logCloser.Close()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (TOML)")
	pf.String(config.KeyLogLevel, "info", "log level: debug, info, warn, error")
	pf.String(config.KeyLogFormat, "text", "log format: text, json")
	pf.String(config.KeyLogFile, "", "log file (default stderr; the viewer logs to "+parameter.LogFileName+")")

	root.AddCommand(
		newViewCommand(a),
		newRunCommand(a),
		newBenchCommand(a),
		newServeCommand(a),
		newPlotCommand(a),
	)
	return root
}

// init resolves settings and logging once flags are parsed
func (a *app) init(cmd *cobra.Command) error {
	if err := config.ReadFile(a.v, a.configPath); err != nil {
		return err
	}
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind flags")
	}

	s, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.settings = s

	logger, closer, err := setupLogging(s, cmd.ErrOrStderr(), cmd.Annotations[logToFile] == "true")
	if err != nil {
		return err
	}
	a.logger, a.logCloser = logger, closer
	slog.SetDefault(logger)
	return nil
}

// addSearchFlags registers GA and image preparation flags
func addSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int(config.KeyPopulation, parameter.GAPopulationSize, "population size")
	f.Float64(config.KeyCrossover, parameter.GACrossoverRate, "crossover rate [0,1]")
	f.Float64(config.KeyMutation, parameter.GAMutationRate, "mutation rate [0,1]")
	f.Int(config.KeyCrossoverPercent, 0, "crossover rate in percent, overrides --crossover")
	f.Int(config.KeyMutationPercent, 0, "mutation rate in percent, overrides --mutation")
	f.Int64(config.KeySeed, 0, "random seed (0 draws one)")
	f.Bool(config.KeyGray, false, "match on luminance only")
	f.Int(config.KeyScale, 1, "downscale the image by this integer factor before searching")
	f.String(config.KeyRegion, "", "template region x,y,w,h in original image pixels")
}

// loadImage reads and prepares the search image
func (a *app) loadImage(path string) (image.Image, error) {
	img, err := raster.Load(path)
	if err != nil {
		return nil, err
	}
	img = raster.Normalize(raster.Downscale(img, a.settings.Scale))
	if a.settings.Gray {
		img = raster.Grayscale(img)
	}
	return img, nil
}

// region parses the configured region into prepared image coordinates; empty when unset
func (a *app) region() (image.Rectangle, error) {
	if a.settings.Region == "" {
		return image.Rectangle{}, nil
	}
	r, err := raster.ParseRect(a.settings.Region)
	if err != nil {
		return image.Rectangle{}, err
	}
	return raster.ScaleRect(r, a.settings.Scale), nil
}

// searchOptions assembles a session for path; a region is required
func (a *app) searchOptions(path string) (session.Options, error) {
	r, err := a.region()
	if err != nil {
		return session.Options{}, err
	}
	if r.Empty() {
		return session.Options{}, errors.Wrap(raster.ErrRect, "--region is required")
	}

	img, err := a.loadImage(path)
	if err != nil {
		return session.Options{}, err
	}

	s := a.settings
	return session.Options{
		Image:        img,
		Name:         path,
		Region:       r,
		Mode:         s.Mode(),
		Scale:        s.Scale,
		Population:   s.Population,
		Crossover:    s.Crossover,
		Mutation:     s.Mutation,
		Seed:         s.SeedValue(),
		HistoryLimit: parameter.ReportHistoryLimit,
	}, nil
}
