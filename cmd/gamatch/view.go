package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/gamatch/audio"
	"github.com/lixenwraith/gamatch/config"
	"github.com/lixenwraith/gamatch/parameter"
	"github.com/lixenwraith/gamatch/persistence"
	"github.com/lixenwraith/gamatch/viewer"
)

func newViewCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "view <image>",
		Short:       "Select a template with the mouse and watch the search in the terminal",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{logToFile: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.view(cmd.Context(), args[0])
		},
	}
	addSearchFlags(cmd)
	cmd.Flags().Duration(config.KeyDelay, parameter.ViewerEventLoopDelay, "delay between generations")
	cmd.Flags().Bool(config.KeyAudio, false, "play a tone when the best match improves")
	cmd.Flags().String(config.KeyReports, parameter.ReportPath, "directory for reports saved with 's'")
	return cmd
}

func (a *app) view(ctx context.Context, path string) error {
	img, err := a.loadImage(path)
	if err != nil {
		return err
	}
	region, err := a.region()
	if err != nil {
		return err
	}

	sound := audio.NewSoundManager()
	if a.settings.Audio {
		if err := sound.Initialize(); err != nil {
			// Non-fatal, the viewer runs silently
			a.logger.Warn("audio unavailable", "error", err)
		}
		if sound.Enabled() {
			a.logger.Debug("audio enabled")
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "create screen")
	}
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "init screen")
	}

	// Restore the terminal before reporting a crash
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "\n\x1b[31mGAMATCH CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	s := a.settings
	var seed uint64
	if s.Seed > 0 {
		seed = uint64(s.Seed)
	}

	v := viewer.New(screen, viewer.Options{
		ImagePath:  path,
		Image:      img,
		Mode:       s.Mode(),
		Scale:      s.Scale,
		Population: s.Population,
		Crossover:  s.Crossover,
		Mutation:   s.Mutation,
		Seed:       seed,
		Region:     region,
		Delay:      s.Delay,
		Sound:      sound,
		Reports:    persistence.NewManager(s.Reports),
		Logger:     a.logger,
	})
	defer v.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("viewer started", "image", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return v.Run(ctx)
}
