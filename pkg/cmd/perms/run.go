package perms

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"github.com/urfave/cli/v2"

	"go.minekube.com/perms/pkg/internal/otelutil"
	"go.minekube.com/perms/pkg/perms/store"
	"go.minekube.com/perms/pkg/util/interrupt"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Load all worlds and keep them up to date until interrupted",
		Description: `Load every world and log world lifecycle events. With watch enabled
in the config (or --watch) world files are reloaded on change; a file
that fails to parse keeps the previously loaded tree.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload world files when they change",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := interrupt.TerminationContext(c.Context)
			defer stop()
			log := logr.FromContextOrDiscard(ctx)
			cfg := configFrom(c)

			if cfg.Telemetry {
				clean, err := otelutil.Init(ctx)
				if err != nil {
					return cli.Exit(fmt.Errorf("error initializing OpenTelemetry: %w", err), 1)
				}
				defer clean()
			}

			mgr := event.New(event.WithLogger(log.WithName("event")))
			subscribeLogger(mgr, log)

			h := newHandler(ctx, cfg, mgr)
			defer h.Close()
			log.Info("loaded worlds", "worlds", h.Worlds(), "defaultWorld", h.DefaultWorld())

			if cfg.Watch || c.Bool("watch") {
				if err := h.Watch(ctx); err != nil {
					return cli.Exit(fmt.Errorf("error watching world files: %w", err), 1)
				}
				log.Info("watching world files for changes", "directory", h.Directory())
			}

			<-ctx.Done()
			log.Info("shutting down")
			mgr.Wait()
			return nil
		},
	}
}

func subscribeLogger(mgr event.Manager, log logr.Logger) {
	event.Subscribe(mgr, 0, func(e *store.WorldLoadEvent) {
		log.V(1).Info("world loaded", "world", e.World, "generation", e.Generation)
	})
	event.Subscribe(mgr, 0, func(e *store.WorldReloadEvent) {
		log.Info("world reloaded", "world", e.World, "generation", e.Generation, "previous", e.Previous)
	})
	event.Subscribe(mgr, 0, func(e *store.ReloadFailedEvent) {
		log.Error(e.Err, "world reload failed, keeping previous tree",
			"world", e.World, "generation", e.Generation)
	})
}
