// Package perms is the perms command line application.
package perms

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/robinbraemer/event"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.minekube.com/perms/pkg/perms"
	"go.minekube.com/perms/pkg/perms/config"
	"go.minekube.com/perms/pkg/version"
)

// Main runs the application and exits on error.
func Main() {
	if err := App().Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const configKey = "config"

// App returns the perms application.
func App() *cli.App {
	app := cli.NewApp()
	app.Name = "perms"
	app.Usage = "Inspect and serve per-world permission trees."
	app.Description = `Permissions are read from one file per world inside the world directory.
Every world defines groups with inheritable permissions and users with
their own permission overrides.

Get an example world file:

	perms config --type world > worlds/world.yml`
	app.Version = version.String()
	app.EnableBashCompletion = true
	app.Metadata = map[string]any{}

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	var (
		debug      bool
		configFile string
		verbosity  int
	)
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       `config file (default: ./perms.yml)`,
			EnvVars:     []string{"PERMS_CONFIG"},
			Destination: &configFile,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Aliases:     []string{"d"},
			Usage:       "Enable debug mode and highest log verbosity",
			Destination: &debug,
			EnvVars:     []string{"PERMS_DEBUG"},
		},
		&cli.IntFlag{
			Name:        "verbosity",
			Aliases:     []string{"v"},
			Usage:       "The higher the verbosity the more logs are shown",
			EnvVars:     []string{"PERMS_VERBOSITY"},
			Destination: &verbosity,
		},
		&cli.StringFlag{
			Name:    "directory",
			Aliases: []string{"dir"},
			Usage:   "world directory, overrides the config file",
		},
		&cli.StringFlag{
			Name:    "default-world",
			Aliases: []string{"w"},
			Usage:   "default world, overrides the config file",
		},
	}

	app.Before = func(c *cli.Context) error {
		if c.Args().First() == "config" {
			// Printing the default config must work without one.
			return nil
		}
		v := viper.New()
		if c.IsSet("directory") {
			v.Set("directory", c.String("directory"))
		}
		if c.IsSet("default-world") {
			v.Set("defaultWorld", c.String("default-world"))
		}
		file := configFile
		if file == "" {
			file = "perms.yml"
		}
		cfg, err := config.Load(v, file, configFile == "")
		if err != nil {
			return cli.Exit(err, 1)
		}
		cfg.Debug = cfg.Debug || debug
		if cfg.Debug && verbosity < 1 {
			verbosity = 1
		}

		log, err := newLogger(cfg.Debug, verbosity)
		if err != nil {
			return cli.Exit(fmt.Errorf("error creating zap logger: %w", err), 1)
		}
		c.Context = logr.NewContext(c.Context, log)
		log.V(1).Info("logging verbosity", "verbosity", verbosity)
		log.V(1).Info("using config file", "config", v.ConfigFileUsed())

		warns, err := config.Validated(cfg)
		for _, warn := range warns {
			log.Info("config validation warning", "warn", warn)
		}
		if err != nil {
			return cli.Exit(err, 1)
		}
		c.App.Metadata[configKey] = cfg
		return nil
	}

	app.Commands = []*cli.Command{
		checkCommand(),
		valueCommand(),
		infoCommand(),
		worldsCommand(),
		exportCommand(),
		runCommand(),
		configCommand(),
	}
	return app
}

func newLogger(debug bool, v int) (l logr.Logger, err error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-v))
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	cfg := config.DefaultConfig
	return &cfg
}

// newHandler creates a Handler from the config and loads its worlds.
// Worlds that fail to load are logged and left out.
func newHandler(ctx context.Context, cfg *config.Config, mgr event.Manager) *perms.Handler {
	log := logr.FromContextOrDiscard(ctx)
	h := perms.New(perms.Options{
		Directory:    cfg.Directory,
		DefaultWorld: cfg.DefaultWorld,
		Logger:       log.WithName("perms"),
		Event:        mgr,
	})
	if err := h.Load(); err != nil {
		log.Error(err, "error loading worlds")
	}
	for _, world := range cfg.Worlds {
		h.ForceLoadWorld(world)
	}
	return h
}

func worldFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "world",
		Usage: "world to query (default: the default world)",
	}
}

func world(c *cli.Context) string {
	if w := c.String("world"); w != "" {
		return w
	}
	return configFrom(c).DefaultWorld
}

func usageError(c *cli.Context, format string, args ...any) error {
	return cli.Exit(fmt.Sprintf("%s\nUsage: %s %s %s", fmt.Sprintf(format, args...),
		c.App.Name, c.Command.Name, c.Command.ArgsUsage), 2)
}
