package perms

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"go.minekube.com/perms/pkg/configs"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Output default configuration file",
		Description: `Output the default configuration file to stdout or a file.
You can redirect to a file or use the --write flag:

	perms config > perms.yml
	perms config --write              # Writes to perms.yml
	perms config --type world --write # Writes to worlds/world.yml

Available config types:
  - perms (default): Process configuration with all options
  - world: Example world permission file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Config type: perms or world",
				Value:   "perms",
			},
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write config to its default location instead of stdout",
			},
		},
		Action: func(c *cli.Context) error {
			configType := c.String("type")
			var (
				configBytes []byte
				outputFile  string
			)

			switch configType {
			case "perms":
				configBytes, outputFile = configs.DefaultConfigBytes, "perms.yml"
			case "world":
				configBytes, outputFile = configs.WorldConfigBytes, "worlds/world.yml"
			default:
				return cli.Exit(fmt.Sprintf("unknown config type: %s (valid types: perms, world)", configType), 1)
			}

			if c.Bool("write") {
				if configType == "world" {
					if err := os.MkdirAll("worlds", 0755); err != nil {
						return cli.Exit(fmt.Errorf("error creating world directory: %w", err), 1)
					}
				}
				err := os.WriteFile(outputFile, configBytes, 0644)
				if err != nil {
					return cli.Exit(fmt.Errorf("error writing config to %q: %w", outputFile, err), 1)
				}
				_, _ = fmt.Fprintf(c.App.Writer, "Configuration written to %s\n", outputFile)
				return nil
			}

			_, err := c.App.Writer.Write(configBytes)
			if err != nil {
				return cli.Exit(fmt.Errorf("error writing config: %w", err), 1)
			}

			return nil
		},
	}
}
