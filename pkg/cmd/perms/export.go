package perms

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/robinbraemer/event"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"go.minekube.com/perms/pkg/perms/store"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the loaded tree of a world",
		Description: `Export the permission tree of a world as it is loaded.
The yaml output can be used as a world file again.

	perms export --world nether > nether.yml
	perms export --format cbor --output world.cbor`,
		Flags: []cli.Flag{
			worldFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: yaml or cbor",
				Value:   "yaml",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: func(c *cli.Context) error {
			h := newHandler(c.Context, configFrom(c), event.Nop)
			defer h.Close()
			w := world(c)
			h.ForceLoadWorld(w)
			snap, ok := h.Store().Snapshot(w)
			if !ok {
				return cli.Exit(fmt.Sprintf("world %q is not loaded", w), 1)
			}
			b, err := encode(store.Export(snap.World), c.String("format"))
			if err != nil {
				return cli.Exit(err, 2)
			}

			if out := c.String("output"); out != "" {
				if err = os.WriteFile(out, b, 0644); err != nil {
					return cli.Exit(fmt.Errorf("error writing export to %q: %w", out, err), 1)
				}
				return nil
			}
			return write(c.App.Writer, b)
		},
	}
}

func encode(doc store.Document, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(doc)
	case "cbor":
		em, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			return nil, err
		}
		return em.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown export format %q (valid formats: yaml, cbor)", format)
	}
}

func write(w io.Writer, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return cli.Exit(fmt.Errorf("error writing export: %w", err), 1)
	}
	return nil
}
