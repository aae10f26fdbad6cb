package perms

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/robinbraemer/event"
	"github.com/urfave/cli/v2"

	"go.minekube.com/perms/internal/util/console"
	"go.minekube.com/perms/pkg/internal/suggest"
	"go.minekube.com/perms/pkg/perms"
	"go.minekube.com/perms/pkg/perms/node"
	"go.minekube.com/perms/pkg/perms/store"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check permissions of a player",
		ArgsUsage: "<player> <node>...",
		Description: `Check whether a player has permission nodes in a world.

	perms check Notch general.help kick.admin

Exits with status 1 if any node is not granted.`,
		Flags: []cli.Flag{worldFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return usageError(c, "expected a player and at least one node")
			}
			h := newHandler(c.Context, configFrom(c), event.Nop)
			defer h.Close()
			w, player := world(c), c.Args().First()
			denied := 0
			for _, n := range c.Args().Slice()[1:] {
				granted := h.Has(w, player, n)
				if !granted {
					denied++
				}
				_, _ = fmt.Fprintf(c.App.Writer, "%s\t%t\n", n, granted)
			}
			if denied != 0 {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func valueCommand() *cli.Command {
	return &cli.Command{
		Name:      "value",
		Usage:     "Print the value of a permission node",
		ArgsUsage: "<user|group> <node>",
		Description: `Print a typed permission value of a user or group.

	perms value --type int Notch home.limit
	perms value --group --type string default chat.color

Missing nodes and values not convertible to the type print the
type's default: "", -1, false or -1.`,
		Flags: []cli.Flag{
			worldFlag(),
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Value type: string, int, bool or double",
				Value:   "string",
			},
			&cli.BoolFlag{
				Name:  "group",
				Usage: "Read the node of a group and its parents",
			},
			&cli.BoolFlag{
				Name:  "user-only",
				Usage: "Read only the user's own node, ignoring groups",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return usageError(c, "expected a name and a node")
			}
			if c.Bool("group") && c.Bool("user-only") {
				return usageError(c, "--group and --user-only are mutually exclusive")
			}
			h := newHandler(c.Context, configFrom(c), event.Nop)
			defer h.Close()
			get, err := getter(h, c.String("type"), scope(c))
			if err != nil {
				return cli.Exit(err, 2)
			}
			_, _ = fmt.Fprintln(c.App.Writer, get(world(c), c.Args().Get(0), c.Args().Get(1)))
			return nil
		},
	}
}

type valueScope int

const (
	scopeEffective valueScope = iota
	scopeUser
	scopeGroup
)

func scope(c *cli.Context) valueScope {
	switch {
	case c.Bool("group"):
		return scopeGroup
	case c.Bool("user-only"):
		return scopeUser
	default:
		return scopeEffective
	}
}

// getter returns the typed getter of h for a value type and scope.
func getter(h *perms.Handler, typ string, s valueScope) (func(world, name, node string) any, error) {
	type getters struct {
		effective, user, group func(world, name, node string) any
	}
	var g getters
	switch strings.ToLower(typ) {
	case "string", "str":
		g = getters{
			func(w, n, p string) any { return h.PermissionString(w, n, p) },
			func(w, n, p string) any { return h.UserPermissionString(w, n, p) },
			func(w, n, p string) any { return h.GroupPermissionString(w, n, p) },
		}
	case "int", "integer":
		g = getters{
			func(w, n, p string) any { return h.PermissionInt(w, n, p) },
			func(w, n, p string) any { return h.UserPermissionInt(w, n, p) },
			func(w, n, p string) any { return h.GroupPermissionInt(w, n, p) },
		}
	case "bool", "boolean":
		g = getters{
			func(w, n, p string) any { return h.PermissionBool(w, n, p) },
			func(w, n, p string) any { return h.UserPermissionBool(w, n, p) },
			func(w, n, p string) any { return h.GroupPermissionBool(w, n, p) },
		}
	case "double", "float":
		g = getters{
			func(w, n, p string) any { return h.PermissionDouble(w, n, p) },
			func(w, n, p string) any { return h.UserPermissionDouble(w, n, p) },
			func(w, n, p string) any { return h.GroupPermissionDouble(w, n, p) },
		}
	default:
		return nil, fmt.Errorf("unknown value type %q (valid types: string, int, bool, double)", typ)
	}
	switch s {
	case scopeUser:
		return g.user, nil
	case scopeGroup:
		return g.group, nil
	default:
		return g.effective, nil
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Describe a user or group",
		Subcommands: []*cli.Command{
			{
				Name:      "user",
				Usage:     "Describe a user",
				ArgsUsage: "<user>",
				Flags:     []cli.Flag{worldFlag()},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return usageError(c, "expected a user")
					}
					h := newHandler(c.Context, configFrom(c), event.Nop)
					defer h.Close()
					w, name := world(c), c.Args().First()
					h.ForceLoadWorld(w)
					snap, _ := h.Store().Snapshot(w)
					return printUser(c, h, snap, name)
				},
			},
			{
				Name:      "group",
				Usage:     "Describe a group",
				ArgsUsage: "<group>",
				Flags:     []cli.Flag{worldFlag()},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return usageError(c, "expected a group")
					}
					h := newHandler(c.Context, configFrom(c), event.Nop)
					defer h.Close()
					w, name := world(c), c.Args().First()
					h.ForceLoadWorld(w)
					snap, _ := h.Store().Snapshot(w)
					g := snap.World.Group(name)
					if g == nil {
						return cli.Exit(notFound("group", name, w, groupNames(snap.World)), 1)
					}
					return printGroup(c, snap.World, g)
				},
			},
		},
	}
}

func printUser(c *cli.Context, h *perms.Handler, snap *store.Snapshot, name string) error {
	out := c.App.Writer
	w := snap.World
	u := w.User(name)
	if u == nil {
		_, _ = fmt.Fprintf(out, "user %q is not configured in world %q, showing default groups\n", name, w.Name)
	}
	primary := h.Group(w.Name, name)
	var effective []string
	w.Walk(w.GroupsOf(name), func(g *store.Group) bool {
		effective = append(effective, g.Name)
		return true
	})
	_, _ = fmt.Fprintf(out, "world:    %s\n", w.Name)
	_, _ = fmt.Fprintf(out, "display:  %s\n", console.Ansi(h.GroupPrefix(w.Name, primary)+name+h.GroupSuffix(w.Name, primary)))
	_, _ = fmt.Fprintf(out, "primary:  %s\n", primary)
	_, _ = fmt.Fprintf(out, "groups:   %s\n", strings.Join(effective, ", "))
	if u != nil {
		printPermissions(c, u.Permissions)
	}
	return nil
}

func printGroup(c *cli.Context, w *store.World, g *store.Group) error {
	out := c.App.Writer
	_, _ = fmt.Fprintf(out, "world:    %s\n", w.Name)
	_, _ = fmt.Fprintf(out, "group:    %s\n", g.Name)
	_, _ = fmt.Fprintf(out, "default:  %t\n", g.Default)
	_, _ = fmt.Fprintf(out, "prefix:   %q %s\n", g.Prefix, console.Ansi(g.Prefix+g.Name+g.Suffix))
	_, _ = fmt.Fprintf(out, "suffix:   %q\n", g.Suffix)
	_, _ = fmt.Fprintf(out, "build:    %t\n", g.Build)
	_, _ = fmt.Fprintf(out, "parents:  %s\n", strings.Join(g.Parents, ", "))
	printPermissions(c, g.Permissions)
	return nil
}

func printPermissions(c *cli.Context, nodes map[string]node.Value) {
	if len(nodes) == 0 {
		return
	}
	_, _ = fmt.Fprintln(c.App.Writer, "permissions:")
	for _, n := range slices.Sorted(maps.Keys(nodes)) {
		_, _ = fmt.Fprintf(c.App.Writer, "  %s: %v\n", n, nodes[n].Any())
	}
}

func worldsCommand() *cli.Command {
	return &cli.Command{
		Name:  "worlds",
		Usage: "List loaded worlds",
		Action: func(c *cli.Context) error {
			h := newHandler(c.Context, configFrom(c), event.Nop)
			defer h.Close()
			for _, name := range h.Worlds() {
				snap, ok := h.Store().Snapshot(name)
				if !ok {
					continue
				}
				file := snap.File
				if file == "" {
					file = "-"
				}
				_, _ = fmt.Fprintf(c.App.Writer, "%s\tgroups=%d\tusers=%d\tfile=%s\n",
					name, len(snap.World.Groups), len(snap.World.Users), file)
				for _, warn := range snap.World.Warnings {
					_, _ = fmt.Fprintf(c.App.Writer, "  warning: %s\n", warn)
				}
			}
			return nil
		},
	}
}

func groupNames(w *store.World) []string { return slices.Sorted(maps.Keys(w.Groups)) }

func notFound(kind, name, world string, candidates []string) error {
	msg := fmt.Sprintf("%s %q not found in world %q", kind, name, world)
	if similar := suggest.Similar(strings.ToLower(name), candidates); len(similar) != 0 {
		msg += fmt.Sprintf(", did you mean %s?", strings.Join(similar, " or "))
	}
	return fmt.Errorf("%s", msg)
}
