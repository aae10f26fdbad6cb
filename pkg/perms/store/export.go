package store

import (
	"maps"
	"slices"

	"go.minekube.com/perms/pkg/perms/node"
)

// Document is the plain tree form of a World. It is the same layout
// Parse reads, so an exported Document can be loaded again.
type Document struct {
	Groups map[string]GroupDocument `yaml:"groups,omitempty" json:"groups,omitempty" cbor:"groups,omitempty"`
	Users  map[string]UserDocument  `yaml:"users,omitempty" json:"users,omitempty" cbor:"users,omitempty"`
}

// GroupDocument is the exported form of a Group.
type GroupDocument struct {
	Default     bool           `yaml:"default,omitempty" json:"default,omitempty" cbor:"default,omitempty"`
	Info        InfoDocument   `yaml:"info" json:"info" cbor:"info"`
	Inheritance []string       `yaml:"inheritance,omitempty" json:"inheritance,omitempty" cbor:"inheritance,omitempty"`
	Permissions map[string]any `yaml:"permissions,omitempty" json:"permissions,omitempty" cbor:"permissions,omitempty"`
}

// InfoDocument holds the display settings of a group.
type InfoDocument struct {
	Prefix string `yaml:"prefix" json:"prefix" cbor:"prefix"`
	Suffix string `yaml:"suffix" json:"suffix" cbor:"suffix"`
	Build  bool   `yaml:"build" json:"build" cbor:"build"`
}

// UserDocument is the exported form of a User.
type UserDocument struct {
	Groups      []string       `yaml:"groups,omitempty" json:"groups,omitempty" cbor:"groups,omitempty"`
	Permissions map[string]any `yaml:"permissions,omitempty" json:"permissions,omitempty" cbor:"permissions,omitempty"`
}

// Export converts a World into its Document form.
func Export(w *World) Document {
	doc := Document{
		Groups: make(map[string]GroupDocument, len(w.Groups)),
		Users:  make(map[string]UserDocument, len(w.Users)),
	}
	for name, g := range w.Groups {
		doc.Groups[name] = GroupDocument{
			Default: g.Default,
			Info: InfoDocument{
				Prefix: g.Prefix,
				Suffix: g.Suffix,
				Build:  g.Build,
			},
			Inheritance: slices.Clone(g.Parents),
			Permissions: exportPermissions(g.Permissions),
		}
	}
	for name, u := range w.Users {
		doc.Users[name] = UserDocument{
			Groups:      slices.Clone(u.Groups),
			Permissions: exportPermissions(u.Permissions),
		}
	}
	return doc
}

func exportPermissions(perms map[string]node.Value) map[string]any {
	if len(perms) == 0 {
		return nil
	}
	out := make(map[string]any, len(perms))
	for _, n := range slices.Sorted(maps.Keys(perms)) {
		out[n] = perms[n].Any()
	}
	return out
}
