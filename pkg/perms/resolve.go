package perms

import (
	"strconv"

	"go.minekube.com/perms/pkg/perms/node"
	"go.minekube.com/perms/pkg/perms/store"
)

// Has reports whether a player has a permission in a world.
//
// The user's own nodes are checked first, then the user's groups in
// declared order, each followed depth-first by its parents; the first
// scope with a matching boolean node decides. Inside a scope the exact
// node wins over wildcards ("a.b.*", "a.*", "*"). Results are cached
// until the world is reloaded or its cache cleared.
func (h *Handler) Has(world, player, permission string) bool {
	player, permission = node.Normalize(player), node.Normalize(permission)
	if !h.store.CheckWorld(world) {
		h.store.ForceLoadWorld(world)
	}
	// The epoch must be read before the snapshot so that a result computed
	// from a tree replaced meanwhile is stored in an outdated epoch.
	epoch := h.cache.Epoch(world)
	if v, ok := h.cache.Get(world, player, permission); ok {
		recordLookup(true)
		return v
	}
	recordLookup(false)

	key := world + "\x00" + player + "\x00" + permission + "\x00" + strconv.FormatUint(epoch, 10)
	return h.flight.Do(key, func() bool {
		v := resolve(h.world(world), player, permission)
		h.cache.Set(world, player, permission, v, epoch)
		return v
	})
}

// Permission is an alias for Has.
func (h *Handler) Permission(world, player, permission string) bool {
	return h.Has(world, player, permission)
}

func resolve(w *store.World, player, permission string) bool {
	candidates := append([]string{permission}, node.Wildcards(permission)...)
	match := func(perms map[string]node.Value) (granted, ok bool) {
		for _, c := range candidates {
			if v, found := perms[c]; found {
				if b, isBool := v.AsBool(); isBool {
					return b, true
				}
			}
		}
		return false, false
	}

	if u := w.User(player); u != nil {
		if granted, ok := match(u.Permissions); ok {
			return granted
		}
	}
	var granted, found bool
	w.Walk(w.GroupsOf(player), func(g *store.Group) bool {
		granted, found = match(g.Permissions)
		return !found
	})
	return granted
}

// Group returns the primary group of a user: the first declared group,
// or the first default group. Empty if there is none.
func (h *Handler) Group(world, user string) string {
	if groups := h.world(world).GroupsOf(user); len(groups) != 0 {
		return groups[0]
	}
	return ""
}

// InGroup reports whether a user is a member of a group, directly,
// through a default group or through inheritance.
func (h *Handler) InGroup(world, user, group string) bool {
	w := h.world(world)
	group = node.Normalize(group)
	var found bool
	w.Walk(w.GroupsOf(user), func(g *store.Group) bool {
		found = g.Name == group
		return !found
	})
	return found
}

// GroupPrefix returns the prefix of a group.
func (h *Handler) GroupPrefix(world, group string) string {
	if g := h.world(world).Group(group); g != nil {
		return g.Prefix
	}
	return node.NoString
}

// GroupSuffix returns the suffix of a group.
func (h *Handler) GroupSuffix(world, group string) string {
	if g := h.world(world).Group(group); g != nil {
		return g.Suffix
	}
	return node.NoString
}

// CanGroupBuild reports whether a group has the build flag.
func (h *Handler) CanGroupBuild(world, group string) bool {
	if g := h.world(world).Group(group); g != nil {
		return g.Build
	}
	return false
}

// groupValue finds a node on a group or, depth-first, its parents.
func (h *Handler) groupValue(world, group, permission string) node.Value {
	return walkValue(h.world(world), []string{group}, node.Normalize(permission))
}

// userValue finds a node on the user only.
func (h *Handler) userValue(world, user, permission string) node.Value {
	if u := h.world(world).User(user); u != nil {
		return u.Permissions[node.Normalize(permission)]
	}
	return node.Value{}
}

// value finds a node on the user, then on the user's groups like Has.
func (h *Handler) value(world, user, permission string) node.Value {
	w := h.world(world)
	permission = node.Normalize(permission)
	if u := w.User(user); u != nil {
		if v, ok := u.Permissions[permission]; ok {
			return v
		}
	}
	return walkValue(w, w.GroupsOf(user), permission)
}

func walkValue(w *store.World, groups []string, permission string) (v node.Value) {
	w.Walk(groups, func(g *store.Group) bool {
		var ok bool
		v, ok = g.Permissions[permission]
		return !ok
	})
	return v
}

// The typed getters below return the value of the first scope defining
// the node. If that value does not convert to the requested type the
// type's sentinel is returned.

// GroupPermissionString returns a string node of a group or its parents, or "".
func (h *Handler) GroupPermissionString(world, group, permission string) string {
	s, _ := h.groupValue(world, group, permission).AsString()
	return s
}

// GroupPermissionInt returns an integer node of a group or its parents, or -1.
func (h *Handler) GroupPermissionInt(world, group, permission string) int {
	i, _ := h.groupValue(world, group, permission).AsInt()
	return i
}

// GroupPermissionBool returns a boolean node of a group or its parents, or false.
func (h *Handler) GroupPermissionBool(world, group, permission string) bool {
	b, _ := h.groupValue(world, group, permission).AsBool()
	return b
}

// GroupPermissionDouble returns a double node of a group or its parents, or -1.0.
func (h *Handler) GroupPermissionDouble(world, group, permission string) float64 {
	f, _ := h.groupValue(world, group, permission).AsDouble()
	return f
}

// UserPermissionString returns a string node set on the user, or "".
func (h *Handler) UserPermissionString(world, user, permission string) string {
	s, _ := h.userValue(world, user, permission).AsString()
	return s
}

// UserPermissionInt returns an integer node set on the user, or -1.
func (h *Handler) UserPermissionInt(world, user, permission string) int {
	i, _ := h.userValue(world, user, permission).AsInt()
	return i
}

// UserPermissionBool returns a boolean node set on the user, or false.
func (h *Handler) UserPermissionBool(world, user, permission string) bool {
	b, _ := h.userValue(world, user, permission).AsBool()
	return b
}

// UserPermissionDouble returns a double node set on the user, or -1.0.
func (h *Handler) UserPermissionDouble(world, user, permission string) float64 {
	f, _ := h.userValue(world, user, permission).AsDouble()
	return f
}

// PermissionString returns a string node of the user or the user's groups, or "".
func (h *Handler) PermissionString(world, user, permission string) string {
	s, _ := h.value(world, user, permission).AsString()
	return s
}

// PermissionInt returns an integer node of the user or the user's groups, or -1.
func (h *Handler) PermissionInt(world, user, permission string) int {
	i, _ := h.value(world, user, permission).AsInt()
	return i
}

// PermissionBool returns a boolean node of the user or the user's groups, or false.
func (h *Handler) PermissionBool(world, user, permission string) bool {
	b, _ := h.value(world, user, permission).AsBool()
	return b
}

// PermissionDouble returns a double node of the user or the user's groups, or -1.0.
func (h *Handler) PermissionDouble(world, user, permission string) float64 {
	f, _ := h.value(world, user, permission).AsDouble()
	return f
}
