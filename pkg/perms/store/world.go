package store

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"go.minekube.com/perms/pkg/perms/node"
	"go.minekube.com/perms/pkg/util/sets"
)

// World is the immutable permission tree of one world.
// It must not be modified once installed in a Store.
type World struct {
	Name   string
	Groups map[string]*Group
	Users  map[string]*User
	// Defaults are the groups marked as default, sorted by name.
	// Users without any group are treated as members of them.
	Defaults []string
	// Warnings are non-fatal findings such as references to undefined groups.
	Warnings []string
}

// Group is a named role with inheritable permissions.
type Group struct {
	Name        string
	Prefix      string
	Suffix      string
	Build       bool
	Default     bool
	Parents     []string // In declared order.
	Permissions map[string]node.Value
}

// User holds a player's group memberships and permission overrides.
type User struct {
	Name        string
	Groups      []string // In declared order.
	Permissions map[string]node.Value
}

// EmptyWorld returns a world without groups and users.
func EmptyWorld(name string) *World {
	return &World{
		Name:   name,
		Groups: map[string]*Group{},
		Users:  map[string]*User{},
	}
}

// Group returns the named group or nil.
func (w *World) Group(name string) *Group { return w.Groups[node.Normalize(name)] }

// User returns the named user or nil.
func (w *World) User(name string) *User { return w.Users[node.Normalize(name)] }

// GroupsOf returns the groups a user is a member of: the user's declared
// groups, or the world's default groups if the user declares none.
// Undefined groups are skipped.
func (w *World) GroupsOf(user string) []string {
	var declared []string
	if u := w.User(user); u != nil {
		declared = u.Groups
	}
	var out []string
	for _, g := range declared {
		if _, ok := w.Groups[g]; ok {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return w.Defaults
	}
	return out
}

// Walk visits the given groups in order, each followed depth-first by its
// parents. Every group is visited at most once and undefined groups are skipped.
// Walk stops when fn returns false.
func (w *World) Walk(groups []string, fn func(g *Group) bool) {
	visited := sets.NewString()
	var visit func(name string) bool
	visit = func(name string) bool {
		g, ok := w.Groups[name]
		if !ok || !visited.Add(name) {
			return true
		}
		if !fn(g) {
			return false
		}
		for _, p := range g.Parents {
			if !visit(p) {
				return false
			}
		}
		return true
	}
	for _, name := range groups {
		if !visit(node.Normalize(name)) {
			return
		}
	}
}

// Parse reads a permission tree from src.
// Missing optional fields fall back to their defaults, malformed structure
// is reported as *ConfigError.
func Parse(world string, src Source) (*World, error) {
	p := &parser{w: EmptyWorld(world)}
	if err := p.groups(src.Get("groups")); err != nil {
		return nil, err
	}
	if err := p.users(src.Get("users")); err != nil {
		return nil, err
	}
	if err := p.link(); err != nil {
		return nil, err
	}
	return p.w, nil
}

type parser struct {
	w *World
}

func (p *parser) errorf(path string, format string, args ...any) error {
	return &ConfigError{World: p.w.Name, Path: path, Err: fmt.Errorf(format, args...)}
}

func (p *parser) warnf(format string, args ...any) {
	p.w.Warnings = append(p.w.Warnings, fmt.Sprintf(format, args...))
}

func (p *parser) groups(raw any) error {
	groups, err := toMap(raw)
	if err != nil {
		return p.errorf("groups", "%w", err)
	}
	for _, key := range slices.Sorted(maps.Keys(groups)) {
		name := node.Normalize(key)
		path := "groups." + name
		if name == "" {
			return p.errorf(path, "group name must not be empty")
		}
		if _, dup := p.w.Groups[name]; dup {
			return p.errorf(path, "group defined more than once")
		}
		entry, err := toMap(groups[key])
		if err != nil {
			return p.errorf(path, "%w", err)
		}
		g := &Group{Name: name}
		if g.Default, err = toBool(entry["default"]); err != nil {
			return p.errorf(path+".default", "%w", err)
		}
		info, err := toMap(entry["info"])
		if err != nil {
			return p.errorf(path+".info", "%w", err)
		}
		if g.Prefix, err = toString(info["prefix"]); err != nil {
			return p.errorf(path+".info.prefix", "%w", err)
		}
		if g.Suffix, err = toString(info["suffix"]); err != nil {
			return p.errorf(path+".info.suffix", "%w", err)
		}
		if g.Build, err = toBool(info["build"]); err != nil {
			return p.errorf(path+".info.build", "%w", err)
		}
		if g.Parents, err = toNames(entry["inheritance"]); err != nil {
			return p.errorf(path+".inheritance", "%w", err)
		}
		if g.Permissions, err = p.permissions(path+".permissions", entry["permissions"]); err != nil {
			return err
		}
		p.w.Groups[name] = g
		if g.Default {
			p.w.Defaults = append(p.w.Defaults, name)
		}
	}
	return nil
}

func (p *parser) users(raw any) error {
	users, err := toMap(raw)
	if err != nil {
		return p.errorf("users", "%w", err)
	}
	for _, key := range slices.Sorted(maps.Keys(users)) {
		name := node.Normalize(key)
		path := "users." + name
		if name == "" {
			return p.errorf(path, "user name must not be empty")
		}
		if _, dup := p.w.Users[name]; dup {
			return p.errorf(path, "user defined more than once")
		}
		entry, err := toMap(users[key])
		if err != nil {
			return p.errorf(path, "%w", err)
		}
		u := &User{Name: name}
		groups, err := toNames(entry["groups"])
		if err != nil {
			return p.errorf(path+".groups", "%w", err)
		}
		legacy, err := toNames(entry["group"])
		if err != nil {
			return p.errorf(path+".group", "%w", err)
		}
		u.Groups = sets.NewString(groups...).Insert(legacy...).List()
		if u.Permissions, err = p.permissions(path+".permissions", entry["permissions"]); err != nil {
			return err
		}
		p.w.Users[name] = u
	}
	return nil
}

// permissions accepts a mapping of node to value, where nested mappings
// extend the node, or a list of nodes where "-node" denies the node.
func (p *parser) permissions(path string, raw any) (map[string]node.Value, error) {
	out := map[string]node.Value{}
	var add func(prefix string, m map[string]any) error
	add = func(prefix string, m map[string]any) error {
		for _, key := range slices.Sorted(maps.Keys(m)) {
			v := m[key]
			n := node.Join(prefix, node.Normalize(key))
			if node.Normalize(key) == "" {
				return p.errorf(path, "empty permission node below %q", prefix)
			}
			if isMap(v) {
				sub, err := toMap(v)
				if err != nil {
					return p.errorf(path+"."+n, "%w", err)
				}
				if err = add(n, sub); err != nil {
					return err
				}
				continue
			}
			val, err := node.FromAny(v)
			if err != nil {
				return p.errorf(path+"."+n, "%w", err)
			}
			if _, dup := out[n]; dup {
				return p.errorf(path+"."+n, "permission node defined more than once")
			}
			out[n] = val
		}
		return nil
	}

	switch t := raw.(type) {
	case nil:
		return out, nil
	case string:
		// An empty string is how older configs spell "no permissions".
		if strings.TrimSpace(t) == "" {
			return out, nil
		}
		return nil, p.errorf(path, "expected a mapping or list, got string %q", t)
	case []any, []string:
		for i, elem := range toSlice(t) {
			if isMap(elem) {
				m, err := toMap(elem)
				if err != nil {
					return nil, p.errorf(fmt.Sprintf("%s[%d]", path, i), "%w", err)
				}
				if err = add("", m); err != nil {
					return nil, err
				}
				continue
			}
			s, err := cast.ToStringE(elem)
			if err != nil {
				return nil, p.errorf(fmt.Sprintf("%s[%d]", path, i), "%w", err)
			}
			n, granted := node.Normalize(s), true
			if strings.HasPrefix(n, node.Negation) {
				n, granted = node.Normalize(strings.TrimPrefix(n, node.Negation)), false
			}
			if n == "" {
				return nil, p.errorf(fmt.Sprintf("%s[%d]", path, i), "empty permission node")
			}
			if _, dup := out[n]; dup {
				return nil, p.errorf(fmt.Sprintf("%s[%d]", path, i), "permission node %q defined more than once", n)
			}
			out[n] = node.BoolValue(granted)
		}
		return out, nil
	}
	if !isMap(raw) {
		return nil, p.errorf(path, "expected a mapping or list, got %T", raw)
	}
	m, err := toMap(raw)
	if err != nil {
		return nil, p.errorf(path, "%w", err)
	}
	if err = add("", m); err != nil {
		return nil, err
	}
	return out, nil
}

// link checks group references and rejects inheritance cycles.
func (p *parser) link() error {
	names := slices.Sorted(maps.Keys(p.w.Groups))
	for _, name := range names {
		for _, parent := range p.w.Groups[name].Parents {
			if _, ok := p.w.Groups[parent]; !ok {
				p.warnf("group %q inherits undefined group %q", name, parent)
			}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(p.w.Users)) {
		for _, g := range p.w.Users[name].Groups {
			if _, ok := p.w.Groups[g]; !ok {
				p.warnf("user %q is a member of undefined group %q", name, g)
			}
		}
	}

	const (
		visiting = iota + 1
		done
	)
	state := make(map[string]int, len(names))
	var visit func(name string, chain []string) error
	visit = func(name string, chain []string) error {
		g, ok := p.w.Groups[name]
		if !ok {
			return nil
		}
		switch state[name] {
		case visiting:
			cycle := append(slices.Clone(chain), name)
			return p.errorf("groups."+chain[0]+".inheritance", "inheritance cycle %s",
				strings.Join(cycle, " -> "))
		case done:
			return nil
		}
		state[name] = visiting
		for _, parent := range g.Parents {
			if err := visit(parent, append(slices.Clone(chain), name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}
	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

var errNotMap = errors.New("expected a mapping")

func isMap(v any) bool {
	switch v.(type) {
	case map[string]any, map[any]any:
		return true
	}
	return false
}

func toMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	if !isMap(v) {
		return nil, fmt.Errorf("%w, got %T", errNotMap, v)
	}
	return cast.ToStringMapE(v)
}

func toSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}

func toBool(v any) (bool, error) {
	if v == nil {
		return false, nil
	}
	return cast.ToBoolE(v)
}

func toString(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	return cast.ToStringE(v)
}

// toNames reads a list of names or a single name.
func toNames(v any) ([]string, error) {
	var raw []any
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if n := node.Normalize(t); n != "" {
			return []string{n}, nil
		}
		return nil, nil
	case []any, []string:
		raw = toSlice(t)
	default:
		return nil, fmt.Errorf("expected a list of names, got %T", v)
	}
	names := sets.NewString()
	for _, elem := range raw {
		s, err := cast.ToStringE(elem)
		if err != nil {
			return nil, err
		}
		if n := node.Normalize(s); n != "" {
			names.Insert(n)
		}
	}
	return names.List(), nil
}
