package store

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-faker/faker/v4"
	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"go.minekube.com/perms/pkg/internal/reload"
	"go.minekube.com/perms/pkg/perms/node"
)

const worldYAML = `
groups:
  Default:
    default: true
    info:
      prefix: '&7'
      suffix: ''
      build: false
    inheritance:
    permissions:
      general.help: true
      chat:
        color: red
  Moderator:
    info:
      prefix: '&a[Mod]'
      build: true
    inheritance: [default]
    permissions:
      - kick.*
      - -kick.admin
  Admin:
    info:
      prefix: '&c[Admin]'
      suffix: '&f'
      build: true
    inheritance:
      - moderator
      - ghost
    permissions:
      - '*'
users:
  Alice:
    groups: [admin]
    permissions:
      home.limit: 5
      spawn.cooldown: 2.5
  bob:
    group: default
  carol:
    groups: [nobody]
`

func writeWorld(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := writeWorld(t, dir, "world.yml", worldYAML)

	w, err := ParseFile("world", path)
	require.NoError(t, err)

	require.Len(t, w.Groups, 3)
	assert.Equal(t, []string{"default"}, w.Defaults)

	def := w.Group("default")
	require.NotNil(t, def)
	assert.Equal(t, "&7", def.Prefix)
	assert.False(t, def.Build)
	assert.Empty(t, def.Parents)
	assert.Equal(t, node.BoolValue(true), def.Permissions["general.help"])
	assert.Equal(t, node.StringValue("red"), def.Permissions["chat.color"])

	mod := w.Group("Moderator")
	require.NotNil(t, mod)
	assert.True(t, mod.Build)
	assert.Equal(t, []string{"default"}, mod.Parents)
	assert.Equal(t, node.BoolValue(true), mod.Permissions["kick.*"])
	assert.Equal(t, node.BoolValue(false), mod.Permissions["kick.admin"])

	admin := w.Group("admin")
	require.NotNil(t, admin)
	assert.Equal(t, "&f", admin.Suffix)
	assert.Equal(t, []string{"moderator", "ghost"}, admin.Parents)

	alice := w.User("alice")
	require.NotNil(t, alice)
	assert.Equal(t, []string{"admin"}, alice.Groups)
	assert.Equal(t, node.IntValue(5), alice.Permissions["home.limit"])
	assert.Equal(t, node.DoubleValue(2.5), alice.Permissions["spawn.cooldown"])

	assert.Equal(t, []string{"default"}, w.User("bob").Groups)
	assert.Equal(t, []string{"default"}, w.GroupsOf("carol"), "undefined groups fall back to defaults")
	assert.Equal(t, []string{"default"}, w.GroupsOf("stranger"))

	assert.ElementsMatch(t, []string{
		`group "admin" inherits undefined group "ghost"`,
		`user "carol" is a member of undefined group "nobody"`,
	}, w.Warnings)
}

func TestWorld_Walk(t *testing.T) {
	w, err := Parse("world", MapSource{
		"groups": map[string]any{
			"a": map[string]any{"inheritance": []any{"b", "c"}},
			"b": map[string]any{"inheritance": []any{"d"}},
			"c": map[string]any{"inheritance": []any{"d"}},
			"d": map[string]any{},
		},
	})
	require.NoError(t, err)

	var order []string
	w.Walk([]string{"a"}, func(g *Group) bool {
		order = append(order, g.Name)
		return true
	})
	assert.Equal(t, []string{"a", "b", "d", "c"}, order)

	order = nil
	w.Walk([]string{"A", "missing"}, func(g *Group) bool {
		order = append(order, g.Name)
		return g.Name != "b"
	})
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  MapSource
		path string
	}{
		{"groups not a map", MapSource{"groups": []any{"a"}}, "groups"},
		{"users not a map", MapSource{"users": "alice"}, "users"},
		{"group not a map", MapSource{"groups": map[string]any{"a": "x"}}, "groups.a"},
		{"info not a map", MapSource{"groups": map[string]any{"a": map[string]any{"info": true}}}, "groups.a.info"},
		{"bad build", MapSource{"groups": map[string]any{"a": map[string]any{
			"info": map[string]any{"build": "maybe"}}}}, "groups.a.info.build"},
		{"bad inheritance", MapSource{"groups": map[string]any{"a": map[string]any{"inheritance": 3}}}, "groups.a.inheritance"},
		{"scalar permissions", MapSource{"groups": map[string]any{"a": map[string]any{"permissions": 3}}}, "groups.a.permissions"},
		{"list value", MapSource{"groups": map[string]any{"a": map[string]any{
			"permissions": map[string]any{"x": []any{1}}}}}, "groups.a.permissions.x"},
		{"empty list node", MapSource{"users": map[string]any{"u": map[string]any{
			"permissions": []any{"-"}}}}, "users.u.permissions[0]"},
		{"bad user groups", MapSource{"users": map[string]any{"u": map[string]any{
			"groups": map[string]any{}}}}, "users.u.groups"},
		{"duplicate node", MapSource{"groups": map[string]any{"a": map[string]any{
			"permissions": map[string]any{"x.y": true, "x": map[string]any{"y": false}}}}}, "groups.a.permissions.x.y"},
		{"duplicate list node", MapSource{"users": map[string]any{"u": map[string]any{
			"permissions": []any{"a.b", "-A.B"}}}}, "users.u.permissions[1]"},
		{"duplicate list and map node", MapSource{"groups": map[string]any{"a": map[string]any{
			"permissions": []any{"x", map[string]any{"x": false}}}}}, "groups.a.permissions.x"},
		{"cycle", MapSource{"groups": map[string]any{
			"a": map[string]any{"inheritance": []any{"b"}},
			"b": map[string]any{"inheritance": "a"},
		}}, "groups.a.inheritance"},
		{"self cycle", MapSource{"groups": map[string]any{
			"a": map[string]any{"inheritance": []any{"a"}},
		}}, "groups.a.inheritance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("world", tt.src)
			require.ErrorIs(t, err, ErrConfig)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "world", ce.World)
			assert.Equal(t, tt.path, ce.Path)
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	w, err := Parse("world", MapSource{
		"groups": map[string]any{"empty": nil},
		"users":  map[string]any{"u": map[string]any{"permissions": ""}},
	})
	require.NoError(t, err)
	g := w.Group("empty")
	require.NotNil(t, g)
	assert.Equal(t, "", g.Prefix)
	assert.Equal(t, "", g.Suffix)
	assert.False(t, g.Build)
	assert.False(t, g.Default)
	assert.Empty(t, g.Permissions)
	assert.Empty(t, w.User("u").Permissions)

	w, err = Parse("world", MapSource{})
	require.NoError(t, err)
	assert.Empty(t, w.Groups)
	assert.Empty(t, w.Users)
}

func TestStore_LoadWorld(t *testing.T) {
	dir := t.TempDir()
	writeWorld(t, dir, "world.yml", worldYAML)
	writeWorld(t, dir, "nether.jsonc", `{
  // commented json is accepted
  "groups": {"default": {"default": true, "permissions": ["nether.enter"]}},
}`)

	var invalidated []string
	s := New(Options{Directory: dir, Invalidate: func(w string) { invalidated = append(invalidated, w) }})

	loaded, err := s.LoadWorld("world")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.True(t, s.CheckWorld("world"))

	loaded, err = s.LoadWorld("world")
	require.NoError(t, err)
	assert.False(t, loaded, "already loaded")

	loaded, err = s.LoadWorld("nether")
	require.NoError(t, err)
	assert.True(t, loaded)
	snap, ok := s.Snapshot("nether")
	require.True(t, ok)
	assert.Equal(t, node.BoolValue(true), snap.World.Group("default").Permissions["nether.enter"])
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, filepath.Join(dir, "nether.jsonc"), snap.File)

	_, err = s.LoadWorld("end")
	require.ErrorIs(t, err, ErrWorldNotFound)
	assert.False(t, s.CheckWorld("end"))

	_, err = s.LoadWorld("../world")
	require.Error(t, err)

	assert.Equal(t, []string{"nether", "world"}, s.Worlds())
	assert.Equal(t, []string{"world", "nether"}, invalidated)
}

func TestStore_ForceLoadWorld(t *testing.T) {
	dir := t.TempDir()
	writeWorld(t, dir, "broken.yml", "groups: [a, b]\n")
	s := New(Options{Directory: dir})

	s.ForceLoadWorld("end")
	snap, ok := s.Snapshot("end")
	require.True(t, ok)
	assert.Empty(t, snap.World.Groups)

	s.ForceLoadWorld("broken")
	snap, ok = s.Snapshot("broken")
	require.True(t, ok, "force load installs an empty tree on parse errors")
	assert.Empty(t, snap.World.Groups)

	// Idempotent.
	s.ForceLoadWorld("end")
	snap, _ = s.Snapshot("end")
	assert.Equal(t, uint64(1), snap.Generation)

	// An empty world without file reloads to an empty world.
	require.NoError(t, s.ReloadWorld("end"))
	snap, _ = s.Snapshot("end")
	assert.Equal(t, uint64(2), snap.Generation)
}

func TestStore_ReloadKeepsPreviousTreeOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeWorld(t, dir, "world.yml", worldYAML)

	mgr := event.New(event.WithLogger(logr.Discard()))
	var (
		mu       sync.Mutex
		failed   []*ReloadFailedEvent
		reloaded []*WorldReloadEvent
	)
	event.Subscribe(mgr, 0, func(e *ReloadFailedEvent) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, e)
	})
	event.Subscribe(mgr, 0, func(e *WorldReloadEvent) {
		mu.Lock()
		defer mu.Unlock()
		reloaded = append(reloaded, e)
	})

	s := New(Options{Directory: dir, Event: mgr})
	_, err := s.LoadWorld("world")
	require.NoError(t, err)
	before, _ := s.Snapshot("world")

	writeWorld(t, dir, "world.yml", "groups:\n  admin:\n    inheritance: {a: b}\n")
	err = s.ReloadWorld("world")
	require.ErrorIs(t, err, ErrConfig)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, path, ce.File)

	after, _ := s.Snapshot("world")
	assert.Same(t, before, after, "failed reload must keep the previous snapshot")

	writeWorld(t, dir, "world.yml", "groups: {a: b\n")
	require.ErrorIs(t, s.ReloadWorld("world"), ErrConfig, "yaml syntax errors are config errors")
	after, _ = s.Snapshot("world")
	assert.Same(t, before, after)

	writeWorld(t, dir, "world.yml", "groups:\n  vip:\n    info: {build: true}\n")
	require.NoError(t, s.ReloadWorld("world"))
	after, _ = s.Snapshot("world")
	assert.Equal(t, uint64(2), after.Generation)
	assert.NotNil(t, after.World.Group("vip"))
	assert.Nil(t, after.World.Group("admin"))

	mgr.Wait()
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failed, 2)
	assert.Equal(t, "world", failed[0].World)
	assert.Equal(t, uint64(1), failed[0].Generation)
	require.Len(t, reloaded, 1)
	assert.Equal(t, uint64(1), reloaded[0].Previous)
	assert.Equal(t, uint64(2), reloaded[0].Generation)

	require.ErrorIs(t, s.ReloadWorld("unknown"), ErrWorldNotLoaded)
}

func TestStore_LoadTree(t *testing.T) {
	s := New(Options{})
	src := MapSource{"groups": map[string]any{"admin": map[string]any{"info": map[string]any{"build": true}}}}
	require.NoError(t, s.LoadTree("world", src))
	snap, ok := s.Snapshot("world")
	require.True(t, ok)
	assert.True(t, snap.World.Group("admin").Build)

	err := s.LoadTree("world", MapSource{"groups": "bad"})
	require.ErrorIs(t, err, ErrConfig)
	after, _ := s.Snapshot("world")
	assert.Same(t, snap, after)

	require.NoError(t, s.ReloadWorld("world"))
	after, _ = s.Snapshot("world")
	assert.Equal(t, uint64(2), after.Generation)
	assert.True(t, after.World.Group("admin").Build)

	require.Error(t, s.LoadTree("", src))
}

func TestStore_Load(t *testing.T) {
	dir := t.TempDir()
	writeWorld(t, dir, "world_nether.yaml", "groups: {default: {default: true}}\n")
	writeWorld(t, dir, "creative.json", `{"users": {"alice": {"groups": ["builder"]}}}`)
	writeWorld(t, dir, "broken.yml", "users: [x]\n")
	writeWorld(t, dir, "notes.txt", "ignored")

	s := New(Options{Directory: dir, DefaultWorld: "world"})
	err := s.Load()
	require.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, []string{"creative", "world", "world_nether"}, s.Worlds())

	// Loading again reloads.
	writeWorld(t, dir, "broken.yml", "users: {x: {}}\n")
	require.NoError(t, s.Load())
	assert.Equal(t, []string{"broken", "creative", "world", "world_nether"}, s.Worlds())
	snap, _ := s.Snapshot("creative")
	assert.Equal(t, uint64(2), snap.Generation)

	require.NoError(t, s.Reload())
	snap, _ = s.Snapshot("creative")
	assert.Equal(t, uint64(3), snap.Generation)

	// Missing directory only creates the default world.
	s = New(Options{Directory: filepath.Join(dir, "missing"), DefaultWorld: "lobby"})
	require.NoError(t, s.Load())
	assert.Equal(t, []string{"lobby"}, s.Worlds())
}

func TestExport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := ParseFile("world", writeWorld(t, dir, "world.yml", worldYAML))
	require.NoError(t, err)

	out, err := yaml.Marshal(Export(w))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, yaml.Unmarshal(out, &m))
	again, err := Parse("world", MapSource(m))
	require.NoError(t, err)

	assert.Equal(t, w.Groups, again.Groups)
	assert.Equal(t, w.Users, again.Users)
	assert.Equal(t, w.Defaults, again.Defaults)
}

// fakeGroup is filled by faker and turned into a world tree.
type fakeGroup struct {
	Prefix  string `faker:"word"`
	Suffix  string `faker:"word"`
	Build   bool
	Default bool
	Limit   int64 `faker:"boundary_start=1, boundary_end=1000"`
	Grant   bool
	Color   string `faker:"word"`
}

// fakeNodes returns n distinct permission nodes made of fake words.
func fakeNodes(n int) []string {
	seen := map[string]bool{}
	for len(seen) < n {
		seen[node.Join(node.Normalize(faker.Word()), node.Normalize(faker.Word()))] = true
	}
	return slices.Collect(maps.Keys(seen))
}

// fakePermissions returns a permission tree using every value kind.
// Doubles are kept non-integral, an integral double is written as an
// integer by the encoders.
func fakePermissions(t *testing.T) map[string]any {
	t.Helper()
	var f fakeGroup
	require.NoError(t, faker.FakeData(&f))
	nodes := fakeNodes(4)
	return map[string]any{
		nodes[0]: f.Grant,
		nodes[1]: f.Limit,
		nodes[2]: float64(f.Limit) + 0.5,
		nodes[3]: "s-" + f.Color,
	}
}

// fakeWorld returns a random world tree. Groups only inherit from groups
// generated before them, so the tree has no cycles.
func fakeWorld(t *testing.T) MapSource {
	t.Helper()
	var groupNames []string
	groups := map[string]any{}
	for len(groups) < 6 {
		name := node.Normalize(faker.Word())
		if _, ok := groups[name]; ok {
			continue
		}
		var f fakeGroup
		require.NoError(t, faker.FakeData(&f))
		g := map[string]any{
			"default": f.Default,
			"info": map[string]any{
				"prefix": "&a" + f.Prefix,
				"suffix": f.Suffix,
				"build":  f.Build,
			},
			"permissions": fakePermissions(t),
		}
		if len(groupNames) != 0 {
			g["inheritance"] = []any{groupNames[len(groupNames)/2]}
		}
		groups[name] = g
		groupNames = append(groupNames, name)
	}
	users := map[string]any{}
	for len(users) < 10 {
		name := node.Normalize(faker.Username())
		if _, ok := users[name]; ok {
			continue
		}
		u := map[string]any{"permissions": fakePermissions(t)}
		if len(users)%3 != 0 {
			u["groups"] = []any{groupNames[len(users)%len(groupNames)]}
		}
		users[name] = u
	}
	return MapSource{"groups": groups, "users": users}
}

func TestExport_RandomRoundTrip(t *testing.T) {
	for i := range 20 {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			w, err := Parse("world", fakeWorld(t))
			require.NoError(t, err)
			require.Len(t, w.Groups, 6)
			require.Len(t, w.Users, 10)

			encodings := map[string]struct {
				marshal   func(any) ([]byte, error)
				unmarshal func([]byte, any) error
			}{
				"yaml": {yaml.Marshal, yaml.Unmarshal},
				"cbor": {cbor.Marshal, cbor.Unmarshal},
			}
			for name, enc := range encodings {
				out, err := enc.marshal(Export(w))
				require.NoError(t, err, name)
				var m map[string]any
				require.NoError(t, enc.unmarshal(out, &m), name)
				again, err := Parse("world", MapSource(m))
				require.NoError(t, err, name)

				assert.Equal(t, w.Groups, again.Groups, name)
				assert.Equal(t, w.Users, again.Users, name)
				assert.Equal(t, w.Defaults, again.Defaults, name)
			}
		})
	}
}

func TestStore_Watch(t *testing.T) {
	reload.DebounceDuration = 10 * time.Millisecond
	dir := t.TempDir()
	writeWorld(t, dir, "world.yml", "groups: {a: {}}\n")

	s := New(Options{Directory: dir})
	_, err := s.LoadWorld("world")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	writeWorld(t, dir, "world.yml", "groups: {b: {}}\n")
	require.Eventually(t, func() bool {
		snap, _ := s.Snapshot("world")
		return snap.World.Group("b") != nil
	}, 5*time.Second, 20*time.Millisecond)
}
