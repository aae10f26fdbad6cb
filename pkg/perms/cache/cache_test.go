package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSet(t *testing.T) {
	c := New()
	_, ok := c.Get("world", "alice", "build")
	assert.False(t, ok)

	c.Set("world", "Alice", "Build", true, c.Epoch("world"))
	v, ok := c.Get("world", "alice", "build")
	require.True(t, ok)
	assert.True(t, v)

	_, ok = c.Get("nether", "alice", "build")
	assert.False(t, ok, "worlds are partitioned")
}

func TestCache_StaleEpochIgnored(t *testing.T) {
	c := New()
	epoch := c.Epoch("world")
	c.Set("world", "alice", "build", true, epoch)

	c.ClearWorld("world")
	_, ok := c.Get("world", "alice", "build")
	assert.False(t, ok)

	// A resolution that started before the clear finishes afterwards.
	c.Set("world", "alice", "build", true, epoch)
	_, ok = c.Get("world", "alice", "build")
	assert.False(t, ok, "stale write must not be served")
	assert.Empty(t, c.Entries("world"))

	c.Set("world", "alice", "build", false, c.Epoch("world"))
	v, ok := c.Get("world", "alice", "build")
	require.True(t, ok)
	assert.False(t, v)
}

func TestCache_Clearing(t *testing.T) {
	c := New()
	c.Put("world", "alice", "a", true)
	c.Put("world", "alice", "b", true)
	c.Put("world", "bob", "a", false)
	c.Put("nether", "alice", "a", true)

	c.Remove("world", "alice", "b")
	assert.Equal(t, map[Key]bool{
		{Player: "alice", Node: "a"}: true,
		{Player: "bob", Node: "a"}:   false,
	}, c.Entries("world"))

	c.ClearPlayer("world", "ALICE")
	assert.Equal(t, map[Key]bool{{Player: "bob", Node: "a"}: false}, c.Entries("world"))

	c.ClearWorld("world")
	assert.Empty(t, c.Entries("world"))
	assert.Len(t, c.Entries("nether"), 1)

	c.ClearAll()
	assert.Empty(t, c.Entries("nether"))
	assert.Equal(t, 0, c.Len("nether"))

	// Clearing unknown worlds is a no-op.
	c.ClearPlayer("end", "alice")
	c.Remove("end", "alice", "a")
}

func TestCache_Replace(t *testing.T) {
	c := New()
	c.Put("world", "old", "x", true)
	c.Replace("world", map[Key]bool{
		{Player: "Alice", Node: "A.B"}: true,
	})
	assert.Equal(t, map[Key]bool{{Player: "alice", Node: "a.b"}: true}, c.Entries("world"))
	v, ok := c.Get("world", "alice", "a.b")
	require.True(t, ok)
	assert.True(t, v)
}

func TestCache_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Set("world", "alice", "a", true, c.Epoch("world"))
				c.Get("world", "alice", "a")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.ClearWorld("world")
				c.Entries("world")
			}
		}()
	}
	wg.Wait()

	c.ClearWorld("world")
	_, ok := c.Get("world", "alice", "a")
	assert.False(t, ok)
}
