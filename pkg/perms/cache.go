package perms

import "go.minekube.com/perms/pkg/perms/cache"

// CacheItem returns a cached check result; false if not cached.
func (h *Handler) CacheItem(world, player, permission string) bool {
	v, _ := h.cache.Get(world, player, permission)
	return v
}

// SetCacheItem overrides the cached result of a check until the world's
// cache is next cleared.
func (h *Handler) SetCacheItem(world, player, permission string, value bool) {
	h.cache.Put(world, player, permission, value)
}

// RemoveCachedItem drops a cached check result.
func (h *Handler) RemoveCachedItem(world, player, permission string) {
	h.cache.Remove(world, player, permission)
}

// ClearPlayerCache drops every cached result of a player in a world.
func (h *Handler) ClearPlayerCache(world, player string) {
	h.cache.ClearPlayer(world, player)
}

// Cache returns a copy of the cached results of a world.
func (h *Handler) Cache(world string) map[cache.Key]bool {
	return h.cache.Entries(world)
}

// SetCache replaces the cached results of a world.
func (h *Handler) SetCache(world string, entries map[cache.Key]bool) {
	h.cache.Replace(world, entries)
	h.log.V(1).Info("replaced permission cache", "world", world, "entries", len(entries))
}

// ClearCache drops every cached result of a world. The next check
// resolves against the world's tree again.
func (h *Handler) ClearCache(world string) {
	h.cache.ClearWorld(world)
	h.log.V(1).Info("cleared permission cache", "world", world)
}

// ClearAllCache drops every cached result of every world.
func (h *Handler) ClearAllCache() {
	h.cache.ClearAll()
	h.log.V(1).Info("cleared all permission caches")
}
