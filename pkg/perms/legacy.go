package perms

import "go.minekube.com/perms/pkg/perms/cache"

// Legacy exposes the world-less query forms. Every method forwards to the
// Handler method of the same name using the default world at call time.
type Legacy struct{ h *Handler }

// Legacy returns the default-world adapter of h.
func (h *Handler) Legacy() *Legacy { return &Legacy{h: h} }

func (l *Legacy) world() string { return l.h.DefaultWorld() }

// Deprecated: Use Handler.Has.
func (l *Legacy) Has(player, permission string) bool {
	return l.h.Has(l.world(), player, permission)
}

// Deprecated: Use Handler.Permission.
func (l *Legacy) Permission(player, permission string) bool {
	return l.h.Permission(l.world(), player, permission)
}

// Deprecated: Use Handler.Group.
func (l *Legacy) Group(user string) string { return l.h.Group(l.world(), user) }

// Deprecated: Use Handler.InGroup.
func (l *Legacy) InGroup(user, group string) bool { return l.h.InGroup(l.world(), user, group) }

// Deprecated: Use Handler.GroupPrefix.
func (l *Legacy) GroupPrefix(group string) string { return l.h.GroupPrefix(l.world(), group) }

// Deprecated: Use Handler.GroupSuffix.
func (l *Legacy) GroupSuffix(group string) string { return l.h.GroupSuffix(l.world(), group) }

// Deprecated: Use Handler.CanGroupBuild.
func (l *Legacy) CanGroupBuild(group string) bool { return l.h.CanGroupBuild(l.world(), group) }

// Deprecated: Use Handler.GroupPermissionString.
func (l *Legacy) GroupPermissionString(group, permission string) string {
	return l.h.GroupPermissionString(l.world(), group, permission)
}

// Deprecated: Use Handler.GroupPermissionInt.
func (l *Legacy) GroupPermissionInt(group, permission string) int {
	return l.h.GroupPermissionInt(l.world(), group, permission)
}

// Deprecated: Use Handler.GroupPermissionBool.
func (l *Legacy) GroupPermissionBool(group, permission string) bool {
	return l.h.GroupPermissionBool(l.world(), group, permission)
}

// Deprecated: Use Handler.GroupPermissionDouble.
func (l *Legacy) GroupPermissionDouble(group, permission string) float64 {
	return l.h.GroupPermissionDouble(l.world(), group, permission)
}

// Deprecated: Use Handler.UserPermissionString.
func (l *Legacy) UserPermissionString(user, permission string) string {
	return l.h.UserPermissionString(l.world(), user, permission)
}

// Deprecated: Use Handler.UserPermissionInt.
func (l *Legacy) UserPermissionInt(user, permission string) int {
	return l.h.UserPermissionInt(l.world(), user, permission)
}

// Deprecated: Use Handler.UserPermissionBool.
func (l *Legacy) UserPermissionBool(user, permission string) bool {
	return l.h.UserPermissionBool(l.world(), user, permission)
}

// Deprecated: Use Handler.UserPermissionDouble.
func (l *Legacy) UserPermissionDouble(user, permission string) float64 {
	return l.h.UserPermissionDouble(l.world(), user, permission)
}

// Deprecated: Use Handler.PermissionString.
func (l *Legacy) PermissionString(user, permission string) string {
	return l.h.PermissionString(l.world(), user, permission)
}

// Deprecated: Use Handler.PermissionInt.
func (l *Legacy) PermissionInt(user, permission string) int {
	return l.h.PermissionInt(l.world(), user, permission)
}

// Deprecated: Use Handler.PermissionBool.
func (l *Legacy) PermissionBool(user, permission string) bool {
	return l.h.PermissionBool(l.world(), user, permission)
}

// Deprecated: Use Handler.PermissionDouble.
func (l *Legacy) PermissionDouble(user, permission string) float64 {
	return l.h.PermissionDouble(l.world(), user, permission)
}

// Deprecated: Use Handler.CacheItem.
func (l *Legacy) CacheItem(player, permission string) bool {
	return l.h.CacheItem(l.world(), player, permission)
}

// Deprecated: Use Handler.SetCacheItem.
func (l *Legacy) SetCacheItem(player, permission string, value bool) {
	l.h.SetCacheItem(l.world(), player, permission, value)
}

// Deprecated: Use Handler.RemoveCachedItem.
func (l *Legacy) RemoveCachedItem(player, permission string) {
	l.h.RemoveCachedItem(l.world(), player, permission)
}

// Deprecated: Use Handler.ClearPlayerCache.
func (l *Legacy) ClearPlayerCache(player string) { l.h.ClearPlayerCache(l.world(), player) }

// Deprecated: Use Handler.Cache.
func (l *Legacy) Cache() map[cache.Key]bool { return l.h.Cache(l.world()) }

// Deprecated: Use Handler.SetCache.
func (l *Legacy) SetCache(entries map[cache.Key]bool) { l.h.SetCache(l.world(), entries) }

// Deprecated: Use Handler.ClearCache.
func (l *Legacy) ClearCache() { l.h.ClearCache(l.world()) }
