// The permission utility package defines primitives that allow to
// check a Subject for a permission.
//
// E.g. a host integration binds a player in a world to a Subject once
// and hands it to code that should not care about worlds.
//
// Note:
// Permission checks only know granted and not granted.
// An explicitly denied node and a node that is not set both check as false.
package permission

// Func is the permission function to check a permission.
type Func func(permission string) bool

// Subject is a permission holder like a player.
type Subject interface {
	HasPermission(permission string) bool
}

// HasPermission implements Subject.
func (f Func) HasPermission(permission string) bool {
	if f == nil {
		return false
	}
	return f(permission)
}

// Checker checks permissions of players in worlds.
type Checker interface {
	Has(world, player, permission string) bool
}

// For returns the Subject of a player in a world.
func For(c Checker, world, player string) Subject {
	return Func(func(permission string) bool {
		return c.Has(world, player, permission)
	})
}
