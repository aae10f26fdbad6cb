package store

// WorldLoadEvent is fired after a world was loaded for the first time.
type WorldLoadEvent struct {
	World      string
	Generation uint64
}

// WorldReloadEvent is fired after a loaded world's tree was replaced.
type WorldReloadEvent struct {
	World      string
	Generation uint64 // The new generation.
	Previous   uint64 // The replaced generation.
}

// ReloadFailedEvent is fired when a reload failed and the
// previous tree of the world was kept.
type ReloadFailedEvent struct {
	World      string
	Generation uint64 // The generation that stays installed.
	Err        error
}
