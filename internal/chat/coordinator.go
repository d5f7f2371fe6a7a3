package chat

// Coordinator bundles the process-wide chat state. One instance is
// constructed at startup and injected into every connection handler by
// reference; there are no package-level registries.
type Coordinator struct {
	Names *NameRegistry
	Rooms *RoomStore
}

// NewCoordinator creates a coordinator with an empty name registry and room
// store. guestPrefix configures generated guest names; empty means the
// default.
func NewCoordinator(guestPrefix string) *Coordinator {
	return &Coordinator{
		Names: NewNameRegistry(guestPrefix),
		Rooms: NewRoomStore(),
	}
}
