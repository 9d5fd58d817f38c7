package track

// Registry owns every track created during a run: an arena indexed by
// track ID plus the list of currently active (non-expired) IDs. Expired
// tracks stay in the arena for final output but leave the active set.
type Registry struct {
	arena  []*Track
	active []int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create allocates a new provisional track seeded from the given items.
// IDs are assigned monotonically in birth order.
func (r *Registry) Create(first, second Item) *Track {
	tr := &Track{
		ID:        len(r.arena),
		State:     TrackProvisional,
		Items:     []int{first.Index, second.Index},
		FirstTick: first.Tick,
		LastTick:  second.Tick,
	}
	r.arena = append(r.arena, tr)
	r.active = append(r.active, tr.ID)
	return tr
}

// Get returns the track with the given ID. Panics on out-of-range IDs:
// registry IDs are only ever produced by Create.
func (r *Registry) Get(id int) *Track {
	return r.arena[id]
}

// ActiveIDs returns the IDs of all non-expired tracks in ascending
// (birth) order. The returned slice is owned by the registry.
func (r *Registry) ActiveIDs() []int {
	return r.active
}

// Expire transitions a track to Expired and removes it from the active
// set. Expiring an already-expired track is a no-op.
func (r *Registry) Expire(id int) {
	tr := r.arena[id]
	if tr.State == TrackExpired {
		return
	}
	tr.State = TrackExpired
	for i, a := range r.active {
		if a == id {
			r.active = append(r.active[:i], r.active[i+1:]...)
			break
		}
	}
}

// All returns every track ever created, in birth order.
func (r *Registry) All() []*Track {
	return r.arena
}

// Len returns the number of tracks ever created.
func (r *Registry) Len() int {
	return len(r.arena)
}
