package track

// TrackState represents the lifecycle state of a track.
type TrackState string

const (
	TrackProvisional TrackState = "provisional" // Seeded from a pair, needs confirmation
	TrackConfirmed   TrackState = "confirmed"   // Stable track with sufficient matched history
	TrackExpired     TrackState = "expired"     // Stale or off-stage, frozen and excluded from matching
)

// Item is a single timestamped 2D detection. Index is the item's
// position in the caller's input arrays and identifies it for the whole
// run. Coordinates are caller-normalised to [0, 1]. Items are immutable
// once ingested.
type Item struct {
	Index int
	X     float64
	Y     float64
	Tick  int64
}

// LineFit holds the intercept and slope of a degree-1 least-squares fit
// of one coordinate axis against time.
type LineFit struct {
	Intercept float64
	Slope     float64
}

// At evaluates the fitted line at the given tick.
func (f LineFit) At(tick int64) float64 {
	return f.Intercept + f.Slope*float64(tick)
}

// Prediction is a track's extrapolated position at a query tick.
type Prediction struct {
	X float64
	Y float64
}

// Track is a persistent identity accumulating the items believed to
// belong to one moving object.
type Track struct {
	// ID is the track's position in the registry arena. IDs increase
	// monotonically in birth order.
	ID    int
	State TrackState

	// Items holds the input indices assigned to this track, in
	// chronological (append) order. Each frame contributes at most one
	// item, so item ticks are strictly increasing.
	Items []int

	// Hits counts matched frames since the track was seeded. Used for
	// provisional → confirmed promotion.
	Hits int

	// FirstTick and LastTick are the ticks of the first and most
	// recently appended items.
	FirstTick int64
	LastTick  int64

	// Current trajectory fit over the most recent window items.
	FitX  LineFit
	FitY  LineFit
	FitOK bool
}

// TrackView is a read-only copy of a track's state handed to the
// Renderer. History carries copies of the track's item records so the
// renderer never aliases live tracker state.
type TrackView struct {
	ID        int
	State     TrackState
	History   []Item
	Predicted Prediction
	FitX      LineFit
	FitY      LineFit
	// FitStartTick is the tick of the oldest item inside the current
	// regression window, marking where the fitted segment begins.
	FitStartTick int64
}

// Snapshot is the read-only per-tick scene handed to the Renderer:
// the current frame's items, the unmatched leftovers from the previous
// frame, and every active track with its prediction at the snapshot
// tick. Snapshots are taken before association runs for the tick, so
// Items and Leftover are always unassigned; items already assigned to
// tracks appear in the TrackView histories.
type Snapshot struct {
	Tick       int64
	BoundTight float64
	Items      []Item
	Leftover   []Item
	Tracks     []TrackView
}

// Renderer consumes snapshots of tracking state. Implementations must
// not retain the snapshot past the call. Render failures never abort
// tracking; they surface as warnings on the Result.
type Renderer interface {
	RenderFrame(snap *Snapshot) error
}

// TrackSummary describes one finished track in a Result.
type TrackSummary struct {
	ID        int
	State     TrackState
	FirstTick int64
	LastTick  int64
	ItemCount int
}

// Result is the full output of a tracking run. Tracks[i] is the ordered
// list of input indices assigned to track i, in birth order, including
// expired tracks and provisional seeds that never confirmed. Unassigned
// lists the input indices that never joined any track, ascending.
// Together they partition the input: every index appears in exactly one
// track list or in Unassigned.
type Result struct {
	Tracks         [][]int
	Summaries      []TrackSummary
	Unassigned     []int
	RenderWarnings []string
}
