package track

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/linetrack/internal/monitoring"
)

// Errors surfaced before any frame processing begins. Both abort the
// run entirely; no partial results are returned.
var (
	// ErrInputShape reports mismatched coordinate/time array lengths.
	ErrInputShape = errors.New("input arrays must have equal length")
	// ErrParameter reports an out-of-range tracking parameter.
	ErrParameter = errors.New("invalid tracking parameter")
)

// Params holds the tuning parameters for a tracking run.
type Params struct {
	// WindowSize is the number of most recent items used to fit a
	// track's trajectory (m). Minimum 2.
	WindowSize int
	// BoundTight is the gating radius: the maximum distance between a
	// track's prediction and an item for the item to be considered a
	// member (inclusive). Trades over- vs under-segmentation.
	BoundTight float64
	// TimeLimit is the number of ticks a track may go unmatched before
	// it expires. A gap equal to TimeLimit keeps the track active.
	TimeLimit int64
	// BirthLookaheadFrames is how many future frames are scored when
	// judging whether an unmatched pair is a plausible new trajectory.
	BirthLookaheadFrames int
	// BirthMinTightHits is the minimum number of lookahead items that
	// must fall within BoundTight of a candidate pair's line for any
	// birth to happen in a frame.
	BirthMinTightHits int
	// HitsToConfirm is the number of matched frames beyond the seed
	// pair required to promote a provisional track to confirmed.
	HitsToConfirm int
}

// DefaultParams returns the canonical defaults, matching
// config/tuning.defaults.json.
func DefaultParams() Params {
	return Params{
		WindowSize:           5,
		BoundTight:           0.05,
		TimeLimit:            5,
		BirthLookaheadFrames: 5,
		BirthMinTightHits:    2,
		HitsToConfirm:        2,
	}
}

func (p Params) validate() error {
	if p.WindowSize < 2 {
		return fmt.Errorf("%w: window size must be at least 2, got %d", ErrParameter, p.WindowSize)
	}
	if p.BoundTight <= 0 {
		return fmt.Errorf("%w: bound_tight must be positive, got %g", ErrParameter, p.BoundTight)
	}
	if p.TimeLimit <= 0 {
		return fmt.Errorf("%w: time_limit must be positive, got %d", ErrParameter, p.TimeLimit)
	}
	if p.BirthLookaheadFrames < 1 {
		return fmt.Errorf("%w: birth lookahead must be at least 1 frame, got %d", ErrParameter, p.BirthLookaheadFrames)
	}
	if p.BirthMinTightHits < 1 {
		return fmt.Errorf("%w: birth min tight hits must be at least 1, got %d", ErrParameter, p.BirthMinTightHits)
	}
	if p.HitsToConfirm < 1 {
		return fmt.Errorf("%w: hits to confirm must be at least 1, got %d", ErrParameter, p.HitsToConfirm)
	}
	return nil
}

// Options configures a tracking run beyond the core parameters.
type Options struct {
	Params Params
	// Renderer, when non-nil, receives a read-only snapshot at every
	// tick listed in RenderTicks. Renderer failures are collected as
	// warnings on the Result and never affect the partition.
	Renderer    Renderer
	RenderTicks []int64
}

// TrackObjects associates the detections (x[i], y[i]) at ticks t[i]
// into object tracks and returns, per track, the ordered input indices
// assigned to it. Coordinates must be caller-normalised to [0, 1];
// values outside that range are a precondition violation and are not
// checked. Expired tracks and provisional seeds that never confirmed
// are included.
func TrackObjects(x, y []float64, t []int64, params Params) ([][]int, error) {
	res, err := Run(x, y, t, Options{Params: params})
	if err != nil {
		return nil, err
	}
	return res.Tracks, nil
}

// Run executes a full tracking run and returns the complete Result,
// including track summaries, unassigned item indices and any render
// warnings.
//
// Frames are visited strictly in increasing tick order. Per frame the
// sequence is: expire stale tracks, snapshot for the renderer if
// requested, associate the frame's items against active tracks, cull
// tracks predicted off stage, then seed new tracks from unmatched
// pairs. Unmatched items from one frame are birth candidates in the
// next.
func Run(x, y []float64, t []int64, opts Options) (*Result, error) {
	if len(x) != len(y) || len(x) != len(t) {
		return nil, fmt.Errorf("%w: got x=%d y=%d t=%d", ErrInputShape, len(x), len(y), len(t))
	}
	params := opts.Params
	if err := params.validate(); err != nil {
		return nil, err
	}

	items := make([]Item, len(x))
	byTick := make(map[int64][]Item)
	for i := range x {
		it := Item{Index: i, X: x[i], Y: y[i], Tick: t[i]}
		items[i] = it
		byTick[it.Tick] = append(byTick[it.Tick], it)
	}

	reg := NewRegistry()
	var warnings []string

	if len(items) > 0 {
		minTick, maxTick := items[0].Tick, items[0].Tick
		for _, it := range items {
			if it.Tick < minTick {
				minTick = it.Tick
			}
			if it.Tick > maxTick {
				maxTick = it.Tick
			}
		}

		renderAt := make(map[int64]bool, len(opts.RenderTicks))
		for _, tick := range opts.RenderTicks {
			renderAt[tick] = true
		}

		cur := byTick[minTick]
		for tick := minTick + 1; tick <= maxTick; tick++ {
			expireStale(reg, tick, params.TimeLimit)

			past := cur
			cur = byTick[tick]

			if renderAt[tick] && opts.Renderer != nil {
				snap := buildSnapshot(reg, items, tick, cur, past, params)
				if err := opts.Renderer.RenderFrame(snap); err != nil {
					monitoring.Logf("linetrack: render at tick %d failed: %v", tick, err)
					warnings = append(warnings, fmt.Sprintf("render at tick %d: %v", tick, err))
				}
			}

			activeIDs := append([]int(nil), reg.ActiveIDs()...)
			if len(activeIDs) > 0 && len(cur) > 0 {
				preds := predictAll(reg, items, activeIDs, tick)
				var matches []frameMatch
				matches, cur = associateFrame(reg, items, activeIDs, preds, cur, params.BoundTight, params.WindowSize)
				promoteMatched(reg, matches, params.HitsToConfirm)
				cullOffStage(reg, activeIDs, preds, params.BoundTight)
			}

			if len(past) > 0 && len(cur) > 0 {
				lookahead := lookaheadItems(byTick, tick, params.BirthLookaheadFrames)
				_, cur = seedTracks(reg, past, cur, lookahead, params.BoundTight, params.BirthMinTightHits)
			}
		}
	}

	return assembleResult(reg, len(items), warnings), nil
}

// predictAll computes each active track's prediction at the given tick.
func predictAll(reg *Registry, items []Item, activeIDs []int, tick int64) []Prediction {
	preds := make([]Prediction, len(activeIDs))
	for i, id := range activeIDs {
		preds[i] = reg.Get(id).predictAt(items, tick)
	}
	return preds
}

// lookaheadItems collects the items of the next n frames after tick, in
// tick then input order.
func lookaheadItems(byTick map[int64][]Item, tick int64, n int) []Item {
	var out []Item
	for step := int64(1); step <= int64(n); step++ {
		out = append(out, byTick[tick+step]...)
	}
	return out
}

// buildSnapshot deep-copies the tracking state visible to the renderer.
func buildSnapshot(reg *Registry, items []Item, tick int64, cur, past []Item, params Params) *Snapshot {
	snap := &Snapshot{
		Tick:       tick,
		BoundTight: params.BoundTight,
		Items:      append([]Item(nil), cur...),
		Leftover:   append([]Item(nil), past...),
	}
	for _, id := range reg.ActiveIDs() {
		tr := reg.Get(id)
		view := TrackView{
			ID:        tr.ID,
			State:     tr.State,
			History:   make([]Item, len(tr.Items)),
			Predicted: tr.predictAt(items, tick),
			FitX:      tr.FitX,
			FitY:      tr.FitY,
		}
		for i, idx := range tr.Items {
			view.History[i] = items[idx]
		}
		windowStart := 0
		if len(tr.Items) > params.WindowSize {
			windowStart = len(tr.Items) - params.WindowSize
		}
		view.FitStartTick = items[tr.Items[windowStart]].Tick
		snap.Tracks = append(snap.Tracks, view)
	}
	return snap
}

// assembleResult serialises the registry into the output partition.
func assembleResult(reg *Registry, itemCount int, warnings []string) *Result {
	res := &Result{RenderWarnings: warnings}

	assigned := make([]bool, itemCount)
	for _, tr := range reg.All() {
		res.Tracks = append(res.Tracks, append([]int(nil), tr.Items...))
		res.Summaries = append(res.Summaries, TrackSummary{
			ID:        tr.ID,
			State:     tr.State,
			FirstTick: tr.FirstTick,
			LastTick:  tr.LastTick,
			ItemCount: len(tr.Items),
		})
		for _, idx := range tr.Items {
			assigned[idx] = true
		}
	}

	for i, ok := range assigned {
		if !ok {
			res.Unassigned = append(res.Unassigned, i)
		}
	}
	sort.Ints(res.Unassigned)
	return res
}
