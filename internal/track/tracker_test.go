package track

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureRenderer records every snapshot it receives and optionally
// fails on demand.
type captureRenderer struct {
	snaps []*Snapshot
	fail  bool
}

func (r *captureRenderer) RenderFrame(snap *Snapshot) error {
	r.snaps = append(r.snaps, snap)
	if r.fail {
		return fmt.Errorf("render backend unavailable")
	}
	return nil
}

// TestTrackObjectsSingleTrack follows one item moving on a straight
// line: all indices end up in a single track in input order.
func TestTrackObjectsSingleTrack(t *testing.T) {
	t.Parallel()

	x := []float64{0.1, 0.2, 0.3, 0.4}
	y := []float64{0.2, 0.2, 0.2, 0.2}
	ticks := []int64{0, 1, 2, 3}

	params := DefaultParams()
	params.WindowSize = 2

	tracks, err := TrackObjects(x, y, ticks, params)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, tracks[0])
}

// TestTrackObjectsDivergingTracks follows two items that start at the
// same point and separate: they must form two tracks, not one.
func TestTrackObjectsDivergingTracks(t *testing.T) {
	t.Parallel()

	// Even indices move along y=0.30; odd indices drift upward by 0.04
	// per tick, so the streams are more than bound_tight apart from
	// tick 2 on.
	var x, y []float64
	var ticks []int64
	for tick := int64(0); tick <= 4; tick++ {
		ft := float64(tick)
		x = append(x, 0.1+0.1*ft, 0.1+0.1*ft)
		y = append(y, 0.30, 0.30+0.04*ft)
		ticks = append(ticks, tick, tick)
	}

	params := DefaultParams()
	params.WindowSize = 2

	tracks, err := TrackObjects(x, y, ticks, params)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, []int{0, 2, 4, 6, 8}, tracks[0])
	assert.Equal(t, []int{1, 3, 5, 7, 9}, tracks[1])
}

// TestTrackExpiry verifies that a stale track expires and cannot claim
// a later item at its old location.
func TestTrackExpiry(t *testing.T) {
	t.Parallel()

	x := []float64{0.1, 0.2, 0.3, 0.3}
	y := []float64{0.5, 0.5, 0.5, 0.5}
	ticks := []int64{3, 4, 5, 8}

	params := DefaultParams()
	params.WindowSize = 2
	params.TimeLimit = 2
	params.BirthMinTightHits = 1
	params.HitsToConfirm = 1

	res, err := Run(x, y, ticks, Options{Params: params})
	require.NoError(t, err)

	require.Len(t, res.Tracks, 1)
	assert.Equal(t, []int{0, 1, 2}, res.Tracks[0])
	// Gap of 3 ticks exceeds the limit of 2: the track is expired by
	// tick 8 and the item there stays unassigned even though it sits on
	// the track's last position.
	assert.Equal(t, TrackExpired, res.Summaries[0].State)
	assert.Equal(t, []int{3}, res.Unassigned)
}

// TestTrackBirthAndConfirmation verifies that a coherent run of
// unmatched items becomes a confirmed track spanning all of them.
func TestTrackBirthAndConfirmation(t *testing.T) {
	t.Parallel()

	x := []float64{0.1, 0.2, 0.3, 0.4}
	y := []float64{0.6, 0.6, 0.6, 0.6}
	ticks := []int64{10, 11, 12, 13}

	params := DefaultParams()
	params.WindowSize = 2

	res, err := Run(x, y, ticks, Options{Params: params})
	require.NoError(t, err)

	require.Len(t, res.Summaries, 1)
	sum := res.Summaries[0]
	assert.Equal(t, TrackConfirmed, sum.State)
	assert.Equal(t, int64(10), sum.FirstTick)
	assert.Equal(t, int64(13), sum.LastTick)
	assert.Equal(t, []int{0, 1, 2, 3}, res.Tracks[0])
	assert.Empty(t, res.Unassigned)
}

// TestRunPartitionsInput checks the output invariant on a noisy scene:
// every input index lands in exactly one track or in Unassigned.
func TestRunPartitionsInput(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	var x, y []float64
	var ticks []int64
	for tick := int64(0); tick < 30; tick++ {
		ft := float64(tick)
		// Two crossing movers plus clutter.
		x = append(x, 0.02*ft, 0.9-0.02*ft, rng.Float64())
		y = append(y, 0.3, 0.7, rng.Float64())
		ticks = append(ticks, tick, tick, tick)
	}

	res, err := Run(x, y, ticks, Options{Params: DefaultParams()})
	require.NoError(t, err)

	seen := make(map[int]int)
	for _, tr := range res.Tracks {
		for _, idx := range tr {
			seen[idx]++
		}
	}
	for _, idx := range res.Unassigned {
		seen[idx]++
	}

	require.Len(t, seen, len(x))
	for idx, n := range seen {
		assert.Equalf(t, 1, n, "index %d assigned %d times", idx, n)
	}
}

// TestRunIsDeterministic runs the same input twice and demands
// identical output.
func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	var x, y []float64
	var ticks []int64
	for tick := int64(0); tick < 20; tick++ {
		for i := 0; i < 4; i++ {
			x = append(x, rng.Float64())
			y = append(y, rng.Float64())
			ticks = append(ticks, tick)
		}
	}

	first, err := Run(x, y, ticks, Options{Params: DefaultParams()})
	require.NoError(t, err)
	second, err := Run(x, y, ticks, Options{Params: DefaultParams()})
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

// TestRunInputValidation tests the error paths before frame
// processing.
func TestRunInputValidation(t *testing.T) {
	t.Parallel()

	t.Run("mismatched array lengths", func(t *testing.T) {
		t.Parallel()
		_, err := TrackObjects([]float64{0.1, 0.2}, []float64{0.1}, []int64{1, 2}, DefaultParams())
		assert.ErrorIs(t, err, ErrInputShape)
	})

	t.Run("window size below two", func(t *testing.T) {
		t.Parallel()
		params := DefaultParams()
		params.WindowSize = 1
		_, err := TrackObjects(nil, nil, nil, params)
		assert.ErrorIs(t, err, ErrParameter)
	})

	t.Run("non-positive bound", func(t *testing.T) {
		t.Parallel()
		params := DefaultParams()
		params.BoundTight = 0
		_, err := TrackObjects(nil, nil, nil, params)
		assert.ErrorIs(t, err, ErrParameter)
	})

	t.Run("non-positive time limit", func(t *testing.T) {
		t.Parallel()
		params := DefaultParams()
		params.TimeLimit = 0
		_, err := TrackObjects(nil, nil, nil, params)
		assert.ErrorIs(t, err, ErrParameter)
	})

	t.Run("empty input yields empty result", func(t *testing.T) {
		t.Parallel()
		res, err := Run(nil, nil, nil, Options{Params: DefaultParams()})
		require.NoError(t, err)
		assert.Empty(t, res.Tracks)
		assert.Empty(t, res.Unassigned)
	})
}

// TestRunRendering tests snapshot delivery and render failure
// isolation.
func TestRunRendering(t *testing.T) {
	t.Parallel()

	x := []float64{0.1, 0.2, 0.3, 0.4}
	y := []float64{0.2, 0.2, 0.2, 0.2}
	ticks := []int64{0, 1, 2, 3}

	params := DefaultParams()
	params.WindowSize = 2

	t.Run("renderer receives snapshots at requested ticks", func(t *testing.T) {
		t.Parallel()
		rend := &captureRenderer{}
		res, err := Run(x, y, ticks, Options{
			Params:      params,
			Renderer:    rend,
			RenderTicks: []int64{2, 3},
		})
		require.NoError(t, err)
		assert.Empty(t, res.RenderWarnings)

		require.Len(t, rend.snaps, 2)
		snap := rend.snaps[0]
		assert.Equal(t, int64(2), snap.Tick)
		assert.Equal(t, params.BoundTight, snap.BoundTight)
		// Snapshots precede association: the tick's item is still in
		// Items, and the track history holds only earlier items.
		require.Len(t, snap.Items, 1)
		assert.Equal(t, 2, snap.Items[0].Index)
		require.Len(t, snap.Tracks, 1)
		assert.Equal(t, []Item{
			{Index: 0, X: 0.1, Y: 0.2, Tick: 0},
			{Index: 1, X: 0.2, Y: 0.2, Tick: 1},
		}, snap.Tracks[0].History)
		assert.InDelta(t, 0.3, snap.Tracks[0].Predicted.X, 1e-9)
	})

	t.Run("render failure surfaces as warning only", func(t *testing.T) {
		t.Parallel()
		rend := &captureRenderer{fail: true}
		res, err := Run(x, y, ticks, Options{
			Params:      params,
			Renderer:    rend,
			RenderTicks: []int64{2},
		})
		require.NoError(t, err)
		require.Len(t, res.RenderWarnings, 1)
		assert.Contains(t, res.RenderWarnings[0], "tick 2")

		require.Len(t, res.Tracks, 1)
		assert.Equal(t, []int{0, 1, 2, 3}, res.Tracks[0])
	})

	t.Run("no renderer means no snapshots and no warnings", func(t *testing.T) {
		t.Parallel()
		res, err := Run(x, y, ticks, Options{Params: params, RenderTicks: []int64{2}})
		require.NoError(t, err)
		assert.Empty(t, res.RenderWarnings)
	})
}

// TestRunGapTolerance checks that a track survives a gap within the
// time limit and reclaims the stream afterwards.
func TestRunGapTolerance(t *testing.T) {
	t.Parallel()

	// A straight mover with no detection at tick 3; the gap equals the
	// time limit so the track stays active and picks the stream back up.
	x := []float64{0.1, 0.2, 0.3, 0.5, 0.6}
	y := []float64{0.4, 0.4, 0.4, 0.4, 0.4}
	ticks := []int64{0, 1, 2, 4, 5}

	params := DefaultParams()
	params.WindowSize = 2
	params.TimeLimit = 2

	res, err := Run(x, y, ticks, Options{Params: params})
	require.NoError(t, err)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.Tracks[0])
	assert.Empty(t, res.Unassigned)
}

// TestRunValidationErrorMessage checks parameter errors carry context.
func TestRunValidationErrorMessage(t *testing.T) {
	t.Parallel()

	params := DefaultParams()
	params.BoundTight = -0.5
	_, err := Run(nil, nil, nil, Options{Params: params})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParameter))
	assert.Contains(t, err.Error(), "bound_tight")
}
