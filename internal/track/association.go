package track

import (
	"math"
	"sort"
)

// frameMatch records one accepted track-to-item association.
type frameMatch struct {
	TrackID int
	ItemIdx int // input index of the matched item
	Dist    float64
}

// candidate is a gated (track, item) pair under consideration for
// greedy matching. FramePos is the item's position within the frame
// slice, used to mark consumption.
type candidate struct {
	TrackPos int // position in activeIDs
	FramePos int
	Dist     float64
}

// associateFrame performs distance-gated greedy one-to-one matching of
// one frame's items against the active tracks.
//
// preds[i] holds the prediction for activeIDs[i] at the frame's tick;
// predictions are computed once before matching, so a match accepted
// mid-frame never shifts another track's prediction within the same
// frame. Candidates farther than bound from a prediction are excluded
// (the bound itself is inclusive). Remaining candidates are taken in
// ascending distance order, ties broken by item input index then track
// ID; each accepted match consumes both its track and its item.
//
// Matched items are appended to their track, which updates LastTick,
// increments the hit count, and refits the trajectory over the window.
// Returns the accepted matches and the frame's unmatched remainder in
// input-index order.
func associateFrame(reg *Registry, items []Item, activeIDs []int, preds []Prediction, frame []Item, bound float64, window int) ([]frameMatch, []Item) {
	if len(activeIDs) == 0 || len(frame) == 0 {
		return nil, frame
	}

	candidates := make([]candidate, 0, len(activeIDs)*len(frame))
	for ti := range activeIDs {
		for fi, it := range frame {
			dx := preds[ti].X - it.X
			dy := preds[ti].Y - it.Y
			dist := math.Hypot(dx, dy)
			if dist <= bound {
				candidates = append(candidates, candidate{TrackPos: ti, FramePos: fi, Dist: dist})
			}
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.Dist != cb.Dist {
			return ca.Dist < cb.Dist
		}
		if frame[ca.FramePos].Index != frame[cb.FramePos].Index {
			return frame[ca.FramePos].Index < frame[cb.FramePos].Index
		}
		return activeIDs[ca.TrackPos] < activeIDs[cb.TrackPos]
	})

	usedTrack := make([]bool, len(activeIDs))
	usedItem := make([]bool, len(frame))
	var matches []frameMatch

	for _, c := range candidates {
		if usedTrack[c.TrackPos] || usedItem[c.FramePos] {
			continue
		}
		usedTrack[c.TrackPos] = true
		usedItem[c.FramePos] = true

		tr := reg.Get(activeIDs[c.TrackPos])
		it := frame[c.FramePos]
		tr.Items = append(tr.Items, it.Index)
		tr.LastTick = it.Tick
		tr.Hits++
		tr.refit(items, window)

		matches = append(matches, frameMatch{TrackID: tr.ID, ItemIdx: it.Index, Dist: c.Dist})
	}

	leftover := make([]Item, 0, len(frame))
	for fi, it := range frame {
		if !usedItem[fi] {
			leftover = append(leftover, it)
		}
	}
	return matches, leftover
}
