package track

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// fitLine performs a closed-form degree-1 least-squares regression of
// vals against ticks. Returns ok=false when fewer than two points are
// available or the fit is degenerate (all ticks equal), in which case
// the caller must fall back to the last known position.
func fitLine(ticks, vals []float64) (LineFit, bool) {
	if len(ticks) < 2 || len(ticks) != len(vals) {
		return LineFit{}, false
	}
	alpha, beta := stat.LinearRegression(ticks, vals, nil, false)
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return LineFit{}, false
	}
	return LineFit{Intercept: alpha, Slope: beta}, true
}

// twoPointFit builds the exact line through two observations of one
// axis. Used at track birth, where the seed pair fully determines the
// initial trajectory.
func twoPointFit(t0, v0, t1, v1 float64) LineFit {
	slope := (v1 - v0) / (t1 - t0)
	return LineFit{Intercept: v0 - t0*slope, Slope: slope}
}

// refit recomputes a track's trajectory over its most recent window
// items. Keeps the previous fit when the regression is degenerate.
func (tr *Track) refit(items []Item, window int) {
	n := len(tr.Items)
	if n > window {
		n = window
	}
	recent := tr.Items[len(tr.Items)-n:]

	ticks := make([]float64, len(recent))
	xs := make([]float64, len(recent))
	ys := make([]float64, len(recent))
	for i, idx := range recent {
		ticks[i] = float64(items[idx].Tick)
		xs[i] = items[idx].X
		ys[i] = items[idx].Y
	}

	fx, okX := fitLine(ticks, xs)
	fy, okY := fitLine(ticks, ys)
	if okX && okY {
		tr.FitX = fx
		tr.FitY = fy
		tr.FitOK = true
	}
}

// predictAt extrapolates the track's fitted trajectory to the query
// tick. A track without a usable fit (fewer than two history points)
// reports its last known position instead.
func (tr *Track) predictAt(items []Item, tick int64) Prediction {
	if !tr.FitOK {
		last := items[tr.Items[len(tr.Items)-1]]
		return Prediction{X: last.X, Y: last.Y}
	}
	return Prediction{X: tr.FitX.At(tick), Y: tr.FitY.At(tick)}
}
