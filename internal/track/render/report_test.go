package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/linetrack/internal/track"
)

// TestWriteTrackReport writes a report and checks the HTML carries the
// per-track and unassigned series.
func TestWriteTrackReport(t *testing.T) {
	t.Parallel()

	items := []track.Item{
		{Index: 0, X: 0.10, Y: 0.50, Tick: 1},
		{Index: 1, X: 0.20, Y: 0.50, Tick: 2},
		{Index: 2, X: 0.30, Y: 0.50, Tick: 3},
		{Index: 3, X: 0.90, Y: 0.90, Tick: 3},
	}
	res := &track.Result{
		Tracks: [][]int{{0, 1, 2}},
		Summaries: []track.TrackSummary{
			{ID: 0, State: track.TrackConfirmed, FirstTick: 1, LastTick: 3, ItemCount: 3},
		},
		Unassigned: []int{3},
	}

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteTrackReport(path, res, items))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Object tracks")
	assert.Contains(t, html, "track 0 (confirmed)")
	assert.Contains(t, html, "unassigned")
}

// TestWriteTrackReportEmptyRun writes a report for a run with no
// tracks.
func TestWriteTrackReportEmptyRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.html")
	require.NoError(t, WriteTrackReport(path, &track.Result{}, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// TestWriteTrackReportBadPath surfaces file creation failures.
func TestWriteTrackReportBadPath(t *testing.T) {
	t.Parallel()

	err := WriteTrackReport(filepath.Join(t.TempDir(), "missing-dir", "report.html"), &track.Result{}, nil)
	assert.Error(t, err)
}
