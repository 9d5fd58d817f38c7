package trackdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/linetrack/internal/track"
)

// Run is a persisted tracking run.
type Run struct {
	RunID           string
	CreatedAt       time.Time
	ParamsJSON      string
	ItemCount       int
	TrackCount      int
	UnassignedCount int
}

// RunTrack is one track of a persisted run.
type RunTrack struct {
	RunID     string
	TrackID   int
	State     string
	FirstTick int64
	LastTick  int64
	ItemCount int
}

// RunItem is one input item of a persisted run with its assignment.
// TrackID and Position are nil for items that never joined a track.
type RunItem struct {
	RunID     string
	ItemIndex int
	TrackID   *int
	Position  *int
	X         float64
	Y         float64
	Tick      int64
}

// runParamsExport is the JSON-serialisable form of track.Params stored
// with each run so it can be replayed with identical settings.
type runParamsExport struct {
	WindowSize           int     `json:"window_size"`
	BoundTight           float64 `json:"bound_tight"`
	TimeLimit            int64   `json:"time_limit"`
	BirthLookaheadFrames int     `json:"birth_lookahead_frames"`
	BirthMinTightHits    int     `json:"birth_min_tight_hits"`
	HitsToConfirm        int     `json:"hits_to_confirm"`
}

// RunStore manages persistence for tracking runs.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// SaveRun persists a finished run atomically and returns its run ID.
// Run IDs are UUIDs so they stay unique across databases and merges.
func (s *RunStore) SaveRun(res *track.Result, items []track.Item, params track.Params) (string, error) {
	paramsJSON, err := json.Marshal(runParamsExport{
		WindowSize:           params.WindowSize,
		BoundTight:           params.BoundTight,
		TimeLimit:            params.TimeLimit,
		BirthLookaheadFrames: params.BirthLookaheadFrames,
		BirthMinTightHits:    params.BirthMinTightHits,
		HitsToConfirm:        params.HitsToConfirm,
	})
	if err != nil {
		return "", fmt.Errorf("marshal run params: %w", err)
	}

	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin save run tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, created_unix_nanos, params_json, item_count, track_count, unassigned_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, time.Now().UnixNano(), string(paramsJSON), len(items), len(res.Tracks), len(res.Unassigned))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	insertTrack, err := tx.Prepare(`
		INSERT INTO run_tracks (run_id, track_id, track_state, first_tick, last_tick, item_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare insert track: %w", err)
	}
	defer insertTrack.Close()

	for _, sum := range res.Summaries {
		if _, err := insertTrack.Exec(runID, sum.ID, string(sum.State), sum.FirstTick, sum.LastTick, sum.ItemCount); err != nil {
			return "", fmt.Errorf("insert track %d: %w", sum.ID, err)
		}
	}

	// Map every item to its track and position within the track.
	type assignment struct{ trackID, position int }
	assigned := make(map[int]assignment, len(items))
	for trackID, indices := range res.Tracks {
		for pos, idx := range indices {
			assigned[idx] = assignment{trackID: trackID, position: pos}
		}
	}

	insertItem, err := tx.Prepare(`
		INSERT INTO run_items (run_id, item_index, track_id, position, x, y, tick)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare insert item: %w", err)
	}
	defer insertItem.Close()

	for _, it := range items {
		var trackID, position interface{}
		if a, ok := assigned[it.Index]; ok {
			trackID, position = a.trackID, a.position
		}
		if _, err := insertItem.Exec(runID, it.Index, trackID, position, it.X, it.Y, it.Tick); err != nil {
			return "", fmt.Errorf("insert item %d: %w", it.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save run tx: %w", err)
	}
	return runID, nil
}

// GetRun retrieves one run by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, created_unix_nanos, params_json, item_count, track_count, unassigned_count
		FROM runs WHERE run_id = ?
	`, runID)

	var r Run
	var createdNanos int64
	if err := row.Scan(&r.RunID, &createdNanos, &r.ParamsJSON, &r.ItemCount, &r.TrackCount, &r.UnassignedCount); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.CreatedAt = time.Unix(0, createdNanos)
	return &r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT run_id, created_unix_nanos, params_json, item_count, track_count, unassigned_count
		FROM runs ORDER BY created_unix_nanos DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var createdNanos int64
		if err := rows.Scan(&r.RunID, &createdNanos, &r.ParamsJSON, &r.ItemCount, &r.TrackCount, &r.UnassignedCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, createdNanos)
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRunTracks returns a run's tracks in birth (track ID) order.
func (s *RunStore) GetRunTracks(runID string) ([]*RunTrack, error) {
	rows, err := s.db.Query(`
		SELECT run_id, track_id, track_state, first_tick, last_tick, item_count
		FROM run_tracks WHERE run_id = ? ORDER BY track_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*RunTrack
	for rows.Next() {
		var t RunTrack
		if err := rows.Scan(&t.RunID, &t.TrackID, &t.State, &t.FirstTick, &t.LastTick, &t.ItemCount); err != nil {
			return nil, fmt.Errorf("scan run track: %w", err)
		}
		tracks = append(tracks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run tracks: %w", err)
	}
	return tracks, nil
}

// GetTrackItems returns the items of one track in assignment order.
func (s *RunStore) GetTrackItems(runID string, trackID int) ([]*RunItem, error) {
	rows, err := s.db.Query(`
		SELECT run_id, item_index, track_id, position, x, y, tick
		FROM run_items WHERE run_id = ? AND track_id = ? ORDER BY position ASC
	`, runID, trackID)
	if err != nil {
		return nil, fmt.Errorf("query track items: %w", err)
	}
	defer rows.Close()
	return scanRunItems(rows)
}

// GetUnassignedItems returns the run's items that never joined a track,
// in input-index order.
func (s *RunStore) GetUnassignedItems(runID string) ([]*RunItem, error) {
	rows, err := s.db.Query(`
		SELECT run_id, item_index, track_id, position, x, y, tick
		FROM run_items WHERE run_id = ? AND track_id IS NULL ORDER BY item_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query unassigned items: %w", err)
	}
	defer rows.Close()
	return scanRunItems(rows)
}

// DeleteRun removes a run and, via cascade, its tracks and items.
func (s *RunStore) DeleteRun(runID string) error {
	if _, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

func scanRunItems(rows *sql.Rows) ([]*RunItem, error) {
	var items []*RunItem
	for rows.Next() {
		var it RunItem
		var trackID, position sql.NullInt64
		if err := rows.Scan(&it.RunID, &it.ItemIndex, &trackID, &position, &it.X, &it.Y, &it.Tick); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		if trackID.Valid {
			v := int(trackID.Int64)
			it.TrackID = &v
		}
		if position.Valid {
			v := int(position.Int64)
			it.Position = &v
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run items: %w", err)
	}
	return items, nil
}
