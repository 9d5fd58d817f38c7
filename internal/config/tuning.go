// Package config loads tracker tuning parameters from JSON files.
// Fields are pointers so that partial config files are safe: anything
// omitted falls back to the canonical default via the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Canonical default values. The Get* accessors fall back to these when
// a field is absent from the loaded JSON.
const (
	defaultWindowSize           = 5
	defaultBoundTight           = 0.05
	defaultTimeLimit            = int64(5)
	defaultBirthLookaheadFrames = 5
	defaultBirthMinTightHits    = 2
	defaultHitsToConfirm        = 2
)

// TuningConfig represents the tunable tracking parameters. The schema
// doubles as the params JSON persisted alongside a run, so a stored run
// can be replayed with identical settings.
type TuningConfig struct {
	// WindowSize is the regression window m: how many of a track's most
	// recent items feed the trajectory fit.
	WindowSize *int `json:"window_size,omitempty"`
	// BoundTight is the gating radius in normalised stage units.
	BoundTight *float64 `json:"bound_tight,omitempty"`
	// TimeLimit is the inactivity threshold in ticks before a track expires.
	TimeLimit *int64 `json:"time_limit,omitempty"`
	// BirthLookaheadFrames is the number of future frames scored when
	// evaluating a seed pair.
	BirthLookaheadFrames *int `json:"birth_lookahead_frames,omitempty"`
	// BirthMinTightHits is the minimum lookahead hits within BoundTight
	// required to accept any seed pair in a frame.
	BirthMinTightHits *int `json:"birth_min_tight_hits,omitempty"`
	// HitsToConfirm is the number of matched frames beyond the seed pair
	// before a provisional track is confirmed.
	HitsToConfirm *int `json:"hits_to_confirm,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset, so
// every accessor reports its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that every set field is in range. Unset fields are
// valid by construction.
func (c *TuningConfig) Validate() error {
	if c.WindowSize != nil && *c.WindowSize < 2 {
		return fmt.Errorf("window_size must be at least 2, got %d", *c.WindowSize)
	}
	if c.BoundTight != nil && *c.BoundTight <= 0 {
		return fmt.Errorf("bound_tight must be positive, got %g", *c.BoundTight)
	}
	if c.TimeLimit != nil && *c.TimeLimit <= 0 {
		return fmt.Errorf("time_limit must be positive, got %d", *c.TimeLimit)
	}
	if c.BirthLookaheadFrames != nil && *c.BirthLookaheadFrames < 1 {
		return fmt.Errorf("birth_lookahead_frames must be at least 1, got %d", *c.BirthLookaheadFrames)
	}
	if c.BirthMinTightHits != nil && *c.BirthMinTightHits < 1 {
		return fmt.Errorf("birth_min_tight_hits must be at least 1, got %d", *c.BirthMinTightHits)
	}
	if c.HitsToConfirm != nil && *c.HitsToConfirm < 1 {
		return fmt.Errorf("hits_to_confirm must be at least 1, got %d", *c.HitsToConfirm)
	}
	return nil
}

// GetWindowSize returns the regression window size, or the default.
func (c *TuningConfig) GetWindowSize() int {
	if c.WindowSize != nil {
		return *c.WindowSize
	}
	return defaultWindowSize
}

// GetBoundTight returns the gating radius, or the default.
func (c *TuningConfig) GetBoundTight() float64 {
	if c.BoundTight != nil {
		return *c.BoundTight
	}
	return defaultBoundTight
}

// GetTimeLimit returns the inactivity threshold in ticks, or the default.
func (c *TuningConfig) GetTimeLimit() int64 {
	if c.TimeLimit != nil {
		return *c.TimeLimit
	}
	return defaultTimeLimit
}

// GetBirthLookaheadFrames returns the birth lookahead window, or the default.
func (c *TuningConfig) GetBirthLookaheadFrames() int {
	if c.BirthLookaheadFrames != nil {
		return *c.BirthLookaheadFrames
	}
	return defaultBirthLookaheadFrames
}

// GetBirthMinTightHits returns the birth tight-hit floor, or the default.
func (c *TuningConfig) GetBirthMinTightHits() int {
	if c.BirthMinTightHits != nil {
		return *c.BirthMinTightHits
	}
	return defaultBirthMinTightHits
}

// GetHitsToConfirm returns the confirmation hit count, or the default.
func (c *TuningConfig) GetHitsToConfirm() int {
	if c.HitsToConfirm != nil {
		return *c.HitsToConfirm
	}
	return defaultHitsToConfirm
}
