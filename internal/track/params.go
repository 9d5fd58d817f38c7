package track

import "github.com/banshee-data/linetrack/internal/config"

// ParamsFromTuning builds tracking Params from a loaded TuningConfig.
// Use this where a config file (or partial override) is already loaded;
// DefaultParams covers the no-config case.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		WindowSize:           cfg.GetWindowSize(),
		BoundTight:           cfg.GetBoundTight(),
		TimeLimit:            cfg.GetTimeLimit(),
		BirthLookaheadFrames: cfg.GetBirthLookaheadFrames(),
		BirthMinTightHits:    cfg.GetBirthMinTightHits(),
		HitsToConfirm:        cfg.GetHitsToConfirm(),
	}
}
