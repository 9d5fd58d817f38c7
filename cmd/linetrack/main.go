// Package main provides the linetrack command line tool. It reads
// timestamped 2D detections from a CSV file, associates them into
// object tracks, and optionally renders scene plots, writes an HTML
// report, and persists the run to a SQLite database.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/linetrack/internal/config"
	"github.com/banshee-data/linetrack/internal/track"
	"github.com/banshee-data/linetrack/internal/track/render"
	"github.com/banshee-data/linetrack/internal/trackdb"
)

// Config holds the command line configuration.
type Config struct {
	InputCSV   string
	ConfigPath string

	// Parameter overrides; negative means "use config/default".
	WindowSize int
	BoundTight float64
	TimeLimit  int64

	PlotAt     string
	PlotPrefix string
	ReportPath string
	DBPath     string
	OutputJSON string
}

func main() {
	cfg := parseFlags()

	if cfg.InputCSV == "" {
		log.Fatal("input CSV file is required (-input)")
	}

	params, err := loadParams(cfg)
	if err != nil {
		log.Fatalf("Failed to load parameters: %v", err)
	}

	x, y, t, err := readDetections(cfg.InputCSV)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", cfg.InputCSV, err)
	}
	log.Printf("Read %d detections from %s", len(x), cfg.InputCSV)

	opts := track.Options{Params: params}
	if cfg.PlotAt != "" {
		ticks, err := parseTicks(cfg.PlotAt)
		if err != nil {
			log.Fatalf("Invalid -plot-at value: %v", err)
		}
		opts.Renderer = render.NewScenePlotter(cfg.PlotPrefix)
		opts.RenderTicks = ticks
	}

	res, err := track.Run(x, y, t, opts)
	if err != nil {
		log.Fatalf("Tracking failed: %v", err)
	}
	for _, w := range res.RenderWarnings {
		log.Printf("Warning: %s", w)
	}
	log.Printf("Built %d tracks, %d items unassigned", len(res.Tracks), len(res.Unassigned))

	if cfg.ReportPath != "" {
		items := buildItems(x, y, t)
		if err := render.WriteTrackReport(cfg.ReportPath, res, items); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		log.Printf("Report written to %s", cfg.ReportPath)
	}

	if cfg.DBPath != "" {
		runID, err := saveRun(cfg.DBPath, res, buildItems(x, y, t), params)
		if err != nil {
			log.Fatalf("Failed to save run: %v", err)
		}
		log.Printf("Run %s saved to %s", runID, cfg.DBPath)
	}

	if cfg.OutputJSON != "" {
		if err := exportJSON(res, cfg.OutputJSON); err != nil {
			log.Fatalf("Failed to export JSON: %v", err)
		}
		log.Printf("Results exported to %s", cfg.OutputJSON)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.InputCSV, "input", "", "Path to input CSV file with x,y,t rows")
	flag.StringVar(&cfg.ConfigPath, "config", "", "Path to tuning config JSON file")
	flag.IntVar(&cfg.WindowSize, "m", -1, "Regression window size override")
	flag.Float64Var(&cfg.BoundTight, "bound", -1, "Gating radius override")
	flag.Int64Var(&cfg.TimeLimit, "time-limit", -1, "Track expiry limit override (ticks)")
	flag.StringVar(&cfg.PlotAt, "plot-at", "", "Comma-separated ticks to render as scene plots")
	flag.StringVar(&cfg.PlotPrefix, "plot-prefix", "frames/frame", "Output path prefix for scene plots")
	flag.StringVar(&cfg.ReportPath, "report", "", "Output path for HTML track report")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite database path to persist the run")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Output path for JSON results")

	flag.Parse()
	return cfg
}

// loadParams resolves tracking parameters: defaults, then the config
// file if given, then any command line overrides.
func loadParams(cfg Config) (track.Params, error) {
	params := track.DefaultParams()
	if cfg.ConfigPath != "" {
		tuning, err := config.LoadTuningConfig(cfg.ConfigPath)
		if err != nil {
			return track.Params{}, err
		}
		params = track.ParamsFromTuning(tuning)
	}
	if cfg.WindowSize >= 0 {
		params.WindowSize = cfg.WindowSize
	}
	if cfg.BoundTight >= 0 {
		params.BoundTight = cfg.BoundTight
	}
	if cfg.TimeLimit >= 0 {
		params.TimeLimit = cfg.TimeLimit
	}
	return params, nil
}

// readDetections parses a CSV of x,y,t rows. A header row is skipped
// when its first field is not numeric.
func readDetections(path string) (x, y []float64, t []int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, err
		}
		line++

		xv, errX := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if errX != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, nil, nil, fmt.Errorf("line %d: bad x value %q", line, rec[0])
		}
		yv, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("line %d: bad y value %q", line, rec[1])
		}
		tv, err := strconv.ParseInt(strings.TrimSpace(rec[2]), 10, 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("line %d: bad t value %q", line, rec[2])
		}

		x = append(x, xv)
		y = append(y, yv)
		t = append(t, tv)
	}
	return x, y, t, nil
}

func parseTicks(s string) ([]int64, error) {
	var ticks []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tick, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad tick %q", part)
		}
		ticks = append(ticks, tick)
	}
	return ticks, nil
}

func buildItems(x, y []float64, t []int64) []track.Item {
	items := make([]track.Item, len(x))
	for i := range x {
		items[i] = track.Item{Index: i, X: x[i], Y: y[i], Tick: t[i]}
	}
	return items
}

func saveRun(path string, res *track.Result, items []track.Item, params track.Params) (string, error) {
	db, err := trackdb.Open(path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		return "", err
	}
	return trackdb.NewRunStore(db).SaveRun(res, items, params)
}

// runExport is the JSON shape written by -json.
type runExport struct {
	Tracks     [][]int              `json:"tracks"`
	Summaries  []track.TrackSummary `json:"summaries"`
	Unassigned []int                `json:"unassigned"`
}

func exportJSON(res *track.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(runExport{
		Tracks:     res.Tracks,
		Summaries:  res.Summaries,
		Unassigned: res.Unassigned,
	})
}
