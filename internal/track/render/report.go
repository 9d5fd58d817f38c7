package render

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/linetrack/internal/track"
)

// WriteTrackReport renders a finished run as a standalone HTML scatter
// chart: one series per track (every item assigned to it) plus one
// series for the items that never joined a track. The items slice must
// be the run's full input, indexable by the indices in the Result.
func WriteTrackReport(path string, res *track.Result, items []track.Item) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Track Report", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Object tracks",
			Subtitle: fmt.Sprintf("tracks=%d items=%d unassigned=%d", len(res.Tracks), len(items), len(res.Unassigned)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 1, Name: "x"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "y"}),
	)

	for ti, indices := range res.Tracks {
		data := make([]opts.ScatterData, 0, len(indices))
		for _, idx := range indices {
			it := items[idx]
			data = append(data, opts.ScatterData{Value: []interface{}{it.X, it.Y}})
		}
		name := fmt.Sprintf("track %d (%s)", ti, res.Summaries[ti].State)
		scatter.AddSeries(name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}

	if len(res.Unassigned) > 0 {
		data := make([]opts.ScatterData, 0, len(res.Unassigned))
		for _, idx := range res.Unassigned {
			it := items[idx]
			data = append(data, opts.ScatterData{Value: []interface{}{it.X, it.Y}})
		}
		scatter.AddSeries("unassigned", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := scatter.Render(f); err != nil {
		return fmt.Errorf("render track report: %w", err)
	}
	return nil
}
