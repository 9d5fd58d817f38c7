package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/linetrack/internal/track"
)

// circleSegments is the number of segments used to approximate the
// gating radius circle.
const circleSegments = 36

// ScenePlotter renders per-tick tracking snapshots as PNG scene plots:
// unit-square axes, each active track's history and fitted trajectory
// in its own colour, the predicted point with its gating circle, and
// the frame's items marked distinctly from the previous frame's
// leftovers. It implements track.Renderer.
type ScenePlotter struct {
	// Prefix is the output path prefix; each frame is written to
	// <Prefix>_<tick zero-padded to 5 digits>.png. The parent directory
	// is created on first use.
	Prefix string
	// Size is the edge length of the square canvas.
	Size vg.Length
}

// NewScenePlotter returns a plotter writing frames under the given
// path prefix.
func NewScenePlotter(prefix string) *ScenePlotter {
	return &ScenePlotter{Prefix: prefix, Size: 6 * vg.Inch}
}

// FrameFilename returns the output path for a given tick.
func (sp *ScenePlotter) FrameFilename(tick int64) string {
	return fmt.Sprintf("%s_%05d.png", sp.Prefix, tick)
}

// RenderFrame writes one snapshot as a PNG scene plot.
func (sp *ScenePlotter) RenderFrame(snap *track.Snapshot) error {
	if sp.Prefix == "" {
		return fmt.Errorf("scene plotter has no output prefix")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("t = %d", snap.Tick)
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	for _, view := range snap.Tracks {
		col := paletteColor(view.ID)

		history := make(plotter.XYs, len(view.History))
		for i, it := range view.History {
			history[i] = plotter.XY{X: it.X, Y: it.Y}
		}
		scatter, err := plotter.NewScatter(history)
		if err != nil {
			return fmt.Errorf("track %d history: %w", view.ID, err)
		}
		scatter.GlyphStyle.Color = col
		scatter.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(scatter)

		// Fitted segment from the start of the regression window to the
		// predicted point at the snapshot tick.
		segment := plotter.XYs{
			{X: view.FitX.At(view.FitStartTick), Y: view.FitY.At(view.FitStartTick)},
			{X: view.Predicted.X, Y: view.Predicted.Y},
		}
		line, err := plotter.NewLine(segment)
		if err != nil {
			return fmt.Errorf("track %d trajectory: %w", view.ID, err)
		}
		line.Color = col
		line.Width = vg.Points(1)
		p.Add(line)

		circle, err := plotter.NewLine(gatingCircle(view.Predicted, snap.BoundTight))
		if err != nil {
			return fmt.Errorf("track %d gating circle: %w", view.ID, err)
		}
		circle.Color = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
		p.Add(circle)
	}

	if err := addItemScatter(p, snap.Leftover, color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}); err != nil {
		return err
	}
	if err := addItemScatter(p, snap.Items, color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}); err != nil {
		return err
	}

	out := sp.FrameFilename(snap.Tick)
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := p.Save(sp.Size, sp.Size, out); err != nil {
		return fmt.Errorf("save scene plot: %w", err)
	}
	return nil
}

func addItemScatter(p *plot.Plot, items []track.Item, col color.Color) error {
	if len(items) == 0 {
		return nil
	}
	pts := make(plotter.XYs, len(items))
	for i, it := range items {
		pts[i] = plotter.XY{X: it.X, Y: it.Y}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("item scatter: %w", err)
	}
	scatter.GlyphStyle.Color = col
	scatter.GlyphStyle.Shape = draw.CrossGlyph{}
	p.Add(scatter)
	return nil
}

// gatingCircle approximates the gating radius around a predicted point
// as a closed polyline.
func gatingCircle(center track.Prediction, radius float64) plotter.XYs {
	pts := make(plotter.XYs, circleSegments+1)
	for i := 0; i <= circleSegments; i++ {
		rad := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = plotter.XY{
			X: center.X + radius*math.Cos(rad),
			Y: center.Y + radius*math.Sin(rad),
		}
	}
	return pts
}

// paletteColor returns a stable colour for a track ID from an HSL
// wheel, so neighbouring IDs stay visually distinct.
func paletteColor(id int) color.Color {
	const paletteSize = 6
	hue := float64(id%paletteSize) / paletteSize
	r, g, b := hslToRGB(hue, 0.7, 0.5)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
