// Package chart renders the per-era scatter figure with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

// Format is an output image encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ErrUnsupportedFormat is returned for output paths that are neither JPEG nor PNG.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var (
	pointColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	trendColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Renderer draws one panel per era side by side with a shared Y range.
// It implements pipeline.Renderer.
type Renderer struct {
	width  vg.Length
	height vg.Length
}

// NewRenderer creates a renderer for a 15x5 inch figure.
func NewRenderer() *Renderer {
	return &Renderer{width: 15 * vg.Inch, height: 5 * vg.Inch}
}

// RenderFile writes the figure to path, choosing the encoding by extension.
func (r *Renderer) RenderFile(path string, panels []domain.Panel) (err error) {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close image: %w", cerr)
		}
	}()
	return r.Render(f, format, panels)
}

// Render encodes the figure to w.
func (r *Renderer) Render(w io.Writer, format Format, panels []domain.Panel) error {
	if len(panels) == 0 {
		return errors.New("no panels to render")
	}

	yMin, yMax := sharedRange(panels)
	plots := make([]*plot.Plot, len(panels))
	for i, p := range panels {
		pl, err := panelPlot(p, i == 0)
		if err != nil {
			return fmt.Errorf("panel %q: %w", p.Era.Name, err)
		}
		pl.Y.Min, pl.Y.Max = yMin, yMax
		plots[i] = pl
	}

	img := vgimg.New(r.width, r.height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(plots),
		PadX:      vg.Points(12),
		PadTop:    vg.Points(6),
		PadBottom: vg.Points(6),
		PadLeft:   vg.Points(6),
		PadRight:  vg.Points(6),
	}
	canvases := plot.Align([][]*plot.Plot{plots}, tiles, dc)
	for j := range plots {
		plots[j].Draw(canvases[0][j])
	}

	var err error
	switch format {
	case FormatJPEG:
		_, err = vgimg.JpegCanvas{Canvas: img}.WriteTo(w)
	case FormatPNG:
		_, err = vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

func panelPlot(p domain.Panel, first bool) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = p.Era.Name
	pl.X.Label.Text = "Month"
	if first {
		pl.Y.Label.Text = "Persons regaining housing"
	}
	pl.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	pl.X.Tick.Label.Rotation = math.Pi / 2
	pl.X.Tick.Label.XAlign = draw.XRight
	pl.X.Tick.Label.YAlign = draw.YCenter
	pl.Add(plotter.NewGrid())

	if !p.Era.Start.IsZero() && !p.Era.End.IsZero() {
		pl.X.Min = float64(p.Era.Start.Unix())
		pl.X.Max = float64(p.Era.End.Unix())
	}

	if len(p.Observations) == 0 {
		return pl, nil
	}

	points := make(plotter.XYs, len(p.Observations))
	for i, o := range p.Observations {
		points[i].X = float64(o.Date.Unix())
		points[i].Y = float64(o.NumberServed)
	}
	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(3)
	scatter.GlyphStyle.Color = pointColor
	pl.Add(scatter)

	if p.Trend != nil {
		start, end := p.Observations[0].Date, p.Observations[len(p.Observations)-1].Date
		line, err := plotter.NewLine(plotter.XYs{
			{X: float64(start.Unix()), Y: p.Trend.At(start)},
			{X: float64(end.Unix()), Y: p.Trend.At(end)},
		})
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = trendColor
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
		pl.Add(line)
	}
	return pl, nil
}

// sharedRange returns a Y range covering every panel's points and trend ends,
// padded by 5%.
func sharedRange(panels []domain.Panel) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	extend := func(v float64) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for _, p := range panels {
		for _, o := range p.Observations {
			extend(float64(o.NumberServed))
		}
		if p.Trend != nil && len(p.Observations) > 0 {
			extend(p.Trend.At(p.Observations[0].Date))
			extend(p.Trend.At(p.Observations[len(p.Observations)-1].Date))
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
