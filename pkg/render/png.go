package render

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

const pngSize = 10 * vg.Inch

var pngBackground = color.RGBA{R: 0x10, G: 0x0c, B: 0x2a, A: 0xff}

// DominancePlot builds the track map as gonum plot.
func DominancePlot(r *model.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = DominanceTitle(r)
	p.Title.TextStyle.Color = color.White
	p.BackgroundColor = pngBackground
	p.HideAxes()
	p.Legend.Top = true
	p.Legend.TextStyle.Color = color.White

	xMin, xMax, yMin, yMax := squareBounds(r.Segments)
	p.X.Min, p.X.Max = xMin, xMax
	p.Y.Min, p.Y.Max = yMin, yMax

	for i := range r.Segments {
		seg := &r.Segments[i]
		pts := make(plotter.XYs, len(seg.Points))
		for j, pt := range seg.Points {
			pts[j] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		line.Color = ParseColor(seg.Color)
		line.Width = vg.Points(4)
		p.Add(line)
	}
	for _, l := range r.Legend {
		thumb, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}})
		if err != nil {
			return nil, err
		}
		thumb.Color = ParseColor(l.Color)
		thumb.Width = vg.Points(4)
		p.Legend.Add(l.Driver, thumb)
	}
	return p, nil
}

// DominancePNG writes the track map as PNG image.
func DominancePNG(w io.Writer, r *model.Result) error {
	p, err := DominancePlot(r)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(pngSize, pngSize, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveDominancePNG writes the track map to file, the format is taken from
// the file extension.
func SaveDominancePNG(file string, r *model.Result) error {
	p, err := DominancePlot(r)
	if err != nil {
		return err
	}
	return p.Save(pngSize, pngSize, file)
}

// ParseColor accepts #RRGGBB, #RGB or a css color name. Unknown values are gray.
func ParseColor(s string) color.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return colornames.Gray
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return colornames.Gray
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
