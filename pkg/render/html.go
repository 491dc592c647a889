package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

type (
	HTMLOption func(*htmlConfig)
	htmlConfig struct {
		assetsHost string
		size       string
	}
)

// WithAssetsHost sets the location of the echarts javascript files
func WithAssetsHost(host string) HTMLOption {
	return func(c *htmlConfig) {
		c.assetsHost = host
	}
}

func newHTMLConfig(options ...HTMLOption) *htmlConfig {
	ret := &htmlConfig{
		assetsHost: "https://go-echarts.github.io/go-echarts-assets/assets/",
		size:       "900px",
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// DominanceHTML renders the track map. Each segment is a separate series
// named after the faster driver, so the legend toggles all segments of a driver.
func DominanceHTML(w io.Writer, r *model.Result, options ...HTMLOption) error {
	cfg := newHTMLConfig(options...)
	line := charts.NewLine()

	xMin, xMax, yMin, yMax := squareBounds(r.Segments)
	legend := make([]string, 0, len(r.Legend))
	for _, l := range r.Legend {
		legend = append(legend, l.Driver)
	}
	sub := ""
	if r.Session != nil {
		sub = r.Session.Name
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  DominanceTitle(r),
			Theme:      "dark",
			Width:      cfg.size,
			Height:     cfg.size,
			AssetsHost: cfg.assetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: DominanceTitle(r), Subtitle: sub}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Data: legend, Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Show: opts.Bool(false), Type: "value", Min: xMin, Max: xMax}),
		charts.WithYAxisOpts(opts.YAxis{Show: opts.Bool(false), Type: "value", Min: yMin, Max: yMax}),
	)

	// legend entries take their color from the first series with that name
	for _, l := range r.Legend {
		line.AddSeries(l.Driver, []opts.LineData{},
			charts.WithItemStyleOpts(opts.ItemStyle{Color: l.Color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: l.Color, Width: 6}))
	}
	for i := range r.Segments {
		seg := &r.Segments[i]
		data := make([]opts.LineData, len(seg.Points))
		for j, p := range seg.Points {
			data[j] = opts.LineData{Value: []float64{p.X, p.Y}}
		}
		line.AddSeries(seg.FasterDriver, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: seg.Color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: seg.Color, Width: 6}),
			charts.WithSeriesTooltipOpts(opts.SeriesTooltip{
				Formatter: types.FuncStr("Faster: " + seg.FasterDriver),
			}))
	}
	return line.Render(w)
}

// squareBounds returns axis ranges with equal span for x and y so the track
// keeps its shape.
func squareBounds(segments []model.DominanceSegment) (xMin, xMax, yMin, yMax float64) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for i := range segments {
		for _, p := range segments[i].Points {
			xMin, xMax = math.Min(xMin, p.X), math.Max(xMax, p.X)
			yMin, yMax = math.Min(yMin, p.Y), math.Max(yMax, p.Y)
		}
	}
	if math.IsInf(xMin, 1) {
		return 0, 1, 0, 1
	}
	span := math.Max(xMax-xMin, yMax-yMin)*1.05 + 1
	cx, cy := (xMin+xMax)/2, (yMin+yMax)/2
	return cx - span/2, cx + span/2, cy - span/2, cy + span/2
}

// SpeedTraceHTML renders one distance/speed chart per lap on a single page.
func SpeedTraceHTML(w io.Writer, t *model.SpeedTrace, options ...HTMLOption) error {
	cfg := newHTMLConfig(options...)
	page := components.NewPage()
	page.SetAssetsHost(cfg.assetsHost)
	title := "Speed traces"
	if t.Meeting != nil {
		title = fmt.Sprintf("Speed traces %d %s", t.Meeting.Year, t.Meeting.Name)
	}
	page.SetPageTitle(title)

	for i := range t.Laps {
		lap := &t.Laps[i]
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				Theme:      "dark",
				Width:      "1200px",
				Height:     "500px",
				AssetsHost: cfg.assetsHost,
			}),
			charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Lap %d", lap.LapNumber)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "bottom"}),
			charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Distance (m)"}),
			charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Speed (km/h)"}),
		)
		for _, l := range lap.Lines {
			data := make([]opts.LineData, len(l.Samples))
			for j, s := range l.Samples {
				data[j] = opts.LineData{Value: []float64{s.Distance, s.Speed}}
			}
			style := opts.LineStyle{Color: l.Color, Width: 1.5}
			if l.Dashed {
				style.Type = "dashed"
			}
			line.AddSeries(l.Driver, data,
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: l.Color}),
				charts.WithLineStyleOpts(style))
		}
		page.AddCharts(line)
	}
	return page.Render(w)
}
