package server

import (
	"bytes"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ayusman/handvol/internal/state"
)

// series describes one history chart.
type series struct {
	name  string
	title string
	unit  string
	color color.RGBA
	pick  func(state.Histories) []float64
}

var chartSeries = []series{
	{
		name:  "volume",
		title: "Volume",
		unit:  "%",
		color: color.RGBA{R: 0x21, G: 0x96, B: 0xF3, A: 0xFF},
		pick:  func(h state.Histories) []float64 { return h.Volume },
	},
	{
		name:  "response",
		title: "Response time",
		unit:  "ms",
		color: color.RGBA{R: 0xFF, G: 0x98, B: 0x00, A: 0xFF},
		pick:  func(h state.Histories) []float64 { return h.ResponseTime },
	},
	{
		name:  "accuracy",
		title: "Detection accuracy",
		unit:  "%",
		color: color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF},
		pick:  func(h state.Histories) []float64 { return h.Accuracy },
	},
}

func findSeries(name string) (series, bool) {
	for _, s := range chartSeries {
		if s.name == name {
			return s, true
		}
	}
	return series{}, false
}

// handleChartsPage renders the three histories as an echarts page.
func (s *Server) handleChartsPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h := s.config.State.Load().Histories

	page := components.NewPage()
	page.PageTitle = "handvol"
	for _, sr := range chartSeries {
		page.AddCharts(lineChart(sr, sr.pick(h)))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("render error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func lineChart(sr series, values []float64) *charts.Line {
	x := make([]int, len(values))
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		x[i] = i
		data[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: sr.title, Subtitle: fmt.Sprintf("last %d frames", len(values))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: sr.unit}),
	)
	line.SetXAxis(x).
		AddSeries(sr.name, data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		)
	return line
}

// handleChartPNG handles GET /api/charts/{name}.png.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/charts/")
	name, ok := strings.CutSuffix(name, ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	sr, ok := findSeries(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	p, err := plotSeries(sr, sr.pick(s.config.State.Load().Histories))
	if err != nil {
		log.Printf("Error plotting %s: %v", name, err)
		http.Error(w, "Failed to plot chart", http.StatusInternalServerError)
		return
	}

	wt, err := p.WriterTo(6*vg.Inch, 3*vg.Inch, "png")
	if err != nil {
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := wt.WriteTo(w); err != nil {
		log.Printf("Error writing chart: %v", err)
	}
}

func plotSeries(sr series, values []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = sr.title
	p.X.Label.Text = "frame"
	p.Y.Label.Text = sr.unit
	p.Add(plotter.NewGrid())

	if len(values) == 0 {
		return p, nil
	}

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}
	line.Color = sr.color
	line.Width = vg.Points(1.5)
	p.Add(line)

	return p, nil
}

// SeriesSummary describes one history.
type SeriesSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Last   float64 `json:"last"`
}

// Summarize computes the statistics of values. An empty series yields
// the zero summary.
func Summarize(values []float64) SeriesSummary {
	if len(values) == 0 {
		return SeriesSummary{}
	}

	sum := SeriesSummary{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Last:  values[len(values)-1],
	}
	if len(values) == 1 {
		sum.Mean = values[0]
		return sum
	}
	sum.Mean, sum.StdDev = stat.MeanStdDev(values, nil)
	return sum
}

// handleSummary handles GET /api/metrics/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h := s.config.State.Load().Histories
	resp := make(map[string]SeriesSummary, len(chartSeries))
	for _, sr := range chartSeries {
		resp[sr.name] = Summarize(sr.pick(h))
	}
	writeJSON(w, resp)
}
