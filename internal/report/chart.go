package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// AssetsHost serves the echarts javascript.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderChart writes an HTML page with a bar per track showing its wait.
func RenderChart(w io.Writer, title string, r waittime.Report) error {
	sum := Summarize(r.Seconds())

	ids := make([]string, 0, len(r.Entries))
	bars := make([]opts.BarData, 0, len(r.Entries))
	for _, e := range r.Entries {
		ids = append(ids, "ID "+strconv.FormatInt(e.TrackID, 10))
		bars = append(bars, opts.BarData{Name: e.Elapsed, Value: e.WaitSeconds})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("tracks=%d mean=%.1fs median=%.1fs p95=%.1fs max=%.1fs", sum.Count, sum.Mean, sum.Median, sum.P95, sum.Max),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Track"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Wait (s)"}),
	)
	bar.SetXAxis(ids).
		AddSeries("wait", bars,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetPageTitle(title)
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(bar)
	return page.Render(w)
}
