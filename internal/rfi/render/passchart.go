package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/rfi-flagger/internal/rfi/flagger"
)

// PassChart builds a bar chart of newly flagged samples and pass duration
// for every pass in report.
func PassChart(report *flagger.Report, title string) *charts.Bar {
	x := make([]string, 0, len(report.Passes))
	flagged := make([]opts.BarData, 0, len(report.Passes))
	micros := make([]opts.BarData, 0, len(report.Passes))
	for _, p := range report.Passes {
		x = append(x, p.Label())
		flagged = append(flagged, opts.BarData{Value: p.NewlyFlagged})
		micros = append(micros, opts.BarData{Value: p.Duration.Microseconds()})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "RFI flagging passes", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Subtitle: fmt.Sprintf("%dx%d, flagged %d to %d in %s",
				report.Width, report.Height, report.InitialFlagged, report.FinalFlagged, report.Duration),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("newly flagged", flagged,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("duration (us)", micros)
	return bar
}

// WritePassChart renders the pass chart as a standalone HTML page.
func WritePassChart(w io.Writer, report *flagger.Report, title string) error {
	page := components.NewPage()
	page.AddCharts(PassChart(report, title))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
