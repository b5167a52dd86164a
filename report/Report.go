// Package report renders the diagnostics of a training run as HTML
// charts: the per-episode profitability curve and the final episode's
// price trace with the agent's buy and sell decisions marked on it.
package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/qtraderlab/qtrader/environment/trading"
)

// Render writes an HTML report to path. The returns parameter is the
// ordered per-episode total reward; prices and actions are the final
// episode's price trace and the action taken at each price.
func Render(path string, returns []float64, prices []float64,
	actions []int) error {
	page := components.NewPage()
	page.PageTitle = "qtrader training report"
	page.AddCharts(
		returnsChart(returns),
		tradesChart(prices, actions),
	)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: could not create report file: %v", err)
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return fmt.Errorf("render: could not render report: %v", err)
	}

	return nil
}

// returnsChart plots the total reward of each episode
func returnsChart(returns []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Episode profitability",
		}),
	)

	episodes := make([]string, len(returns))
	items := make([]opts.LineData, len(returns))
	for i, r := range returns {
		episodes[i] = fmt.Sprintf("%d", i+1)
		items[i] = opts.LineData{Value: r}
	}

	line.SetXAxis(episodes)
	line.AddSeries("Total reward", items)

	return line
}

// tradesChart plots the final episode's asset price with the agent's
// buy and sell decisions overlaid as markers
func tradesChart(prices []float64, actions []int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Trading decisions (final episode)",
		}),
	)

	steps := make([]string, len(prices))
	priceItems := make([]opts.LineData, len(prices))
	for i, p := range prices {
		steps[i] = fmt.Sprintf("%d", i)
		priceItems[i] = opts.LineData{Value: p}
	}

	line.SetXAxis(steps)
	line.AddSeries("Price", priceItems)

	scatter := charts.NewScatter()
	scatter.SetXAxis(steps)
	scatter.AddSeries("Buy", markers(prices, actions, trading.Buy))
	scatter.AddSeries("Sell", markers(prices, actions, trading.Sell))

	line.Overlap(scatter)

	return line
}

// markers builds a scatter series with one marker at every step where
// the agent took the argument action. All other steps hold the
// echarts empty value so no marker is drawn.
func markers(prices []float64, actions []int, action int) []opts.ScatterData {
	items := make([]opts.ScatterData, len(prices))
	for i := range prices {
		if i < len(actions) && actions[i] == action {
			items[i] = opts.ScatterData{
				Value:      prices[i],
				SymbolSize: 10,
			}
		} else {
			items[i] = opts.ScatterData{Value: "-"}
		}
	}
	return items
}
