package pptx

import (
	"errors"

	ppt "github.com/VantageDataChat/GoPPT"
)

// Charts are written on Save but not read back by Open, so a chart must
// be added to the deck that is finally saved.

// ErrEmptyChart is returned for a chart without categories.
var ErrEmptyChart = errors.New("pptx: chart has no data")

// Pie describes a single-series pie chart.
type Pie struct {
	Title      string
	Categories []string
	Values     []float64
}

// AddPieChart adds a pie chart at r with category labels and percentages.
func (s *Slide) AddPieChart(r Rect, pie Pie) error {
	if len(pie.Categories) == 0 {
		return ErrEmptyChart
	}
	chart := s.s.CreateChartShape()
	place(&chart.BaseShape, r)
	if pie.Title != "" {
		chart.GetTitle().SetText(pie.Title)
	} else {
		chart.GetTitle().SetVisible(false)
	}
	chart.GetLegend().Position = ppt.LegendRight

	series := ppt.NewChartSeriesOrdered(pie.Title, pie.Categories, pie.Values)
	series.ShowPercentage = true
	series.ShowCategoryName = true
	series.LabelPosition = ppt.LabelBestFit
	chart.GetPlotArea().SetType(ppt.NewPieChart().AddSeries(series))
	return nil
}

// ChartCount returns the number of charts on the slide.
func (s *Slide) ChartCount() int {
	n := 0
	for _, shape := range s.s.GetShapes() {
		if _, ok := shape.(*ppt.ChartShape); ok {
			n++
		}
	}
	return n
}

// Series is one named value list of a bar chart.
type Series struct {
	Name   string
	Values []float64
}

// Bar describes a clustered column chart.
type Bar struct {
	Title      string
	Categories []string
	Series     []Series
}

// AddBarChart adds a clustered column chart at r with the legend below.
func (s *Slide) AddBarChart(r Rect, bar Bar) error {
	if len(bar.Categories) == 0 || len(bar.Series) == 0 {
		return ErrEmptyChart
	}
	chart := s.s.CreateChartShape()
	place(&chart.BaseShape, r)
	if bar.Title != "" {
		chart.GetTitle().SetText(bar.Title)
	} else {
		chart.GetTitle().SetVisible(false)
	}
	chart.GetLegend().Position = ppt.LegendBottom

	cols := ppt.NewBarChart()
	for _, ser := range bar.Series {
		cs := ppt.NewChartSeriesOrdered(ser.Name, bar.Categories, ser.Values)
		cs.ShowValue = true
		cs.LabelPosition = ppt.LabelOutsideEnd
		cols.AddSeries(cs)
	}
	chart.GetPlotArea().SetType(cols)
	return nil
}
