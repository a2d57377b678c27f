package components

import (
	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
)

// historyCap bounds the series to one chart width of samples.
const historyCap = 31

// HistoryChart is a rolling braille line chart for one percentage
// series. Push appends a sample, View redraws from the current window.
type HistoryChart struct {
	Chart   linechart.Model
	History []float64
	Width   int
	Height  int
}

func NewHistoryChart(width, height int) *HistoryChart {
	// width, height, minX, maxX, minY, maxY
	lc := linechart.New(width, height, 0, historyCap-1, 0, 100)
	return &HistoryChart{
		Chart:   lc,
		History: make([]float64, 0, historyCap),
		Width:   width,
		Height:  height,
	}
}

func (c *HistoryChart) Push(value float64) {
	c.History = append(c.History, value)
	if len(c.History) > historyCap {
		c.History = c.History[1:]
	}
}

func (c *HistoryChart) Resize(w, h int) {
	c.Width = w
	c.Height = h
	c.Chart.Resize(w, h)
}

func (c *HistoryChart) View() string {
	c.Chart.Clear()
	for i := 0; i < len(c.History)-1; i++ {
		y1 := c.History[i]
		y2 := c.History[i+1]
		c.Chart.DrawBrailleLine(
			canvas.Float64Point{X: float64(i), Y: y1},
			canvas.Float64Point{X: float64(i + 1), Y: y2},
		)
	}
	c.Chart.DrawXYAxisAndLabel()
	return c.Chart.View()
}
