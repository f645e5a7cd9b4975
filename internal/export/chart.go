package export

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/artur/slide-bot/internal/database/models"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no registrations to plot")

// RenderRegistrationsChart draws a bar per day and returns the PNG bytes.
func RenderRegistrationsChart(days []models.DayCount) ([]byte, error) {
	if len(days) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, 0, len(days))
	var maxVal int64
	for _, d := range days {
		if d.Count > maxVal {
			maxVal = d.Count
		}
		bars = append(bars, chart.Value{Value: float64(d.Count), Label: d.Day})
	}

	// zero range makes go-chart fail with invalid data range
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}

	graph := chart.BarChart{
		Title:    "Registrations per day",
		Width:    1100,
		Height:   600,
		BarWidth: 56,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
