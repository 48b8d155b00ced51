package controller

import (
	"errors"
	"fmt"
	"strings"

	"sstab/utils"
	"sstab/views"
)

var (
	// ErrUnknownMetric is returned when the requested column is not in the dataset.
	ErrUnknownMetric = errors.New("metric not found")
	// ErrNoDataInRange is returned when the time filter leaves no points.
	ErrNoDataInRange = errors.New("no data in specified time range")
)

// PlotRequest selects a metric and an optional time window in seconds from
// the first row.
type PlotRequest struct {
	Metric string
	Start  *float64
	End    *float64
	Width  float64 // inches
	Height float64 // inches
	Output string
}

// PlotController renders metrics from an exported CSV.
type PlotController struct {
	ds *views.Dataset
}

// NewPlotController loads the dataset at path.
func NewPlotController(path string) (*PlotController, error) {
	ds, err := views.ReadDataset(path)
	if err != nil {
		return nil, err
	}
	if !ds.HasColumn(views.ColumnTimestamp) {
		return nil, fmt.Errorf("%s has no %q column", path, views.ColumnTimestamp)
	}
	return &PlotController{ds: ds}, nil
}

// Metrics returns the available column names, sorted.
func (pc *PlotController) Metrics() []string {
	return pc.ds.SortedColumns()
}

// Series extracts req.Metric against time offset. Rows whose metric cell is
// empty or non-numeric are skipped.
func (pc *PlotController) Series(req PlotRequest) (views.MetricSeries, error) {
	if !pc.ds.HasColumn(req.Metric) {
		return views.MetricSeries{}, fmt.Errorf("%w: %q; available metrics:\n%s",
			ErrUnknownMetric, req.Metric, strings.Join(pc.Metrics(), "\n"))
	}

	s := views.MetricSeries{Metric: req.Metric}
	var origin int64
	haveOrigin := false
	for i := range pc.ds.Rows {
		ts, ok := pc.ds.Timestamp(i)
		if !ok {
			continue
		}
		if !haveOrigin {
			origin, haveOrigin = ts, true
		}
		off := float64(ts-origin) / 1e9
		if req.Start != nil && off < *req.Start {
			continue
		}
		if req.End != nil && off > *req.End {
			continue
		}
		v, ok := pc.ds.Number(i, req.Metric)
		if !ok {
			continue
		}
		s.Offsets = append(s.Offsets, off)
		s.Values = append(s.Values, v)
	}
	if s.Len() == 0 {
		return s, ErrNoDataInRange
	}
	return s, nil
}

// Plot renders the requested metric to req.Output (<metric>.png when empty)
// and returns the path written.
func (pc *PlotController) Plot(req PlotRequest) (string, error) {
	s, err := pc.Series(req)
	if err != nil {
		return "", err
	}
	out := req.Output
	if out == "" {
		out = req.Metric + ".png"
	}
	if err := views.SavePlot(s, req.Width, req.Height, out); err != nil {
		return "", err
	}
	utils.L().Info("plot saved to %s  (metric=%s, points=%d)", out, req.Metric, s.Len())
	return out, nil
}
