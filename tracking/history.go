// Package tracking records per-generation population statistics for reports, charts and metrics
package tracking

import (
	"github.com/lixenwraith/gamatch/genetic"
)

// Row is one recorded generation
type Row struct {
	Generation  int
	BestX       uint16
	BestY       uint16
	Best        float64
	Mean        float64
	Worst       float64
	Sentinels   int
	Evaluations uint64
}

// RowFromStats flattens engine statistics into a row
func RowFromStats(s genetic.Stats) Row {
	return Row{
		Generation:  s.Generation,
		BestX:       s.Best.X,
		BestY:       s.Best.Y,
		Best:        s.Best.Fitness,
		Mean:        s.MeanScore,
		Worst:       s.WorstScore,
		Sentinels:   s.Sentinels,
		Evaluations: s.Evaluations,
	}
}

// Series holds history columns for plotting
type Series struct {
	Generation []float64
	Best       []float64
	Mean       []float64
	Worst      []float64
}

// History accumulates rows, optionally keeping only the most recent limit rows
type History struct {
	rows  []Row
	limit int
	// peak is the best fitness ever recorded, including rows already dropped
	peak     float64
	improved bool
}

// NewHistory creates a history; limit <= 0 keeps every row
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Record appends the statistics of one generation
func (h *History) Record(s genetic.Stats) Row {
	row := RowFromStats(s)

	h.improved = len(h.rows) > 0 && row.Best > h.peak
	if len(h.rows) == 0 || row.Best > h.peak {
		h.peak = row.Best
	}

	h.rows = append(h.rows, row)
	if h.limit > 0 && len(h.rows) > h.limit {
		drop := len(h.rows) - h.limit
		copy(h.rows, h.rows[drop:])
		h.rows = h.rows[:h.limit]
	}
	return row
}

// Improved reports whether the last recorded best beat every earlier one
func (h *History) Improved() bool {
	return h.improved
}

// Peak returns the best fitness ever recorded
func (h *History) Peak() float64 {
	return h.peak
}

// Len returns the number of retained rows
func (h *History) Len() int {
	return len(h.rows)
}

// Rows returns a copy of the retained rows
func (h *History) Rows() []Row {
	out := make([]Row, len(h.rows))
	copy(out, h.rows)
	return out
}

// Series returns the retained rows as plot columns
func (h *History) Series() Series {
	return SeriesOf(h.rows)
}

// SeriesOf converts rows into plot columns
func SeriesOf(rows []Row) Series {
	s := Series{
		Generation: make([]float64, len(rows)),
		Best:       make([]float64, len(rows)),
		Mean:       make([]float64, len(rows)),
		Worst:      make([]float64, len(rows)),
	}
	for i, r := range rows {
		s.Generation[i] = float64(r.Generation)
		s.Best[i] = r.Best
		s.Mean[i] = r.Mean
		s.Worst[i] = r.Worst
	}
	return s
}
