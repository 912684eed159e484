// Package report summarizes an estimate distribution: moments,
// percentile confidence interval, bias correction against the apparent
// sample, and a fixed-width text rendering.
package report

import (
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/ipwboot/internal/model"
)

// Summary condenses one run's distribution for display and export.
type Summary struct {
	Term      string  `json:"term"`
	N         int     `json:"n"`
	Mean      float64 `json:"mean"`
	SD        float64 `json:"sd"`
	Level     float64 `json:"level"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Apparent  float64 `json:"apparent,omitempty"`
	// BiasCorrected is 2·apparent − bootstrap mean, the basic
	// bias-corrected point estimate; only set when the run included
	// the apparent sample.
	BiasCorrected float64 `json:"bias_corrected,omitempty"`
	HasApparent   bool    `json:"has_apparent"`
	Attempted     int     `json:"attempted"`
	Skipped       int     `json:"skipped"`
}

// Summarize computes the summary at the given confidence level
// (e.g. 0.95). The apparent estimate is excluded from the moments and
// the percentile interval.
func Summarize(res *model.RunResult, level float64) (*Summary, error) {
	if res == nil {
		return nil, eris.New("report: nil result")
	}
	if level <= 0 || level >= 1 {
		return nil, eris.Errorf("report: confidence level %g outside (0,1)", level)
	}

	values := res.Distribution.Values()
	if len(values) == 0 {
		return nil, eris.New("report: distribution has no bootstrap estimates")
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	alpha := (1 - level) / 2
	s := &Summary{
		Term:      res.Distribution.Term,
		N:         len(values),
		Mean:      stat.Mean(values, nil),
		SD:        stat.StdDev(values, nil),
		Level:     level,
		Lower:     stat.Quantile(alpha, stat.Empirical, sorted, nil),
		Upper:     stat.Quantile(1-alpha, stat.Empirical, sorted, nil),
		Attempted: res.Attempted,
		Skipped:   res.Skipped,
	}
	if len(values) == 1 {
		s.SD = 0
	}

	if apparent, ok := res.Distribution.Apparent(); ok {
		s.HasApparent = true
		s.Apparent = apparent.Value
		s.BiasCorrected = 2*apparent.Value - s.Mean
	}

	return s, nil
}

// Render formats the summary as a fixed-width text block.
func (s *Summary) Render() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	p.Fprintf(&b, "term:            %s\n", s.Term)
	p.Fprintf(&b, "resamples:       %d (skipped %d of %d attempted)\n", s.N, s.Skipped, s.Attempted)
	p.Fprintf(&b, "mean:            %.4f\n", s.Mean)
	p.Fprintf(&b, "sd:              %.4f\n", s.SD)
	p.Fprintf(&b, "%.0f%% interval:    [%.4f, %.4f]\n", s.Level*100, s.Lower, s.Upper)
	if s.HasApparent {
		p.Fprintf(&b, "apparent:        %.4f\n", s.Apparent)
		p.Fprintf(&b, "bias-corrected:  %.4f\n", s.BiasCorrected)
	}

	return b.String()
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// Histogram renders the values as a unicode sparkline over bins equal-width
// buckets.
func Histogram(values []float64, bins int) string {
	if len(values) == 0 || bins < 1 {
		return ""
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return strings.Repeat(string(sparks[len(sparks)-1]), 1)
	}

	counts := make([]int, bins)
	width := (max - min) / float64(bins)
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	peak := 0
	for _, c := range counts {
		if c > peak {
			peak = c
		}
	}

	var b strings.Builder
	for _, c := range counts {
		level := int(math.Round(float64(c) / float64(peak) * float64(len(sparks)-1)))
		b.WriteRune(sparks[level])
	}
	return b.String()
}
