package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ipwboot/internal/model"
)

func resultWith(values []float64, apparent *float64) *model.RunResult {
	res := &model.RunResult{Attempted: len(values), Skipped: 0}
	res.Distribution.Term = "treated"
	for i, v := range values {
		res.Distribution.Estimates = append(res.Distribution.Estimates, model.Estimate{
			ResampleID: i, Value: v,
		})
	}
	if apparent != nil {
		res.Attempted++
		res.Distribution.Estimates = append(res.Distribution.Estimates, model.Estimate{
			ResampleID: model.ApparentID, Value: *apparent,
		})
	}
	return res
}

func TestSummarize_Moments(t *testing.T) {
	res := resultWith([]float64{1, 2, 3, 4, 5}, nil)

	s, err := Summarize(res, 0.95)
	require.NoError(t, err)

	assert.Equal(t, "treated", s.Term)
	assert.Equal(t, 5, s.N)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.5811, s.SD, 1e-3)
	assert.LessOrEqual(t, s.Lower, s.Upper)
	assert.False(t, s.HasApparent)
}

func TestSummarize_BiasCorrection(t *testing.T) {
	apparent := 2.2
	res := resultWith([]float64{1.8, 2.0, 2.2, 2.4, 2.6}, &apparent)

	s, err := Summarize(res, 0.9)
	require.NoError(t, err)

	require.True(t, s.HasApparent)
	assert.InDelta(t, 2.2, s.Apparent, 1e-12)
	// 2*2.2 - 2.2 = 2.2: mean equals apparent here.
	assert.InDelta(t, 2.2, s.BiasCorrected, 1e-12)
	// The apparent estimate stays out of the moments.
	assert.Equal(t, 5, s.N)
}

func TestSummarize_IntervalBrackets(t *testing.T) {
	var values []float64
	for i := 0; i < 1000; i++ {
		values = append(values, float64(i)/100)
	}
	res := resultWith(values, nil)

	s, err := Summarize(res, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, s.Lower, 0.1)
	assert.InDelta(t, 9.74, s.Upper, 0.1)
}

func TestSummarize_Errors(t *testing.T) {
	_, err := Summarize(nil, 0.95)
	require.Error(t, err)

	_, err = Summarize(resultWith(nil, nil), 0.95)
	require.Error(t, err)

	_, err = Summarize(resultWith([]float64{1}, nil), 1.5)
	require.Error(t, err)
}

func TestRender_ContainsKeyLines(t *testing.T) {
	apparent := 2.0
	res := resultWith([]float64{1.9, 2.0, 2.1}, &apparent)
	s, err := Summarize(res, 0.95)
	require.NoError(t, err)

	out := s.Render()
	assert.Contains(t, out, "term:")
	assert.Contains(t, out, "treated")
	assert.Contains(t, out, "95% interval:")
	assert.Contains(t, out, "bias-corrected:")
}

func TestHistogram(t *testing.T) {
	out := Histogram([]float64{0, 0.1, 0.2, 1, 1.1, 2}, 3)
	assert.Equal(t, 3, len([]rune(out)))

	assert.Empty(t, Histogram(nil, 5))
	assert.NotEmpty(t, Histogram([]float64{1, 1, 1}, 4))
}

func TestHistogram_PeakIsDarkest(t *testing.T) {
	values := []float64{0, 0, 0, 0, 0.5, 1}
	out := []rune(Histogram(values, 2))
	require.Len(t, out, 2)
	assert.True(t, strings.ContainsRune("█", out[0]))
}
