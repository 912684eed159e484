//go:build !integration

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ipwboot/internal/config"
	"github.com/sells-group/ipwboot/internal/model"
	"github.com/sells-group/ipwboot/internal/report"
)

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "age,income", []string{"age", "income"}},
		{"spaces", " age , income ", []string{"age", "income"}},
		{"trailing comma", "age,income,", []string{"age", "income"}},
		{"single", "age", []string{"age"}},
		{"empty", "", nil},
		{"only commas", ",,", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitFields(tt.in))
		})
	}
}

func withTestConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Estimate: config.EstimateConfig{
			Resamples:       500,
			IncludeApparent: true,
			Estimand:        "ate",
			PropensityClip:  1e-6,
			FailurePolicy:   "skip",
			ConfidenceLevel: 0.95,
		},
	}
	t.Cleanup(func() { cfg = prev })
}

func TestSpecFromFlags_Defaults(t *testing.T) {
	withTestConfig(t)
	resetRunFlags(t)

	runTreatment = "treated"
	runOutcome = "y"

	spec := specFromFlags([]string{"age", "income"})

	assert.Equal(t, "treated", spec.TreatmentVar)
	assert.Equal(t, "y", spec.OutcomeVar)
	assert.Equal(t, []string{"age", "income"}, spec.Covariates)
	assert.Equal(t, 500, spec.Resamples)
	assert.True(t, spec.IncludeApparent)
	assert.Equal(t, model.WeightATE, spec.Estimand)
	assert.InDelta(t, 1e-6, spec.PropensityClip, 0)
	assert.Equal(t, model.FailSkip, spec.FailurePolicy)
}

func TestSpecFromFlags_Overrides(t *testing.T) {
	withTestConfig(t)
	resetRunFlags(t)

	runTreatment = "treated"
	runOutcome = "y"
	runResamples = 100
	runEstimand = "ATT"
	runSeed = 42
	runClip = 0.01
	runWeightCap = 10
	runPolicy = "ABORT"
	runConcurrency = 2

	spec := specFromFlags(nil)

	assert.Equal(t, 100, spec.Resamples)
	assert.Equal(t, model.WeightATT, spec.Estimand)
	assert.Equal(t, uint64(42), spec.Seed)
	assert.InDelta(t, 0.01, spec.PropensityClip, 0)
	assert.InDelta(t, 10.0, spec.WeightCap, 0)
	assert.Equal(t, model.FailAbort, spec.FailurePolicy)
	assert.Equal(t, 2, spec.Concurrency)
}

func TestSpecFromFlags_ApparentDisabledByFlag(t *testing.T) {
	withTestConfig(t)
	resetRunFlags(t)

	runApparent = false
	spec := specFromFlags(nil)
	assert.False(t, spec.IncludeApparent)
}

func resetRunFlags(t *testing.T) {
	t.Helper()
	runTreatment, runOutcome = "", ""
	runResamples = 0
	runEstimand = ""
	runSeed = 0
	runApparent = true
	runClip = 0
	runWeightCap = -1
	runPolicy = ""
	runConcurrency = 0
}

func TestWriteResultJSON(t *testing.T) {
	result := &model.RunResult{
		Distribution: model.EstimateDistribution{
			Term: "treated",
			Estimates: []model.Estimate{
				{ResampleID: 0, Value: 1.9, StdErr: 0.2},
				{ResampleID: 1, Value: 2.1, StdErr: 0.2},
			},
		},
		Attempted: 2,
	}
	summary := &report.Summary{Term: "treated", N: 2, Mean: 2.0, Level: 0.95}

	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, writeResultJSON(path, result, summary))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		Summary report.Summary  `json:"summary"`
		Result  model.RunResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "treated", decoded.Summary.Term)
	assert.InDelta(t, 2.0, decoded.Summary.Mean, 0)
	assert.Len(t, decoded.Result.Distribution.Estimates, 2)
}
