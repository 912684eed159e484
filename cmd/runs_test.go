//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/ipwboot/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:      "abc12345-6789-0000-0000-000000000000",
			Dataset: "trial.csv",
			Status:  model.RunStatusComplete,
			Result: &model.RunResult{
				Attempted: 500,
				Skipped:   3,
			},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Dataset:   "synthetic.csv",
			Status:    model.RunStatusFitting,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "DATASET")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "trial.csv")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "500")
	assert.Contains(t, output, "synthetic.csv")
	assert.Contains(t, output, "fitting")
	assert.Contains(t, output, "2026-08-15 10:30:00")
	assert.Contains(t, output, "abc12345")
}

func TestFormatRunsList_NoResult(t *testing.T) {
	runs := []model.Run{
		{
			ID:      "abc12345-6789-0000-0000-000000000000",
			Dataset: "trial.csv",
			Status:  model.RunStatusFailed,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	assert.Contains(t, buf.String(), "-")
	assert.Contains(t, buf.String(), "failed")
}
