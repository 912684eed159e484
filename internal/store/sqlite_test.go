package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ipwboot/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testSpec() model.RunSpec {
	return model.RunSpec{
		TreatmentVar:   "treated",
		OutcomeVar:     "y",
		Covariates:     []string{"x1", "x2"},
		Resamples:      100,
		Estimand:       model.WeightATE,
		PropensityClip: 1e-6,
		Seed:           7,
		FailurePolicy:  model.FailSkip,
	}
}

func TestSQLite_CreateRun_And_GetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "trial.csv", testSpec())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, fetched.ID)
	assert.Equal(t, "trial.csv", fetched.Dataset)
	assert.Equal(t, testSpec(), fetched.Spec)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "trial.csv", testSpec())
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusFitting))

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFitting, fetched.Status)
}

func TestSQLite_UpdateRunResult(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "trial.csv", testSpec())
	require.NoError(t, err)

	result := &model.RunResult{
		Distribution: model.EstimateDistribution{
			Term: "treated",
			Estimates: []model.Estimate{
				{ResampleID: 0, Value: 2.1, StdErr: 0.3},
				{ResampleID: model.ApparentID, Value: 2.0, StdErr: 0.25},
			},
		},
		Attempted: 2,
	}
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, result))

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, fetched.Status)
	require.NotNil(t, fetched.Result)
	require.Len(t, fetched.Result.Distribution.Estimates, 2)
	assert.InDelta(t, 2.1, fetched.Result.Distribution.Estimates[0].Value, 1e-12)
}

func TestSQLite_UpdateRunResult_Cancelled(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "trial.csv", testSpec())
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunResult(ctx, run.ID, &model.RunResult{Cancelled: true}))

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCancelled, fetched.Status)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "trial.csv", testSpec())
	require.NoError(t, err)

	require.NoError(t, st.FailRun(ctx, run.ID, "propensity fit diverged"))

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, fetched.Status)
	assert.Equal(t, "propensity fit diverged", fetched.Error)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, "a.csv", testSpec())
	require.NoError(t, err)
	b, err := st.CreateRun(ctx, "b.csv", testSpec())
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, b.ID, model.RunStatusComplete))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, b.ID, complete[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_ = a
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), configStore("mysql"))
	require.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	cfg := configStore("sqlite")
	cfg.SQLitePath = filepath.Join(t.TempDir(), "open.db")

	st, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}
