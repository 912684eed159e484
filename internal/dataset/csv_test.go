package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ipwboot/internal/model"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV_Numeric(t *testing.T) {
	path := writeTemp(t, `id,treated,y,age,income
1,1,2.5,34,51000
2,0,0.1,29,48000
3,true,3.0,41,62000
4,no,-0.4,55,39000
`)

	ds, err := LoadCSV(path, "treated", "y", []string{"age", "income"})
	require.NoError(t, err)

	require.Equal(t, 4, ds.Len())
	assert.Equal(t, []string{"age", "income"}, ds.CovariateNames)

	assert.True(t, ds.Records[0].Treatment)
	assert.False(t, ds.Records[1].Treatment)
	assert.True(t, ds.Records[2].Treatment)
	assert.False(t, ds.Records[3].Treatment)

	assert.InDelta(t, 2.5, ds.Records[0].Outcome, 1e-12)
	assert.InDelta(t, -0.4, ds.Records[3].Outcome, 1e-12)
	assert.InDeltaSlice(t, []float64{34, 51000}, ds.Records[0].Covariates, 1e-12)
}

func TestLoadCSV_CategoricalExpansion(t *testing.T) {
	path := writeTemp(t, `treated,y,region
1,1.0,west
0,2.0,east
1,3.0,north
0,4.0,west
`)

	ds, err := LoadCSV(path, "treated", "y", []string{"region"})
	require.NoError(t, err)

	// Sorted levels: east, north, west; east is the reference.
	assert.Equal(t, []string{"region=north", "region=west"}, ds.CovariateNames)
	assert.InDeltaSlice(t, []float64{0, 1}, ds.Records[0].Covariates, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0}, ds.Records[1].Covariates, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0}, ds.Records[2].Covariates, 1e-12)
}

func TestLoadCSV_MissingColumn(t *testing.T) {
	path := writeTemp(t, "a,b\n1,2\n")

	_, err := LoadCSV(path, "treated", "y", []string{"a"})
	var invalid *model.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestLoadCSV_NonBinaryTreatment(t *testing.T) {
	path := writeTemp(t, "treated,y,x\n2,1.0,0.5\n")

	_, err := LoadCSV(path, "treated", "y", []string{"x"})
	var invalid *model.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), "not binary")
}

func TestLoadCSV_NonNumericOutcome(t *testing.T) {
	path := writeTemp(t, "treated,y,x\n1,high,0.5\n0,1.0,0.2\n")

	_, err := LoadCSV(path, "treated", "y", []string{"x"})
	var invalid *model.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestLoadCSV_NoDataRows(t *testing.T) {
	path := writeTemp(t, "treated,y,x\n")

	_, err := LoadCSV(path, "treated", "y", []string{"x"})
	var invalid *model.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestLoadCSV_NoCovariates(t *testing.T) {
	path := writeTemp(t, "treated,y\n1,1.0\n")

	_, err := LoadCSV(path, "treated", "y", nil)
	var invalid *model.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	ds := &model.Dataset{
		CovariateNames: []string{"x1", "x2"},
		Records: []model.Record{
			{Treatment: true, Outcome: 1.5, Covariates: []float64{0.1, -2}},
			{Treatment: false, Outcome: -0.25, Covariates: []float64{3, 4.5}},
		},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, ds, "treated", "y"))

	got, err := LoadCSV(path, "treated", "y", []string{"x1", "x2"})
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}
