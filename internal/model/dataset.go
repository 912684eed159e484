package model

// ApparentID tags the distinguished resample that is the unperturbed
// source dataset itself, included for bias correction.
const ApparentID = -1

// Record is one row of observational data: a binary treatment indicator,
// a numeric outcome, and the covariates used to model treatment assignment.
// Records are immutable once loaded.
type Record struct {
	Treatment  bool      `json:"treatment"`
	Outcome    float64   `json:"outcome"`
	Covariates []float64 `json:"covariates"`
}

// Dataset is an ordered collection of records sharing one schema.
type Dataset struct {
	CovariateNames []string `json:"covariate_names"`
	Records        []Record `json:"records"`
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// Resample is a dataset-shaped draw (with replacement) from a source
// dataset, tagged with its resample identifier. ID is 0..B-1 for
// bootstrap resamples and ApparentID for the unperturbed original.
// Indices point into the source dataset's record slice; a resample never
// copies record values.
type Resample struct {
	ID      int
	Source  *Dataset
	Indices []int
}

// Len returns the number of records in the resample.
func (r *Resample) Len() int { return len(r.Indices) }

// Record returns the i-th record of the resample.
func (r *Resample) Record(i int) Record { return r.Source.Records[r.Indices[i]] }

// IsApparent reports whether this resample is the unperturbed source dataset.
func (r *Resample) IsApparent() bool { return r.ID == ApparentID }

// PropensityFit maps each record position in one resample to its fitted
// treatment probability. Probabilities are already clipped away from 0 and 1.
type PropensityFit struct {
	ResampleID    int       `json:"resample_id"`
	Probabilities []float64 `json:"probabilities"`
	Iterations    int       `json:"iterations"`
}

// Term is one row of a fitted model's coefficient table.
type Term struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
}

// OutcomeFit is the coefficient table of one resample's weighted outcome
// regression: exactly one Term per column of the linear predictor.
type OutcomeFit struct {
	ResampleID int    `json:"resample_id"`
	Terms      []Term `json:"terms"`
}

// Term returns the named term, or false if the fit does not contain it.
func (f *OutcomeFit) Term(name string) (Term, bool) {
	for _, t := range f.Terms {
		if t.Name == name {
			return t, true
		}
	}
	return Term{}, false
}

// Estimate is one treatment-effect estimate drawn from one resample's fit.
type Estimate struct {
	ResampleID int     `json:"resample_id"`
	Value      float64 `json:"value"`
	StdErr     float64 `json:"std_err"`
}

// EstimateDistribution is the ordered collection of per-resample
// treatment-effect estimates, the end artifact of a run. Bootstrap
// estimates come first in resample-index order; the apparent estimate,
// when requested, is appended last.
type EstimateDistribution struct {
	Term      string     `json:"term"`
	Estimates []Estimate `json:"estimates"`
}

// Values returns the bootstrap estimate values in resample order,
// excluding the apparent estimate.
func (d *EstimateDistribution) Values() []float64 {
	vals := make([]float64, 0, len(d.Estimates))
	for _, e := range d.Estimates {
		if e.ResampleID == ApparentID {
			continue
		}
		vals = append(vals, e.Value)
	}
	return vals
}

// Apparent returns the apparent-sample estimate, or false if the run did
// not include one.
func (d *EstimateDistribution) Apparent() (Estimate, bool) {
	for _, e := range d.Estimates {
		if e.ResampleID == ApparentID {
			return e, true
		}
	}
	return Estimate{}, false
}
