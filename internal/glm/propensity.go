package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/sells-group/ipwboot/internal/model"
)

// InterceptTerm is the name given to the intercept column of every design.
const InterceptTerm = "(intercept)"

// FitPropensity fits the logistic propensity model (treatment on all
// covariates plus intercept) over one resample and returns the fitted
// treatment probabilities in resample order. Probabilities are clipped
// to [clip, 1-clip] so downstream inverse weights stay finite.
func FitPropensity(r *model.Resample, clip float64) (*model.PropensityFit, error) {
	n := r.Len()
	p := len(r.Source.CovariateNames) + 1

	data := make([]float64, n*p)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		rec := r.Record(i)
		data[i*p] = 1
		copy(data[i*p+1:(i+1)*p], rec.Covariates)
		if rec.Treatment {
			y[i] = 1
		}
	}

	res, err := FitLogistic(mat.NewDense(n, p, data), y)
	if err != nil {
		return nil, err
	}

	probs := res.Fitted
	for i, pr := range probs {
		if pr < clip {
			probs[i] = clip
		} else if pr > 1-clip {
			probs[i] = 1 - clip
		}
	}

	return &model.PropensityFit{
		ResampleID:    r.ID,
		Probabilities: probs,
		Iterations:    res.Iterations,
	}, nil
}

// FitOutcome fits the weighted linear outcome model (outcome on
// treatment plus intercept) over one resample, with weights aligned to
// resample order. treatmentTerm labels the treatment coefficient in the
// returned table.
func FitOutcome(r *model.Resample, treatmentTerm string, weights []float64) (*model.OutcomeFit, error) {
	n := r.Len()

	data := make([]float64, n*2)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		rec := r.Record(i)
		data[i*2] = 1
		if rec.Treatment {
			data[i*2+1] = 1
		}
		y[i] = rec.Outcome
	}

	res, err := FitWLS(mat.NewDense(n, 2, data), []string{InterceptTerm, treatmentTerm}, y, weights)
	if err != nil {
		return nil, err
	}

	fit := &model.OutcomeFit{ResampleID: r.ID}
	for _, t := range res.Terms {
		fit.Terms = append(fit.Terms, model.Term{Name: t.Name, Estimate: t.Estimate, StdErr: t.StdErr})
	}
	return fit, nil
}
