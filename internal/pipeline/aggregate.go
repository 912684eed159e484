package pipeline

import (
	"github.com/sells-group/ipwboot/internal/model"
)

// Aggregate extracts the coefficient for term from each outcome fit,
// preserving fit order. A fit without the term is an internal contract
// violation and returns a *model.MissingTermError.
func Aggregate(fits []model.OutcomeFit, term string) (model.EstimateDistribution, error) {
	dist := model.EstimateDistribution{Term: term}

	for i := range fits {
		t, ok := fits[i].Term(term)
		if !ok {
			return model.EstimateDistribution{}, &model.MissingTermError{
				ResampleID: fits[i].ResampleID,
				Term:       term,
			}
		}
		dist.Estimates = append(dist.Estimates, model.Estimate{
			ResampleID: fits[i].ResampleID,
			Value:      t.Estimate,
			StdErr:     t.StdErr,
		})
	}

	return dist, nil
}
