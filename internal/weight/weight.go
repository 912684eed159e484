// Package weight maps (treatment, propensity) pairs to inverse
// probability case weights for a chosen estimand.
package weight

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ipwboot/internal/model"
)

// Compute returns the case weight for one record. It is a pure function
// of its arguments: no estimand depends on any other record. propensity
// must already be clipped inside (0,1); cap truncates weights above it,
// 0 disables capping.
func Compute(treated bool, propensity float64, estimand model.WeightKind, cap float64) (float64, error) {
	if propensity <= 0 || propensity >= 1 || math.IsNaN(propensity) {
		return 0, eris.Errorf("weight: propensity %g outside (0,1)", propensity)
	}

	var w float64
	switch estimand {
	case model.WeightATE:
		if treated {
			w = 1 / propensity
		} else {
			w = 1 / (1 - propensity)
		}
	case model.WeightATT:
		if treated {
			w = 1
		} else {
			w = propensity / (1 - propensity)
		}
	case model.WeightATC:
		if treated {
			w = (1 - propensity) / propensity
		} else {
			w = 1
		}
	case model.WeightOverlap:
		if treated {
			w = 1 - propensity
		} else {
			w = propensity
		}
	default:
		return 0, eris.Errorf("weight: unknown estimand %q", estimand)
	}

	if cap > 0 && w > cap {
		w = cap
	}
	return w, nil
}

// ForResample computes the weight vector for one resample, aligned with
// resample order.
func ForResample(r *model.Resample, fit *model.PropensityFit, estimand model.WeightKind, cap float64) ([]float64, error) {
	if len(fit.Probabilities) != r.Len() {
		return nil, eris.Errorf("weight: %d propensities for %d records", len(fit.Probabilities), r.Len())
	}

	out := make([]float64, r.Len())
	for i := range out {
		w, err := Compute(r.Record(i).Treatment, fit.Probabilities[i], estimand, cap)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}
