package glm

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// WLSTerm is one coefficient of a weighted least squares fit.
type WLSTerm struct {
	Name     string
	Estimate float64
	StdErr   float64
}

// WLSResult holds the reduced output of one weighted linear fit.
type WLSResult struct {
	Terms []WLSTerm
}

// FitWLS fits a linear model of y on the n×p design x by weighted least
// squares with non-negative case weights. names labels the design
// columns and must have length p. Zero-weight rows contribute nothing
// but are legal; a run of entirely zero weights is not.
func FitWLS(x *mat.Dense, names []string, y, weights []float64) (*WLSResult, error) {
	n, p := x.Dims()
	if len(y) != n {
		return nil, eris.Errorf("glm: response length %d does not match design rows %d", len(y), n)
	}
	if len(weights) != n {
		return nil, eris.Errorf("glm: weight length %d does not match design rows %d", len(weights), n)
	}
	if len(names) != p {
		return nil, eris.Errorf("glm: %d term names for %d design columns", len(names), p)
	}

	sumW := 0.0
	nonzero := 0
	for i, w := range weights {
		if w < 0 || math.IsInf(w, 0) || math.IsNaN(w) {
			return nil, eris.Errorf("glm: weight %g at row %d is not a finite non-negative value", w, i)
		}
		if w > 0 {
			nonzero++
		}
		sumW += w
	}
	if sumW == 0 {
		return nil, eris.Wrap(ErrZeroWeights, "glm: linear fit")
	}
	if nonzero <= p {
		return nil, eris.Wrap(ErrRankDeficient, "glm: not enough weighted rows")
	}

	beta, err := solveWeightedNormal(x, y, weights)
	if err != nil {
		return nil, err
	}

	// Weighted residual variance on the effective sample.
	rss := 0.0
	for i := 0; i < n; i++ {
		if weights[i] == 0 {
			continue
		}
		fit := 0.0
		for j := 0; j < p; j++ {
			fit += x.At(i, j) * beta[j]
		}
		r := y[i] - fit
		rss += weights[i] * r * r
	}
	sigma2 := rss / float64(nonzero-p)

	cov, err := weightedNormalInverse(x, weights)
	if err != nil {
		return nil, err
	}

	terms := make([]WLSTerm, p)
	for j := 0; j < p; j++ {
		terms[j] = WLSTerm{
			Name:     names[j],
			Estimate: beta[j],
			StdErr:   math.Sqrt(sigma2 * cov.At(j, j)),
		}
	}
	return &WLSResult{Terms: terms}, nil
}

// weightedNormalInverse computes (XᵀWX)⁻¹ for diagonal W.
func weightedNormalInverse(x *mat.Dense, w []float64) (*mat.SymDense, error) {
	n, p := x.Dims()

	a := make([]float64, p*p)
	for i := 0; i < n; i++ {
		wi := w[i]
		if wi == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			xij := x.At(i, j)
			for k := j; k < p; k++ {
				a[j*p+k] += wi * xij * x.At(i, k)
			}
		}
	}
	for j := 0; j < p; j++ {
		for k := j + 1; k < p; k++ {
			a[k*p+j] = a[j*p+k]
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(p, a)); !ok {
		return nil, eris.Wrap(ErrRankDeficient, "glm: factorize for covariance")
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, eris.Wrap(ErrRankDeficient, "glm: invert weighted normal matrix")
	}
	return &inv, nil
}
