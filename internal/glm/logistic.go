// Package glm fits the two regression models the estimation pipeline
// needs: a logistic propensity model and a weighted linear outcome model.
// Both reduce their model objects to numeric output immediately; nothing
// downstream holds a live fit.
package glm

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotConverged reports that IRLS exhausted its iteration limit,
	// typically a symptom of perfect separation.
	ErrNotConverged = eris.New("glm: irls did not converge")
	// ErrRankDeficient reports a singular weighted normal matrix.
	ErrRankDeficient = eris.New("glm: rank-deficient design")
	// ErrZeroWeights reports that every case weight is zero.
	ErrZeroWeights = eris.New("glm: all case weights are zero")
)

const (
	irlsMaxIter = 50
	irlsTol     = 1e-8
	// muFloor keeps the IRLS working weights away from exact zero.
	muFloor = 1e-10
)

// LogisticResult holds the reduced output of one logistic fit.
type LogisticResult struct {
	Coefs      []float64
	Fitted     []float64 // fitted probabilities, row order of the design
	Iterations int
}

// FitLogistic fits a binomial GLM with logit link by iteratively
// reweighted least squares. x is the n×p design (intercept column
// included by the caller), y the 0/1 response.
func FitLogistic(x *mat.Dense, y []float64) (*LogisticResult, error) {
	n, p := x.Dims()
	if len(y) != n {
		return nil, eris.Errorf("glm: response length %d does not match design rows %d", len(y), n)
	}
	if n < p {
		return nil, eris.Wrap(ErrRankDeficient, "glm: fewer rows than parameters")
	}

	beta := make([]float64, p)
	eta := make([]float64, n)
	mu := make([]float64, n)
	w := make([]float64, n)
	z := make([]float64, n)

	for iter := 1; iter <= irlsMaxIter; iter++ {
		for i := 0; i < n; i++ {
			e := 0.0
			for j := 0; j < p; j++ {
				e += x.At(i, j) * beta[j]
			}
			eta[i] = e
			m := 1 / (1 + math.Exp(-e))
			if m < muFloor {
				m = muFloor
			} else if m > 1-muFloor {
				m = 1 - muFloor
			}
			mu[i] = m
			w[i] = m * (1 - m)
			z[i] = e + (y[i]-m)/w[i]
		}

		next, err := solveWeightedNormal(x, z, w)
		if err != nil {
			return nil, err
		}

		delta := 0.0
		for j := 0; j < p; j++ {
			if d := math.Abs(next[j] - beta[j]); d > delta {
				delta = d
			}
		}
		copy(beta, next)

		if delta < irlsTol {
			return &LogisticResult{Coefs: beta, Fitted: fittedProbs(x, beta), Iterations: iter}, nil
		}
	}

	return nil, eris.Wrap(ErrNotConverged, "glm: logistic fit")
}

func fittedProbs(x *mat.Dense, beta []float64) []float64 {
	n, p := x.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		e := 0.0
		for j := 0; j < p; j++ {
			e += x.At(i, j) * beta[j]
		}
		out[i] = 1 / (1 + math.Exp(-e))
	}
	return out
}

// solveWeightedNormal solves (XᵀWX)β = XᵀWz for diagonal W.
func solveWeightedNormal(x *mat.Dense, z, w []float64) ([]float64, error) {
	n, p := x.Dims()

	a := make([]float64, p*p)
	b := make([]float64, p)
	for i := 0; i < n; i++ {
		wi := w[i]
		if wi == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			xij := x.At(i, j)
			b[j] += wi * xij * z[i]
			for k := j; k < p; k++ {
				a[j*p+k] += wi * xij * x.At(i, k)
			}
		}
	}
	// Mirror the upper triangle.
	for j := 0; j < p; j++ {
		for k := j + 1; k < p; k++ {
			a[k*p+j] = a[j*p+k]
		}
	}

	sym := mat.NewSymDense(p, a)
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, eris.Wrap(ErrRankDeficient, "glm: factorize weighted normal matrix")
	}

	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, mat.NewVecDense(p, b)); err != nil {
		return nil, eris.Wrap(ErrRankDeficient, "glm: solve weighted normal system")
	}

	out := make([]float64, p)
	for j := 0; j < p; j++ {
		out[j] = sol.AtVec(j)
	}
	return out, nil
}
