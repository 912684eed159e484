// Package pipeline orchestrates the bootstrap estimation run: resample,
// fit a propensity model, weight, fit the outcome model per resample,
// and aggregate treatment-effect estimates into a distribution.
package pipeline

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ipwboot/internal/glm"
	"github.com/sells-group/ipwboot/internal/model"
	"github.com/sells-group/ipwboot/internal/resample"
	"github.com/sells-group/ipwboot/internal/weight"
)

// Run executes the full estimation pipeline. Per-resample fits are
// independent and run concurrently; the returned distribution is always
// in resample-index order (apparent last) regardless of completion
// order. Under the skip failure policy, failed resamples are excluded
// and counted in the result; under abort, the first failure ends the
// run with a *model.FitFailureError. A cancelled context ends the run
// early with the estimates completed so far and Cancelled set.
func Run(ctx context.Context, ds *model.Dataset, spec model.RunSpec) (*model.RunResult, error) {
	if err := validateSpec(ds, spec); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.Int("resamples", spec.Resamples),
		zap.String("estimand", string(spec.Estimand)),
		zap.Uint64("seed", spec.Seed),
	)
	log.Info("pipeline: starting run", zap.Int("records", ds.Len()))
	start := time.Now()

	resamples, err := resample.Draw(ds, spec.Resamples, spec.IncludeApparent, spec.Seed)
	if err != nil {
		return nil, err
	}

	concurrency := spec.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	fits := make([]*model.OutcomeFit, len(resamples))
	var mu sync.Mutex
	var failures []model.FitFailure
	attempted := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range resamples {
		// Cooperative cancellation checkpoint: stop scheduling new
		// resamples once the context is done, keep completed work.
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			fit, fitErr := fitResample(&resamples[i], spec)

			mu.Lock()
			defer mu.Unlock()
			attempted++

			if fitErr == nil {
				fits[i] = fit
				return nil
			}

			var ff *model.FitFailureError
			if !errors.As(fitErr, &ff) {
				return fitErr
			}
			if spec.FailurePolicy == model.FailAbort {
				return fitErr
			}
			failures = append(failures, model.FitFailure{
				ResampleID: ff.ResampleID,
				Stage:      ff.Stage,
				Reason:     ff.Reason,
			})
			log.Warn("pipeline: resample excluded",
				zap.Int("resample", ff.ResampleID),
				zap.String("stage", ff.Stage),
				zap.String("reason", ff.Reason),
			)
			return nil
		})
	}

	waitErr := g.Wait()
	cancelled := ctx.Err() != nil
	if waitErr != nil && !cancelled {
		return nil, waitErr
	}

	// Index order of the fits slice preserves resample order no matter
	// which worker finished first.
	var completed []model.OutcomeFit
	for _, f := range fits {
		if f != nil {
			completed = append(completed, *f)
		}
	}

	dist, err := Aggregate(completed, spec.TreatmentVar)
	if err != nil {
		return nil, err
	}

	result := &model.RunResult{
		Distribution: dist,
		Attempted:    attempted,
		Skipped:      len(failures),
		Failures:     failures,
		Cancelled:    cancelled,
		Elapsed:      time.Since(start),
	}

	log.Info("pipeline: run finished",
		zap.Int("attempted", attempted),
		zap.Int("skipped", len(failures)),
		zap.Bool("cancelled", cancelled),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// fitResample runs the two-stage fit for one resample. All model
// artifacts are reduced to numbers before returning.
func fitResample(r *model.Resample, spec model.RunSpec) (*model.OutcomeFit, error) {
	pfit, err := glm.FitPropensity(r, spec.PropensityClip)
	if err != nil {
		return nil, &model.FitFailureError{ResampleID: r.ID, Stage: "propensity", Reason: err.Error()}
	}

	weights, err := weight.ForResample(r, pfit, spec.Estimand, spec.WeightCap)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: compute weights")
	}

	ofit, err := glm.FitOutcome(r, spec.TreatmentVar, weights)
	if err != nil {
		return nil, &model.FitFailureError{ResampleID: r.ID, Stage: "outcome", Reason: err.Error()}
	}
	return ofit, nil
}

func validateSpec(ds *model.Dataset, spec model.RunSpec) error {
	if ds == nil || ds.Len() == 0 {
		return &model.InvalidInputError{Reason: "dataset is empty"}
	}
	if spec.Resamples < 1 {
		return &model.InvalidInputError{Reason: "resamples must be at least 1"}
	}
	if spec.TreatmentVar == "" {
		return &model.InvalidInputError{Reason: "treatment variable is required"}
	}
	if spec.PropensityClip <= 0 || spec.PropensityClip >= 0.5 {
		return &model.InvalidInputError{Reason: "propensity clip must lie in (0, 0.5)"}
	}
	if spec.WeightCap < 0 {
		return &model.InvalidInputError{Reason: "weight cap must be non-negative"}
	}
	switch spec.Estimand {
	case model.WeightATE, model.WeightATT, model.WeightATC, model.WeightOverlap:
	default:
		return &model.InvalidInputError{Reason: "unknown estimand " + string(spec.Estimand)}
	}
	switch spec.FailurePolicy {
	case model.FailAbort, model.FailSkip:
	default:
		return &model.InvalidInputError{Reason: "unknown failure policy " + string(spec.FailurePolicy)}
	}
	return nil
}
