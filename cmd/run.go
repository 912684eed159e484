package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ipwboot/internal/dataset"
	"github.com/sells-group/ipwboot/internal/model"
	"github.com/sells-group/ipwboot/internal/pipeline"
	"github.com/sells-group/ipwboot/internal/report"
)

var (
	runCSV         string
	runTreatment   string
	runOutcome     string
	runCovariates  string
	runResamples   int
	runEstimand    string
	runSeed        uint64
	runApparent    bool
	runClip        float64
	runWeightCap   float64
	runPolicy      string
	runConcurrency int
	runOutput      string
	runNoStore     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Estimate a treatment effect from a CSV dataset",
	Long: `Runs the full bootstrap estimation pipeline on a CSV file.

Examples:
  # ATE with 500 resamples and the apparent-sample fit
  ipwboot run --csv trial.csv --treatment treated --outcome y --covariates age,income

  # ATT, reproducible seed, JSON output
  ipwboot run --csv trial.csv --treatment treated --outcome y --covariates age \
    --estimand att --seed 42 --output result.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		covariates := splitFields(runCovariates)
		ds, err := dataset.LoadCSV(runCSV, runTreatment, runOutcome, covariates)
		if err != nil {
			return eris.Wrap(err, "run: load csv")
		}
		zap.L().Info("loaded dataset",
			zap.String("path", runCSV),
			zap.Int("records", ds.Len()),
			zap.Strings("covariates", ds.CovariateNames),
		)

		spec := specFromFlags(covariates)

		result, err := executeRun(ctx, ds, spec)
		if err != nil {
			return err
		}

		summary, err := report.Summarize(result, cfg.Estimate.ConfidenceLevel)
		if err != nil {
			return eris.Wrap(err, "run: summarize")
		}

		fmt.Print(summary.Render())
		if hist := report.Histogram(result.Distribution.Values(), 40); hist != "" {
			fmt.Println("distribution:    " + hist)
		}
		if result.Cancelled {
			fmt.Println("status:          cancelled (partial distribution)")
		}

		if runOutput != "" {
			if err := writeResultJSON(runOutput, result, summary); err != nil {
				return err
			}
			zap.L().Info("wrote result", zap.String("path", runOutput))
		}

		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCSV, "csv", "", "path to the input CSV (required)")
	runCmd.Flags().StringVar(&runTreatment, "treatment", "", "treatment indicator column (required)")
	runCmd.Flags().StringVar(&runOutcome, "outcome", "", "outcome column (required)")
	runCmd.Flags().StringVar(&runCovariates, "covariates", "", "comma-separated covariate columns (required)")
	runCmd.Flags().IntVar(&runResamples, "resamples", 0, "bootstrap resample count (default from config)")
	runCmd.Flags().StringVar(&runEstimand, "estimand", "", "weighting estimand: ate, att, atc, overlap")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "random seed (default from config)")
	runCmd.Flags().BoolVar(&runApparent, "apparent", true, "include the apparent-sample fit")
	runCmd.Flags().Float64Var(&runClip, "clip", 0, "propensity clipping bound in (0,0.5)")
	runCmd.Flags().Float64Var(&runWeightCap, "weight-cap", -1, "truncate weights above this value, 0 disables")
	runCmd.Flags().StringVar(&runPolicy, "policy", "", "fit failure policy: skip or abort")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "worker pool size (default GOMAXPROCS)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "write the full result as JSON to this path")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "skip persisting the run")

	_ = runCmd.MarkFlagRequired("csv")
	_ = runCmd.MarkFlagRequired("treatment")
	_ = runCmd.MarkFlagRequired("outcome")
	_ = runCmd.MarkFlagRequired("covariates")

	rootCmd.AddCommand(runCmd)
}

// executeRun runs the pipeline, persisting run lifecycle to the store
// unless --no-store was given.
func executeRun(ctx context.Context, ds *model.Dataset, spec model.RunSpec) (*model.RunResult, error) {
	if runNoStore {
		return pipeline.Run(ctx, ds, spec)
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	run, err := st.CreateRun(ctx, runCSV, spec)
	if err != nil {
		return nil, eris.Wrap(err, "run: create run record")
	}
	zap.L().Info("created run", zap.String("run_id", run.ID))

	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusFitting); err != nil {
		zap.L().Warn("failed to update run status", zap.Error(err))
	}

	result, err := pipeline.Run(ctx, ds, spec)
	if err != nil {
		// Persist the failure with a background context: the run
		// context may already be cancelled.
		if failErr := st.FailRun(context.WithoutCancel(ctx), run.ID, err.Error()); failErr != nil {
			zap.L().Warn("failed to mark run failed", zap.Error(failErr))
		}
		return nil, err
	}

	if err := st.UpdateRunResult(context.WithoutCancel(ctx), run.ID, result); err != nil {
		zap.L().Warn("failed to save run result", zap.Error(err))
	}

	fmt.Printf("run id:          %s\n", run.ID)
	return result, nil
}

// specFromFlags merges config defaults with explicit CLI flags.
func specFromFlags(covariates []string) model.RunSpec {
	spec := model.RunSpec{
		TreatmentVar:    runTreatment,
		OutcomeVar:      runOutcome,
		Covariates:      covariates,
		Resamples:       cfg.Estimate.Resamples,
		IncludeApparent: runApparent && cfg.Estimate.IncludeApparent,
		Estimand:        model.WeightKind(cfg.Estimate.Estimand),
		PropensityClip:  cfg.Estimate.PropensityClip,
		WeightCap:       cfg.Estimate.WeightCap,
		Seed:            cfg.Estimate.Seed,
		FailurePolicy:   model.FailurePolicy(cfg.Estimate.FailurePolicy),
		Concurrency:     cfg.Estimate.Concurrency,
	}

	if runResamples > 0 {
		spec.Resamples = runResamples
	}
	if runEstimand != "" {
		spec.Estimand = model.WeightKind(strings.ToLower(runEstimand))
	}
	if runSeed != 0 {
		spec.Seed = runSeed
	}
	if runClip > 0 {
		spec.PropensityClip = runClip
	}
	if runWeightCap >= 0 {
		spec.WeightCap = runWeightCap
	}
	if runPolicy != "" {
		spec.FailurePolicy = model.FailurePolicy(strings.ToLower(runPolicy))
	}
	if runConcurrency > 0 {
		spec.Concurrency = runConcurrency
	}

	return spec
}

func splitFields(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeResultJSON(path string, result *model.RunResult, summary *report.Summary) error {
	payload := struct {
		Summary *report.Summary  `json:"summary"`
		Result  *model.RunResult `json:"result"`
	}{summary, result}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "run: create output file")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(payload), "run: encode output")
}
