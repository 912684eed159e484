package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/ipwboot/internal/model"
	"github.com/sells-group/ipwboot/internal/report"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run's distribution and summary to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "export: get run")
		}
		if run.Result == nil {
			return eris.Errorf("export: run %s has no result", run.ID)
		}

		summary, err := report.Summarize(run.Result, cfg.Estimate.ConfidenceLevel)
		if err != nil {
			return eris.Wrap(err, "export: summarize")
		}

		if err := writeWorkbook(exportOutput, run, summary); err != nil {
			return err
		}

		fmt.Printf("exported run %s to %s\n", run.ID, exportOutput)
		return nil
	},
}

// writeWorkbook lays out one Summary sheet and one Distribution sheet.
func writeWorkbook(path string, run *model.Run, summary *report.Summary) error {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	addPair := func(key string, value any) {
		row := sheet.AddRow()
		row.AddCell().Value = key
		switch v := value.(type) {
		case string:
			row.AddCell().Value = v
		case int:
			row.AddCell().SetInt(v)
		case float64:
			row.AddCell().SetFloat(v)
		}
	}

	addPair("run id", run.ID)
	addPair("dataset", run.Dataset)
	addPair("term", summary.Term)
	addPair("resamples", summary.N)
	addPair("attempted", summary.Attempted)
	addPair("skipped", summary.Skipped)
	addPair("mean", summary.Mean)
	addPair("sd", summary.SD)
	addPair(fmt.Sprintf("%.0f%% lower", summary.Level*100), summary.Lower)
	addPair(fmt.Sprintf("%.0f%% upper", summary.Level*100), summary.Upper)
	if summary.HasApparent {
		addPair("apparent", summary.Apparent)
		addPair("bias corrected", summary.BiasCorrected)
	}

	dist, err := file.AddSheet("Distribution")
	if err != nil {
		return eris.Wrap(err, "export: add distribution sheet")
	}

	header := dist.AddRow()
	header.AddCell().Value = "resample"
	header.AddCell().Value = "estimate"
	header.AddCell().Value = "std_err"

	for _, e := range run.Result.Distribution.Estimates {
		row := dist.AddRow()
		if e.ResampleID == model.ApparentID {
			row.AddCell().Value = "apparent"
		} else {
			row.AddCell().Value = strconv.Itoa(e.ResampleID)
		}
		row.AddCell().SetFloat(e.Value)
		row.AddCell().SetFloat(e.StdErr)
	}

	return eris.Wrap(file.Save(path), "export: save workbook")
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "run.xlsx", "output spreadsheet path")
	rootCmd.AddCommand(exportCmd)
}
