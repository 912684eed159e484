// Package dataset loads observational data from CSV into the immutable
// in-memory form the estimation pipeline consumes.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ipwboot/internal/model"
)

// LoadCSV reads a CSV with a header row and materializes a dataset. The
// caller names the treatment column, the outcome column, and the
// covariate columns; everything else in the file is ignored. Numeric
// covariates are taken as-is; non-numeric covariates are treated as
// categorical and expanded into indicator columns (first level, sorted,
// is the reference and gets no column).
func LoadCSV(path, treatmentVar, outcomeVar string, covariates []string) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv")
	}
	if len(rows) < 2 {
		return nil, &model.InvalidInputError{Reason: "csv has no data rows"}
	}

	header := rows[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(col)] = i
	}

	required := append([]string{treatmentVar, outcomeVar}, covariates...)
	for _, col := range required {
		if _, ok := colIdx[col]; !ok {
			return nil, &model.InvalidInputError{Reason: fmt.Sprintf("missing column %q", col)}
		}
	}
	if treatmentVar == outcomeVar {
		return nil, &model.InvalidInputError{Reason: "treatment and outcome columns must differ"}
	}
	if len(covariates) == 0 {
		return nil, &model.InvalidInputError{Reason: "at least one covariate is required"}
	}

	data := rows[1:]

	// First pass: classify each covariate as numeric or categorical and
	// collect categorical levels.
	numeric := make([]bool, len(covariates))
	levels := make([]map[string]bool, len(covariates))
	for ci, cov := range covariates {
		numeric[ci] = true
		levels[ci] = make(map[string]bool)
		idx := colIdx[cov]
		for _, row := range data {
			val := strings.TrimSpace(row[idx])
			if val == "" {
				return nil, &model.InvalidInputError{Reason: fmt.Sprintf("empty value in covariate %q", cov)}
			}
			if _, perr := strconv.ParseFloat(val, 64); perr != nil {
				numeric[ci] = false
			}
			levels[ci][val] = true
		}
	}

	// Expanded covariate columns: numeric keep their name, categorical
	// become name=level indicators with the first sorted level dropped.
	type expander struct {
		srcIdx  int
		numeric bool
		levels  []string // non-reference levels, sorted
	}
	var expanders []expander
	var names []string
	for ci, cov := range covariates {
		e := expander{srcIdx: colIdx[cov], numeric: numeric[ci]}
		if numeric[ci] {
			names = append(names, cov)
		} else {
			all := make([]string, 0, len(levels[ci]))
			for l := range levels[ci] {
				all = append(all, l)
			}
			sort.Strings(all)
			if len(all) < 2 {
				return nil, &model.InvalidInputError{Reason: fmt.Sprintf("categorical covariate %q has a single level", cov)}
			}
			e.levels = all[1:]
			for _, l := range e.levels {
				names = append(names, cov+"="+l)
			}
		}
		expanders = append(expanders, e)
	}

	ds := &model.Dataset{CovariateNames: names}
	tIdx := colIdx[treatmentVar]
	oIdx := colIdx[outcomeVar]

	for ri, row := range data {
		treated, terr := parseTreatment(row[tIdx])
		if terr != nil {
			return nil, &model.InvalidInputError{Reason: fmt.Sprintf("row %d: %v", ri+1, terr)}
		}

		outcome, oerr := strconv.ParseFloat(strings.TrimSpace(row[oIdx]), 64)
		if oerr != nil {
			return nil, &model.InvalidInputError{Reason: fmt.Sprintf("row %d: outcome %q is not numeric", ri+1, row[oIdx])}
		}

		covs := make([]float64, 0, len(names))
		for _, e := range expanders {
			val := strings.TrimSpace(row[e.srcIdx])
			if e.numeric {
				v, _ := strconv.ParseFloat(val, 64)
				covs = append(covs, v)
				continue
			}
			for _, l := range e.levels {
				if val == l {
					covs = append(covs, 1)
				} else {
					covs = append(covs, 0)
				}
			}
		}

		ds.Records = append(ds.Records, model.Record{
			Treatment:  treated,
			Outcome:    outcome,
			Covariates: covs,
		})
	}

	return ds, nil
}

// parseTreatment accepts the usual encodings of a binary indicator.
func parseTreatment(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		return true, nil
	case "0", "false", "f", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("treatment %q is not binary", s)
}

// WriteCSV writes a dataset to path with the given treatment and outcome
// column names. Used by the simulator; categorical expansion is not
// reversed, covariates are written as their numeric columns.
func WriteCSV(path string, ds *model.Dataset, treatmentVar, outcomeVar string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "dataset: create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{treatmentVar, outcomeVar}, ds.CovariateNames...)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}

	row := make([]string, len(header))
	for _, rec := range ds.Records {
		if rec.Treatment {
			row[0] = "1"
		} else {
			row[0] = "0"
		}
		row[1] = strconv.FormatFloat(rec.Outcome, 'g', -1, 64)
		for i, c := range rec.Covariates {
			row[2+i] = strconv.FormatFloat(c, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "dataset: write row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "dataset: flush csv")
}
