package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"regsim/domain/simulation"
	"regsim/internal/errors"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// XLSXWriter serializes a run to a two-sheet workbook: trial results
// in trial order, plus a summary sheet with the parameter tuple and
// run fingerprint.
type XLSXWriter struct {
	dir string
}

// NewXLSXWriter creates an Excel writer rooted at the given directory
func NewXLSXWriter(dir string) *XLSXWriter {
	return &XLSXWriter{dir: dir}
}

// Write produces <dir>/<derived name>.xlsx and returns the full path
func (w *XLSXWriter) Write(ctx context.Context, exp *simulation.Experiment, results simulation.ResultSet) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.ExportError("failed to create export directory", err)
	}

	path := filepath.Join(w.dir, exp.Params.OutputName()+".xlsx")

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return "", errors.ExportError("failed to name results sheet", err)
	}

	header := []interface{}{"trial", "slope", "intercept", "residual_variance"}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return "", errors.ExportError("failed to write header row", err)
	}

	for i := 0; i < results.Len(); i++ {
		tr := results.At(i)
		row := []interface{}{i, tr.Slope, tr.Intercept, tr.ResidualVariance}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return "", errors.ExportError(fmt.Sprintf("failed to write trial row %d", i), err)
		}
	}

	if err := w.writeSummarySheet(f, exp, results); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		return "", errors.ExportError("failed to save workbook", err)
	}

	return path, nil
}

func (w *XLSXWriter) writeSummarySheet(f *excelize.File, exp *simulation.Experiment, results simulation.ResultSet) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return errors.ExportError("failed to create summary sheet", err)
	}

	rows := [][]interface{}{
		{"experiment_id", exp.ID.String()},
		{"slope_true", exp.Params.SlopeTrue},
		{"intercept_true", exp.Params.InterceptTrue},
		{"sigma", exp.Params.Sigma},
		{"observations", exp.Params.N()},
		{"seed", exp.Seed},
		{"trials", results.Len()},
		{"workers", exp.Workers},
		{"fingerprint", string(results.Fingerprint())},
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return errors.ExportError("failed to write summary row", err)
		}
	}

	return nil
}
