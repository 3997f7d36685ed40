package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"regsim/domain/simulation"
	"regsim/internal/errors"
)

// CSVWriter serializes trial results to a flat CSV file, one row per
// trial in trial order. Floats are written at full precision so the
// file round-trips bit for bit.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a CSV writer rooted at the given directory
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Write produces <dir>/<derived name>.csv and returns the full path.
// A zero-trial run still produces a file with the header row.
func (w *CSVWriter) Write(ctx context.Context, exp *simulation.Experiment, results simulation.ResultSet) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.ExportError("failed to create export directory", err)
	}

	path := filepath.Join(w.dir, exp.Params.OutputName()+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", errors.ExportError("failed to create export file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := append([]string{"trial"}, simulation.ResultColumns[:]...)
	if err := writer.Write(header); err != nil {
		return "", errors.ExportError("failed to write header", err)
	}

	for i := 0; i < results.Len(); i++ {
		tr := results.At(i)
		record := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(tr.Slope, 'g', -1, 64),
			strconv.FormatFloat(tr.Intercept, 'g', -1, 64),
			strconv.FormatFloat(tr.ResidualVariance, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return "", errors.ExportError("failed to write trial row", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", errors.ExportError("failed to flush export file", err)
	}

	return path, nil
}
