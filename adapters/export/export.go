package export

import (
	"regsim/internal/errors"
	"regsim/ports"
)

// ForFormat returns the result writer for an export format. The
// format "none" disables exports and returns a nil writer.
func ForFormat(format, dir string) (ports.ResultWriter, error) {
	switch format {
	case "xlsx":
		return NewXLSXWriter(dir), nil
	case "csv":
		return NewCSVWriter(dir), nil
	case "none", "":
		return nil, nil
	default:
		return nil, errors.ConfigInvalid("unknown export format: " + format)
	}
}
