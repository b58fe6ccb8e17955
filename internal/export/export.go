// Package export writes sweep data as CSV.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/verte-zerg/bjtsim/internal/bjt"
)

var header = []string{"Measurement Type", "X Value", "Y Value"}

// WriteCSV writes one row per sample, labelled with the sweep kind and its
// held-constant value, for example "Input (VCE=5V)".
func WriteCSV(w io.Writer, sweeps ...bjt.SweepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, sw := range sweeps {
		label := sw.Label()
		for _, pt := range sw.Data {
			row := []string{label, formatFloat(pt.X), formatFloat(pt.Y)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName returns the export file name for a part and date.
func FileName(device string, date time.Time) string {
	return fmt.Sprintf("bjt_data_%s_%s.csv", device, date.Format("2006-01-02"))
}

// WriteFile writes the sweeps to dir/FileName(device, date) and returns the
// path. The file is replaced atomically.
func WriteFile(dir, device string, date time.Time, sweeps ...bjt.SweepResult) (string, error) {
	if len(sweeps) == 0 {
		return "", fmt.Errorf("no sweeps to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(device, date))
	tmpFile, err := os.CreateTemp(dir, "bjt-export-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := WriteCSV(writer, sweeps...); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
