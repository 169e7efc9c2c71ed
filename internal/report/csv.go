package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/famomatic/totalsize/client"
)

// ErrCSVFile indicates the CSV export path cannot be used.
var ErrCSVFile = errors.New("csv file error")

// CheckCSVPath verifies a new file can be created at path without leaving
// it behind. It runs before extraction so a bad path fails fast.
func CheckCSVPath(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return csvError(err)
	}
	f.Close()
	return os.Remove(path)
}

// WriteCSV writes one row per entry: title and size, plus duration, views,
// likes, dislikes and like ratio when more is set. Unknown values are empty.
// The file must not exist yet.
func WriteCSV(path string, entries []*client.Entry, more bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return csvError(err)
	}

	w := csv.NewWriter(f)
	for _, e := range entries {
		row := []string{e.Title, intCell(e.Size)}
		if more {
			ratio := ""
			if p, ok := e.LikesPercentage(); ok {
				ratio = strconv.FormatFloat(p, 'f', -1, 64)
			}
			dur := ""
			if e.Duration != nil {
				dur = FormatSeconds(*e.Duration)
			}
			row = append(row, dur, intCell(e.Views), intCell(e.Likes), intCell(e.Dislikes), ratio)
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("%w: %w", ErrCSVFile, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", ErrCSVFile, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrCSVFile, err)
	}
	return nil
}

func csvError(err error) error {
	switch {
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: file already exists", ErrCSVFile)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: insufficient file permissions", ErrCSVFile)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: invalid path", ErrCSVFile)
	default:
		return fmt.Errorf("%w: %w", ErrCSVFile, err)
	}
}

func intCell(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
