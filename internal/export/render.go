package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/metrics"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatXLSX, FormatCSV:
		return Format(s), nil
	case "":
		return FormatXLSX, nil
	}
	return "", apperr.Invalid("format", "format must be xlsx or csv")
}

// Render writes the report sheets to out. CSV output places the sheets one after
// another, each prefixed by its title when there is more than one.
func Render(out io.Writer, report string, sheets []Sheet, format Format) error {
	var err error
	switch format {
	case FormatXLSX:
		err = renderXLSX(out, sheets)
	case FormatCSV:
		err = renderCSV(out, sheets)
	default:
		return apperr.Invalid("format", "format must be xlsx or csv")
	}
	if err != nil {
		return err
	}
	metrics.Exports.WithLabelValues(report, string(format)).Inc()
	return nil
}

func renderXLSX(out io.Writer, sheets []Sheet) error {
	wb, err := NewWorkbook(sheets)
	if err != nil {
		return err
	}
	defer func() { _ = wb.Close() }()
	return wb.Write(out)
}

func renderCSV(out io.Writer, sheets []Sheet) error {
	w := csv.NewWriter(out)
	for i, s := range sheets {
		if len(sheets) > 1 {
			if i > 0 {
				if err := w.Write([]string{}); err != nil {
					return err
				}
			}
			if err := w.Write([]string{s.Title}); err != nil {
				return err
			}
		}
		if err := w.Write(s.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := w.WriteAll(s.Rows); err != nil {
			return fmt.Errorf("write rows: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
