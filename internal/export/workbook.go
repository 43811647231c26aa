package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet is one flat table of a report.
type Sheet struct {
	Title  string
	Header []string
	Rows   [][]string
}

type Workbook struct {
	File *excelize.File
}

// NewWorkbook renders every sheet in order; the first one replaces the default "Sheet1".
func NewWorkbook(sheets []Sheet) (*Workbook, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook needs at least one sheet")
	}
	f := excelize.NewFile()
	for i, s := range sheets {
		name := sheetName(s.Title, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", name, err)
		}
		if err := fill(f, name, s); err != nil {
			return nil, err
		}
		if err := applyDefaultFormatting(f, name); err != nil {
			return nil, fmt.Errorf("format sheet %q: %w", name, err)
		}
	}
	return &Workbook{File: f}, nil
}

func fill(f *excelize.File, name string, s Sheet) error {
	for col, h := range s.Header {
		cell := fmt.Sprintf("%s1", colName(col+1))
		if err := f.SetCellStr(name, cell, h); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	for r, row := range s.Rows {
		for c, val := range row {
			cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
			if err := f.SetCellStr(name, cell, val); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func (w *Workbook) Write(out io.Writer) error {
	_, err := w.File.WriteTo(out)
	return err
}

func (w *Workbook) SaveAs(path string) error { return w.File.SaveAs(path) }

func (w *Workbook) Close() error { return w.File.Close() }

// Excel limits sheet names to 31 characters and forbids a few symbols.
func sheetName(title string, i int) string {
	name := invalidSheetRe.ReplaceAllString(title, "_")
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if name == "" {
		name = fmt.Sprintf("Sheet%d", i+1)
	}
	return name
}
