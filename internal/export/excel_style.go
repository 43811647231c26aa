package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// applyDefaultFormatting applies a bold header, an auto-filter on row 1 and an
// approximate auto-width for every populated column.
func applyDefaultFormatting(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return nil
	}
	last := colName(cols)

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last+"1", style)
	}
	_ = f.AutoFilter(sheet, "A1:"+last+"1", nil)

	widths := make([]float64, cols)
	for c := range widths {
		widths[c] = 10
	}
	for rIdx, row := range rows {
		for cIdx, v := range row {
			w := float64(visualLen(v)) * 1.1
			if rIdx == 0 {
				w += 1.5
			}
			widths[cIdx] = max(widths[cIdx], min(w, 60))
		}
	}
	for i, w := range widths {
		col := colName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

// FileName builds "<report>_<qualifier>_<YYYY-MM-DD>.<ext>" with unsafe characters replaced.
func FileName(report, qualifier string, format Format, at time.Time) string {
	parts := []string{report}
	if q := strings.TrimSpace(qualifier); q != "" {
		parts = append(parts, q)
	}
	parts = append(parts, at.Format(time.DateOnly))
	return sanitizeFileName(strings.Join(parts, "_") + "." + string(format))
}

// 1 -> A; 27 -> AA
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

// visualLen approximates text width by counting runes, treating tabs as 4 chars.
func visualLen(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}

var (
	invalidFileRe  = regexp.MustCompile(`[\\/:*?"<>|]+`)
	invalidSheetRe = regexp.MustCompile(`[\\/:*?\[\]]+`)
)

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), "_")
	s = invalidFileRe.ReplaceAllString(s, "_")
	return s
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func fmtFloat(v float64) string { return fmt.Sprintf("%.2f", v) }
