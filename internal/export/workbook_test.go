package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestRenderXLSX_SheetsAndHeader(t *testing.T) {
	sheets := []Sheet{
		{Title: "Profile", Header: []string{"Field", "Value"}, Rows: [][]string{{"Name", "Ada"}}},
		{Title: "Attendance: March/April", Header: []string{"Date", "Status"}, Rows: [][]string{{"2024-03-15", "present"}}},
	}
	var buf bytes.Buffer
	if err := Render(&buf, ReportParticipant, sheets, FormatXLSX); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) != 2 || names[0] != "Profile" || names[1] != "Attendance_ March_April" {
		t.Fatalf("unexpected sheets: %v", names)
	}
	rows, err := f.GetRows("Profile")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "Field" || rows[1][1] != "Ada" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	styleID, err := f.GetCellStyle("Profile", "A1")
	if err != nil {
		t.Fatal(err)
	}
	if styleID == 0 {
		t.Fatal("header must be styled")
	}
}

func TestRenderCSV(t *testing.T) {
	one := []Sheet{{Title: "Scores", Header: []string{"Rank", "Name"}, Rows: [][]string{{"1", "Ada, Countess"}}}}
	var buf bytes.Buffer
	if err := Render(&buf, ReportScores, one, FormatCSV); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "Rank,Name\n1,\"Ada, Countess\"\n"; got != want {
		t.Fatalf("csv = %q, want %q", got, want)
	}

	two := append(one, Sheet{Title: "Notes", Header: []string{"Text"}})
	buf.Reset()
	if err := Render(&buf, ReportScores, two, FormatCSV); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Scores" || lines[3] != "" || lines[4] != "Notes" {
		t.Fatalf("sheets must be titled and separated: %q", lines)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if err := Render(&bytes.Buffer{}, ReportScores, nil, "pdf"); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatal("expected an error")
	}
	if f, err := ParseFormat(""); err != nil || f != FormatXLSX {
		t.Fatalf("default format = %q, %v", f, err)
	}
}

func TestNewWorkbook_NeedsSheets(t *testing.T) {
	if _, err := NewWorkbook(nil); err == nil {
		t.Fatal("expected an error")
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	cases := []struct {
		report, qualifier string
		format            Format
		want              string
	}{
		{ReportScores, "", FormatXLSX, "scores_2024-03-15.xlsx"},
		{ReportParticipant, "Ada Lovelace", FormatCSV, "participant_Ada_Lovelace_2024-03-15.csv"},
		{ReportAttendance, "team: a/b", FormatXLSX, "attendance_team__a_b_2024-03-15.xlsx"},
	}
	for _, c := range cases {
		if got := FileName(c.report, c.qualifier, c.format, at); got != c.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", c.report, c.qualifier, got, c.want)
		}
	}
}

func TestColNameAndSheetName(t *testing.T) {
	for n, want := range map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"} {
		if got := colName(n); got != want {
			t.Errorf("colName(%d) = %q, want %q", n, got, want)
		}
	}
	long := strings.Repeat("x", 40)
	if got := sheetName(long, 0); len(got) != 31 {
		t.Errorf("sheet name not truncated: %d", len(got))
	}
	if got := sheetName("", 2); got != "Sheet3" {
		t.Errorf("empty title = %q", got)
	}
}
