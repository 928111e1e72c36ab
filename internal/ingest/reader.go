package ingest

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"growthcheck/internal/dates"
	"growthcheck/internal/growth"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Options controls how a field sheet is interpreted.
type Options struct {
	// DefaultSex is used when the sex cell is blank or unrecognized.
	DefaultSex growth.Sex
	// Sheet selects a sheet by name; empty means the first sheet.
	Sheet string
}

// Sheet is the typed content of one field sheet.
type Sheet struct {
	Name     string         `json:"name"`
	Schema   Schema         `json:"schema"`
	Children []growth.Child `json:"children"`
	Skipped  int            `json:"skipped_rows"`
}

// ReadFile opens an xlsx workbook from disk.
func ReadFile(path string, opts Options) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return read(f, opts)
}

// Read parses an xlsx workbook from r.
func Read(r io.Reader, opts Options) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook: %w", err)
	}
	defer f.Close()
	return read(f, opts)
}

func read(f *excelize.File, opts Options) (*Sheet, error) {
	name := opts.Sheet
	if name == "" {
		name = f.GetSheetName(0)
	}
	if name == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	// Raw values keep dates as serial numbers instead of locale-formatted text.
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}

	schema, err := DetectSchema(rows)
	if err != nil {
		return nil, err
	}

	children, skipped := ParseRows(rows, schema, opts)
	log.Debug().
		Str("sheet", name).
		Int("header_row", schema.HeaderRow).
		Int("months", len(schema.Blocks)).
		Int("children", len(children)).
		Int("skipped", skipped).
		Msg("Field sheet parsed")

	return &Sheet{Name: name, Schema: schema, Children: children, Skipped: skipped}, nil
}

// ParseRows turns data rows into children using a detected schema. Blank rows are skipped
// and counted; malformed cells degrade to input issues.
func ParseRows(rows [][]string, schema Schema, opts Options) ([]growth.Child, int) {
	defaultSex := opts.DefaultSex
	if !defaultSex.Valid() {
		defaultSex = growth.Male
	}

	var children []growth.Child
	skipped := 0
	for i := schema.DataStart; i < len(rows); i++ {
		row := rows[i]
		if cell(row, colNationalID) == "" && cell(row, colName) == "" && cell(row, colBirthDate) == "" {
			skipped++
			continue
		}
		children = append(children, parseChild(row, i+1, schema, defaultSex))
	}
	return children, skipped
}

func parseChild(row []string, sheetRow int, schema Schema, defaultSex growth.Sex) growth.Child {
	c := growth.Child{
		ID:         fmt.Sprintf("R%d", sheetRow),
		NationalID: cell(row, colNationalID),
		Name:       cell(row, colName),
		BirthDate:  dates.Normalize(cell(row, colBirthDate)),
	}
	if seq, ok := parseNumber(cell(row, colSeq)); ok {
		c.Seq = int(seq)
	}

	if c.NationalID == "" {
		c.InputIssues = append(c.InputIssues, "NIK kosong")
	}
	if c.Name == "" {
		c.InputIssues = append(c.InputIssues, "Nama anak kosong")
	}
	if !c.BirthDate.IsValid {
		c.InputIssues = append(c.InputIssues, fmt.Sprintf("Tanggal lahir tidak valid: %q", c.BirthDate.Original))
	}

	rawSex := cell(row, colSex)
	if sex, ok := growth.ParseSex(rawSex); ok {
		c.Sex = sex
	} else {
		c.Sex = defaultSex
		if rawSex != "" {
			c.InputIssues = append(c.InputIssues, fmt.Sprintf("Jenis kelamin tidak dikenal: %q, dianggap %s", rawSex, defaultSex))
		}
	}

	for _, b := range schema.Blocks {
		raw, issues := readBlock(row, b)
		c.InputIssues = append(c.InputIssues, issues...)
		if (raw.HasSheetAge && raw.SheetAge > 0) || raw.WeightKg > 0 || raw.HeightCm > 0 || raw.Date.IsValid {
			c.Measurements = append(c.Measurements, c.NewMeasurement(raw))
		}
	}
	return c
}

func readBlock(row []string, b MonthBlock) (growth.RawMeasurement, []string) {
	raw := growth.RawMeasurement{
		Month:  b.Month,
		Date:   dates.Normalize(cell(row, b.Date)),
		Method: cell(row, b.Method),
	}
	var issues []string

	if v := cell(row, b.Age); v != "" {
		if age, ok := parseNumber(v); ok && age >= 0 {
			raw.SheetAge, raw.HasSheetAge = int(age), true
		} else {
			issues = append(issues, fmt.Sprintf("Umur tidak numerik pada bulan %s: %q", b.Month, v))
		}
	}
	if v := cell(row, b.Weight); v != "" {
		if w, ok := parseNumber(v); ok {
			raw.WeightKg = w
		} else {
			issues = append(issues, fmt.Sprintf("Berat tidak numerik pada bulan %s: %q", b.Month, v))
		}
	}
	if v := cell(row, b.Height); v != "" {
		if h, ok := parseNumber(v); ok {
			raw.HeightCm = h
		} else {
			issues = append(issues, fmt.Sprintf("Tinggi tidak numerik pada bulan %s: %q", b.Month, v))
		}
	}
	if v := cell(row, b.Date); v != "" && !raw.Date.IsValid {
		issues = append(issues, fmt.Sprintf("Tanggal ukur tidak valid pada bulan %s: %q", b.Month, v))
	}
	return raw, issues
}

// parseNumber accepts a decimal point or a decimal comma.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
