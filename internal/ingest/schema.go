package ingest

import (
	"errors"
	"fmt"
	"strings"

	"growthcheck/internal/growth"
)

// ErrNoHeader means no month header row was found; the whole workbook is rejected.
var ErrNoHeader = errors.New("no month header row found")

// headerScanRows bounds the search for the month header.
const headerScanRows = 10

// Identity columns, in sheet order.
const (
	colSeq = iota
	colNationalID
	colName
	colBirthDate
	colSex
)

// MonthBlock locates the five data columns of one month. Columns are 0-based.
type MonthBlock struct {
	Month  string `json:"month"`
	Header int    `json:"header_column"`
	Date   int    `json:"date_column"`
	Age    int    `json:"age_column"`
	Weight int    `json:"weight_column"`
	Height int    `json:"height_column"`
	Method int    `json:"method_column"`
}

// Schema is the typed layout of a field sheet, derived once from its header rows.
type Schema struct {
	HeaderRow int          `json:"header_row"`
	DataStart int          `json:"data_start"`
	Offset    int          `json:"offset"` // distance from the month cell to the date column
	Blocks    []MonthBlock `json:"blocks"`
}

var subHeaderTokens = []string{"TANGGAL", "TGL", "UMUR", "BERAT", "TINGGI", "BB", "TB", "CARA"}

// DetectSchema scans the first rows for the month header and builds the month blocks.
// The row with the most month tokens wins; the earliest such row on ties.
func DetectSchema(rows [][]string) (Schema, error) {
	headerRow, best := -1, 0
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		if n := len(monthColumns(rows[i])); n > best {
			headerRow, best = i, n
		}
	}
	if headerRow < 0 {
		return Schema{}, fmt.Errorf("%w in the first %d rows", ErrNoHeader, headerScanRows)
	}

	cols := monthColumns(rows[headerRow])
	s := Schema{HeaderRow: headerRow, DataStart: headerRow + 1, Offset: 1}

	if headerRow+1 < len(rows) {
		sub := rows[headerRow+1]
		if isSubHeader(sub) {
			s.DataStart = headerRow + 2
			if first := cols[0]; strings.Contains(upper(cell(sub, first.col)), "TANGGAL") || strings.Contains(upper(cell(sub, first.col)), "TGL") {
				s.Offset = 0
			}
		}
	}

	for _, mc := range cols {
		base := mc.col + s.Offset
		s.Blocks = append(s.Blocks, MonthBlock{
			Month:  mc.month,
			Header: mc.col,
			Date:   base,
			Age:    base + 1,
			Weight: base + 2,
			Height: base + 3,
			Method: base + 4,
		})
	}
	return s, nil
}

type monthColumn struct {
	month string
	col   int
}

// monthColumns returns the first column of each month token found in row, in column order.
func monthColumns(row []string) []monthColumn {
	seen := make(map[string]bool)
	var out []monthColumn
	for col, v := range row {
		h := upper(v)
		if h == "" {
			continue
		}
		for _, m := range growth.MonthNames {
			if strings.Contains(h, m) && !seen[m] {
				seen[m] = true
				out = append(out, monthColumn{month: m, col: col})
				break
			}
		}
	}
	return out
}

func isSubHeader(row []string) bool {
	hits := 0
	for _, v := range row {
		h := upper(v)
		for _, tok := range subHeaderTokens {
			if h == tok || strings.HasPrefix(h, tok+" ") || strings.HasPrefix(h, tok+"(") {
				hits++
				break
			}
		}
	}
	return hits >= 2
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
