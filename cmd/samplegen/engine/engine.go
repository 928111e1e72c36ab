package engine

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"growthcheck/internal/dates"
	"growthcheck/internal/growth"
	"growthcheck/internal/who"

	"github.com/xuri/excelize/v2"
)

type GeneratorConfig struct {
	Scenario string // "clean" or "noisy"
	Children int
	Year     int
	Seed     int64
}

// Visit is one filled month block. Cell values are kept as written to the sheet.
type Visit struct {
	Date   any
	Weight any
	Height any
	Method string
}

// ChildRow is one sheet row.
type ChildRow struct {
	Seq    int
	NIK    string
	Name   string
	Birth  any
	Sex    string
	Visits [12]*Visit
}

var firstNames = []string{"Budi", "Siti", "Rina", "Agus", "Dewi", "Andi", "Putri", "Rizky", "Ayu", "Fajar", "Nur", "Bayu"}

// Generate builds a field sheet for one calendar year. Children are measured monthly on
// their birth day, from age 3 months on, with a per-child offset of at most half a
// standard deviation around the reference median.
func Generate(cfg GeneratorConfig) []ChildRow {
	if cfg.Year == 0 {
		cfg.Year = time.Now().Year()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	noisy := cfg.Scenario == "noisy"

	rows := make([]ChildRow, 0, cfg.Children)
	for i := 0; i < cfg.Children; i++ {
		sex := growth.Male
		if rng.Intn(2) == 1 {
			sex = growth.Female
		}
		day := 1 + rng.Intn(28)
		ageAtStart := 3 + rng.Intn(45)
		birth := dates.AddMonths(time.Date(cfg.Year, 1, day, 0, 0, 0, 0, time.UTC), -ageAtStart)
		z := rng.Float64() - 0.5

		row := ChildRow{
			Seq:   i + 1,
			NIK:   fmt.Sprintf("3201%012d", i+1),
			Name:  fmt.Sprintf("%s %d", firstNames[i%len(firstNames)], i+1),
			Birth: birth,
			Sex:   string(sex),
		}
		if i%2 == 1 {
			row.Birth = dates.Format(birth)
		}

		for m := 0; m < 12; m++ {
			measured := time.Date(cfg.Year, time.Month(m+1), day, 0, 0, 0, 0, time.UTC)
			age, err := dates.AgeInMonths(birth, measured)
			if err != nil || age > who.MaxAgeMonths {
				continue
			}
			w := round1(median(sex, age, func(r who.Row) who.LMS { return r.WeightForAge }) * (1 + 0.14*z))
			h := round1(median(sex, age, func(r who.Row) who.LMS { return r.HeightForAge }) * (1 + 0.03*z))
			row.Visits[m] = &Visit{Date: dates.Format(measured), Weight: w, Height: h, Method: "timbang"}
		}

		if noisy {
			addNoise(&row, i, cfg.Children, rng)
		}
		rows = append(rows, row)
	}
	return rows
}

// addNoise injects one defect per child, cycling through the defect kinds.
func addNoise(row *ChildRow, i, count int, rng *rand.Rand) {
	if i == count-1 {
		row.Birth = "31/02/2023"
		return
	}

	switch i % 5 {
	case 1: // height decrease
		m := 1 + rng.Intn(10)
		if prev, cur := row.Visits[m-1], row.Visits[m]; prev != nil && cur != nil {
			cur.Height = round1(prev.Height.(float64) - 1.5)
		}
	case 2: // two skipped months
		m := 2 + rng.Intn(8)
		row.Visits[m], row.Visits[m+1] = nil, nil
	case 3: // empty and non-numeric weights
		if v := row.Visits[3]; v != nil {
			v.Weight = ""
		}
		if v := row.Visits[7]; v != nil {
			v.Weight = "abc"
		}
	case 4: // unknown sex and decimal commas
		row.Sex = "X"
		for _, v := range row.Visits {
			if v != nil {
				v.Weight = strings.Replace(fmt.Sprintf("%.1f", v.Weight.(float64)), ".", ",", 1)
			}
		}
	}
}

// median interpolates the reference median linearly between tabulated ages.
func median(sex growth.Sex, age int, pick func(who.Row) who.LMS) float64 {
	var lo, hi *who.Row
	rows := who.DefaultTable.Rows()
	for i := range rows {
		r := &rows[i]
		if r.Sex != sex {
			continue
		}
		if r.AgeMonths <= age && (lo == nil || r.AgeMonths > lo.AgeMonths) {
			lo = r
		}
		if r.AgeMonths >= age && (hi == nil || r.AgeMonths < hi.AgeMonths) {
			hi = r
		}
	}
	switch {
	case lo == nil:
		return pick(*hi).M
	case hi == nil || hi.AgeMonths == lo.AgeMonths:
		return pick(*lo).M
	}
	frac := float64(age-lo.AgeMonths) / float64(hi.AgeMonths-lo.AgeMonths)
	return pick(*lo).M + frac*(pick(*hi).M-pick(*lo).M)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Save writes rows as a posyandu field workbook: a title row, the month header and the
// column sub-header, then one row per child.
func Save(path string, year int, rows []ChildRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []any{"NO", "NIK", "NAMA", "TGL LAHIR", "JK"}
	sub := []any{"", "", "", "", ""}
	for _, m := range growth.MonthNames {
		header = append(header, m, "", "", "", "", "")
		sub = append(sub, "", "TANGGAL", "UMUR", "BB", "TB", "CARA UKUR")
	}

	lines := [][]any{{fmt.Sprintf("DATA PENIMBANGAN BALITA TAHUN %d", year)}, header, sub}
	for _, r := range rows {
		line := []any{r.Seq, r.NIK, r.Name, r.Birth, r.Sex}
		for _, v := range r.Visits {
			if v == nil {
				line = append(line, "", "", "", "", "", "")
				continue
			}
			line = append(line, "", v.Date, "", v.Weight, v.Height, v.Method)
		}
		lines = append(lines, line)
	}

	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"3", style); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "C", 20); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
