package who

import (
	"fmt"
	"os"
	"slices"

	"growthcheck/internal/growth"

	"gopkg.in/yaml.v3"
)

// LMS holds the Box-Cox power (L), median (M) and coefficient of variation (S) for one indicator.
type LMS struct {
	L float64 `json:"l" yaml:"l"`
	M float64 `json:"m" yaml:"m"`
	S float64 `json:"s" yaml:"s"`
}

// Row is one tabulated age for one sex.
type Row struct {
	AgeMonths    int        `json:"age_months" yaml:"age_months"`
	Sex          growth.Sex `json:"sex" yaml:"sex"`
	WeightForAge LMS        `json:"weight_for_age" yaml:"weight_for_age"`
	HeightForAge LMS        `json:"height_for_age" yaml:"height_for_age"`
	BMIForAge    LMS        `json:"bmi_for_age" yaml:"bmi_for_age"`
}

// Table is an immutable WHO reference table. It is safe for concurrent reads.
type Table struct {
	name  string
	rows  []Row
	bySex map[growth.Sex][]Row
}

type tableFile struct {
	Name string `yaml:"name"`
	Rows []Row  `yaml:"rows"`
}

// NewTable validates rows and freezes them into a Table.
func NewTable(name string, rows []Row) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("reference table %q has no rows", name)
	}
	t := &Table{
		name:  name,
		rows:  slices.Clone(rows),
		bySex: make(map[growth.Sex][]Row),
	}
	for i, r := range t.rows {
		if !r.Sex.Valid() {
			return nil, fmt.Errorf("row %d: unknown sex %q", i, r.Sex)
		}
		if r.AgeMonths < 0 {
			return nil, fmt.Errorf("row %d: negative age %d", i, r.AgeMonths)
		}
		for _, p := range []LMS{r.WeightForAge, r.HeightForAge, r.BMIForAge} {
			if p.M <= 0 || p.S <= 0 {
				return nil, fmt.Errorf("row %d (%s, %d months): M and S must be positive", i, r.Sex, r.AgeMonths)
			}
		}
		t.bySex[r.Sex] = append(t.bySex[r.Sex], r)
	}
	for sex := range t.bySex {
		slices.SortStableFunc(t.bySex[sex], func(a, b Row) int { return a.AgeMonths - b.AgeMonths })
	}
	return t, nil
}

// LoadTable reads a YAML reference table (name + rows).
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference table: %w", err)
	}
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse reference table %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = path
	}
	return NewTable(f.Name, f.Rows)
}

// MarshalYAML renders the table in the same shape LoadTable accepts.
func (t *Table) MarshalYAML() (interface{}, error) {
	return tableFile{Name: t.name, Rows: t.Rows()}, nil
}

// Name identifies the table in reports.
func (t *Table) Name() string {
	return t.name
}

// Rows returns a copy of every row in insertion order.
func (t *Table) Rows() []Row {
	return slices.Clone(t.rows)
}

// Lookup returns the row for sex whose tabulated age is nearest to age. Ties go to the earlier age.
func (t *Table) Lookup(sex growth.Sex, age int) (Row, bool) {
	rows := t.bySex[sex]
	if len(rows) == 0 {
		return Row{}, false
	}
	best := rows[0]
	bestDiff := abs(age - best.AgeMonths)
	for _, r := range rows[1:] {
		if d := abs(age - r.AgeMonths); d < bestDiff {
			best, bestDiff = r, d
		}
	}
	return best, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// DefaultTable is the built-in key-age snapshot of the WHO Child Growth Standards (2006).
var DefaultTable = mustTable("WHO Child Growth Standards 2006 (key ages)", []Row{
	{0, growth.Male, LMS{1.0, 3.5, 0.15}, LMS{1.0, 50.0, 0.03}, LMS{1.0, 13.4, 0.09}},
	{1, growth.Male, LMS{1.0, 4.5, 0.14}, LMS{1.0, 54.7, 0.03}, LMS{1.0, 15.0, 0.08}},
	{2, growth.Male, LMS{1.0, 5.6, 0.14}, LMS{1.0, 58.4, 0.03}, LMS{1.0, 16.4, 0.08}},
	{3, growth.Male, LMS{1.0, 6.4, 0.14}, LMS{1.0, 61.4, 0.03}, LMS{1.0, 17.0, 0.08}},
	{6, growth.Male, LMS{1.0, 7.8, 0.14}, LMS{1.0, 67.6, 0.03}, LMS{1.0, 17.1, 0.08}},
	{12, growth.Male, LMS{1.0, 9.6, 0.15}, LMS{1.0, 75.7, 0.03}, LMS{1.0, 16.8, 0.08}},
	{24, growth.Male, LMS{1.0, 12.2, 0.16}, LMS{1.0, 87.1, 0.03}, LMS{1.0, 16.1, 0.08}},
	{36, growth.Male, LMS{1.0, 14.3, 0.17}, LMS{1.0, 96.1, 0.03}, LMS{1.0, 15.5, 0.08}},
	{48, growth.Male, LMS{1.0, 16.4, 0.18}, LMS{1.0, 103.4, 0.03}, LMS{1.0, 15.3, 0.08}},
	{60, growth.Male, LMS{1.0, 18.3, 0.19}, LMS{1.0, 109.8, 0.03}, LMS{1.0, 15.2, 0.08}},

	{0, growth.Female, LMS{1.0, 3.3, 0.15}, LMS{1.0, 49.1, 0.03}, LMS{1.0, 13.7, 0.09}},
	{1, growth.Female, LMS{1.0, 4.2, 0.14}, LMS{1.0, 53.7, 0.03}, LMS{1.0, 14.6, 0.08}},
	{2, growth.Female, LMS{1.0, 5.1, 0.14}, LMS{1.0, 57.1, 0.03}, LMS{1.0, 15.7, 0.08}},
	{3, growth.Female, LMS{1.0, 5.8, 0.14}, LMS{1.0, 59.8, 0.03}, LMS{1.0, 16.2, 0.08}},
	{6, growth.Female, LMS{1.0, 7.1, 0.14}, LMS{1.0, 65.7, 0.03}, LMS{1.0, 16.5, 0.08}},
	{12, growth.Female, LMS{1.0, 8.9, 0.15}, LMS{1.0, 74.0, 0.03}, LMS{1.0, 16.3, 0.08}},
	{24, growth.Female, LMS{1.0, 11.5, 0.16}, LMS{1.0, 86.4, 0.03}, LMS{1.0, 15.4, 0.08}},
	{36, growth.Female, LMS{1.0, 13.5, 0.17}, LMS{1.0, 95.0, 0.03}, LMS{1.0, 15.0, 0.08}},
	{48, growth.Female, LMS{1.0, 15.4, 0.18}, LMS{1.0, 102.5, 0.03}, LMS{1.0, 14.7, 0.08}},
	{60, growth.Female, LMS{1.0, 17.5, 0.19}, LMS{1.0, 108.9, 0.03}, LMS{1.0, 14.8, 0.08}},
})

func mustTable(name string, rows []Row) *Table {
	t, err := NewTable(name, rows)
	if err != nil {
		panic(err)
	}
	return t
}
