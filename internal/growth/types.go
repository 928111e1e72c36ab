package growth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"growthcheck/internal/dates"
)

// Sex is the child's sex code as written on the field sheet.
type Sex string

const (
	Male   Sex = "L" // Laki-laki
	Female Sex = "P" // Perempuan
)

// ParseSex maps a raw sheet value onto a Sex. Only the first letter is significant.
func ParseSex(raw string) (Sex, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	switch Sex(s[:1]) {
	case Male:
		return Male, true
	case Female:
		return Female, true
	}
	return "", false
}

// Valid reports whether s is one of the supported codes.
func (s Sex) Valid() bool {
	return s == Male || s == Female
}

// MonthNames are the twelve month tokens scanned for in the sheet header.
var MonthNames = []string{
	"JANUARI", "FEBRUARI", "MARET", "APRIL", "MEI", "JUNI",
	"JULI", "AGUSTUS", "SEPTEMBER", "OKTOBER", "NOVEMBER", "DESEMBER",
}

// MonthName returns the month token for 1..12, or "UNKNOWN".
func MonthName(n int) string {
	if n >= 1 && n <= 12 {
		return MonthNames[n-1]
	}
	return "UNKNOWN"
}

// Child is one row of the field sheet after identity normalization.
type Child struct {
	ID           string               `json:"id"`
	Seq          int                  `json:"seq"`
	NationalID   string               `json:"nik"`
	Name         string               `json:"name"`
	BirthDate    dates.NormalizedDate `json:"birth_date"`
	Sex          Sex                  `json:"sex"`
	Measurements []Measurement        `json:"measurements"`
	InputIssues  []string             `json:"input_issues,omitempty"`
}

// Measurement is a single observed (or gap-filled) data point. It is never mutated after creation.
type Measurement struct {
	ChildID   string    `json:"child_id"`
	Month     string    `json:"month"`
	Date      time.Time `json:"date"`
	DateValid bool      `json:"date_valid"`
	AgeMonths int       `json:"age_months"`
	AgeValid  bool      `json:"age_valid"`
	AgeNote   string    `json:"age_note,omitempty"`
	WeightKg  float64   `json:"weight_kg"`
	HeightCm  float64   `json:"height_cm"`
	Method    string    `json:"method,omitempty"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

// Chronological reports whether the measurement can take part in age and ordering math.
func (m Measurement) Chronological() bool {
	return m.DateValid && m.AgeValid && m.AgeMonths >= 0
}

// Complete reports whether both anthropometric values are present.
func (m Measurement) Complete() bool {
	return m.WeightKg > 0 && m.HeightCm > 0
}

// FormattedDate renders the measurement date for reports, or "-" when unknown.
func (m Measurement) FormattedDate() string {
	if !m.DateValid {
		return "-"
	}
	return dates.Format(m.Date)
}

// RawMeasurement is one month block as read from the sheet, before age derivation.
type RawMeasurement struct {
	Month       string
	Date        dates.NormalizedDate
	SheetAge    int
	HasSheetAge bool
	WeightKg    float64
	HeightCm    float64
	Method      string
}

// NewMeasurement derives the age in months from the birth and measurement dates. The sheet's
// age column is only a fallback for an unusable measurement date.
func (c Child) NewMeasurement(r RawMeasurement) Measurement {
	m := Measurement{
		ChildID:  c.ID,
		Month:    r.Month,
		WeightKg: r.WeightKg,
		HeightCm: r.HeightCm,
		Method:   r.Method,
	}
	if r.Date.IsValid {
		m.Date, m.DateValid = r.Date.Date, true
	}

	switch {
	case m.DateValid && c.BirthDate.IsValid:
		age, err := dates.AgeInMonths(c.BirthDate.Date, m.Date)
		if err != nil {
			m.AgeNote = ageNote(err)
			break
		}
		m.AgeMonths, m.AgeValid = age, true
	case r.HasSheetAge && r.SheetAge >= 0:
		m.AgeMonths, m.AgeValid = r.SheetAge, true
		m.AgeNote = fmt.Sprintf("umur diambil dari kolom umur (%d bulan)", r.SheetAge)
	default:
		m.AgeNote = "umur tidak tersedia"
	}
	return m
}

func ageNote(err error) string {
	if errors.Is(err, dates.ErrBeforeBirth) {
		return "tanggal pengukuran sebelum tanggal lahir"
	}
	return "tanggal tidak valid"
}
