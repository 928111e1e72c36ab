package dates

import (
	"errors"
	"time"
)

var (
	// ErrBeforeBirth is returned when a measurement is dated before the child's birth.
	ErrBeforeBirth = errors.New("measurement date precedes birth date")
	// ErrInvalidDate is returned when either date is the invalid placeholder.
	ErrInvalidDate = errors.New("invalid date")
)

// AgeCalculation is a calendar age. TotalMonths = Years*12 + Months.
type AgeCalculation struct {
	Years       int  `json:"years"`
	Months      int  `json:"months"`
	TotalMonths int  `json:"total_months"`
	Days        int  `json:"days"`
	Precise     bool `json:"is_precise"`
}

// CalculateAge derives the calendar age at measurement. A measurement before birth is an error,
// never a zero age.
func CalculateAge(birth, measured time.Time) (AgeCalculation, error) {
	if birth.IsZero() || measured.IsZero() {
		return AgeCalculation{}, ErrInvalidDate
	}
	b := truncate(birth)
	m := truncate(measured)
	if m.Before(b) {
		return AgeCalculation{}, ErrBeforeBirth
	}

	years := m.Year() - b.Year()
	months := int(m.Month()) - int(b.Month())
	days := m.Day() - b.Day()

	if days < 0 {
		months--
		// Day 0 of the measurement month is the last day of the previous month.
		days += time.Date(m.Year(), m.Month(), 0, 0, 0, 0, 0, time.UTC).Day()
	}
	if months < 0 {
		years--
		months += 12
	}

	total := years*12 + months
	if days < 0 {
		// End-of-month birthdays: count days from the clamped monthly anniversary.
		days = int(m.Sub(anniversary(b, total)).Hours() / 24)
	}

	return AgeCalculation{
		Years:       years,
		Months:      months,
		TotalMonths: total,
		Days:        days,
		Precise:     true,
	}, nil
}

// AgeInMonths is a shorthand for CalculateAge(...).TotalMonths.
func AgeInMonths(birth, measured time.Time) (int, error) {
	age, err := CalculateAge(birth, measured)
	if err != nil {
		return 0, err
	}
	return age.TotalMonths, nil
}

// AddMonths moves t forward by n calendar months, clamping to the last day of the target month.
func AddMonths(t time.Time, n int) time.Time {
	return anniversary(truncate(t), n)
}

func anniversary(birth time.Time, months int) time.Time {
	first := time.Date(birth.Year(), birth.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := birth.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
