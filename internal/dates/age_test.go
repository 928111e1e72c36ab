package dates

import (
	"errors"
	"testing"
	"time"
)

func TestCalculateAge(t *testing.T) {
	tests := []struct {
		name     string
		birth    time.Time
		measured time.Time
		want     AgeCalculation
	}{
		{
			name:     "same day",
			birth:    day(2023, 1, 15),
			measured: day(2023, 1, 15),
			want:     AgeCalculation{Precise: true},
		},
		{
			name:     "exact months",
			birth:    day(2023, 1, 15),
			measured: day(2023, 7, 15),
			want:     AgeCalculation{Months: 6, TotalMonths: 6, Precise: true},
		},
		{
			name:     "day borrow",
			birth:    day(2023, 1, 20),
			measured: day(2023, 3, 10),
			// Feb 2023 has 28 days: 10 - 20 + 28 = 18
			want: AgeCalculation{Months: 1, TotalMonths: 1, Days: 18, Precise: true},
		},
		{
			name:     "year borrow",
			birth:    day(2022, 11, 5),
			measured: day(2024, 2, 6),
			want:     AgeCalculation{Years: 1, Months: 3, TotalMonths: 15, Days: 1, Precise: true},
		},
		{
			name:     "end of month birthday",
			birth:    day(2023, 1, 31),
			measured: day(2023, 3, 1),
			want:     AgeCalculation{Months: 1, TotalMonths: 1, Days: 1, Precise: true},
		},
		{
			name:     "leap year borrow",
			birth:    day(2023, 12, 30),
			measured: day(2024, 3, 1),
			// Feb 2024 has 29 days: 1 - 30 + 29 = 0
			want: AgeCalculation{Months: 2, TotalMonths: 2, Days: 0, Precise: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateAge(tt.birth, tt.measured)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CalculateAge = %+v, want %+v", got, tt.want)
			}
			if got.TotalMonths != got.Years*12+got.Months {
				t.Errorf("TotalMonths invariant broken: %+v", got)
			}
		})
	}
}

func TestCalculateAge_Failures(t *testing.T) {
	if _, err := CalculateAge(day(2023, 5, 1), day(2023, 4, 30)); !errors.Is(err, ErrBeforeBirth) {
		t.Errorf("expected ErrBeforeBirth, got %v", err)
	}
	if _, err := CalculateAge(time.Time{}, day(2023, 4, 30)); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	got, _ := CalculateAge(day(2023, 5, 1), day(2023, 4, 30))
	if got.Precise || got.TotalMonths != 0 {
		t.Errorf("failed calculation must not look like a precise zero age: %+v", got)
	}
}

func TestCalculateAge_MonotonicInMeasurementDate(t *testing.T) {
	births := []time.Time{day(2022, 1, 31), day(2022, 2, 28), day(2023, 6, 15), day(2020, 2, 29)}
	for _, birth := range births {
		prev := -1
		for i := 0; i < 1900; i++ {
			age, err := AgeInMonths(birth, birth.AddDate(0, 0, i))
			if err != nil {
				t.Fatalf("birth %v +%d days: %v", birth, i, err)
			}
			if age < prev {
				t.Fatalf("age decreased for birth %v at +%d days: %d < %d", birth, i, age, prev)
			}
			prev = age
		}
	}
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	if got := AddMonths(day(2023, 1, 31), 1); !got.Equal(day(2023, 2, 28)) {
		t.Errorf("AddMonths = %v, want 2023-02-28", got)
	}
	if got := AddMonths(day(2023, 1, 15), 14); !got.Equal(day(2024, 3, 15)) {
		t.Errorf("AddMonths = %v, want 2024-03-15", got)
	}
}
