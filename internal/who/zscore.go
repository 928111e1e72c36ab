package who

import (
	"math"

	"growthcheck/internal/growth"
)

// Supported age range of the calculator, in months.
const (
	MinAgeMonths = 0
	MaxAgeMonths = 60
)

// WeightStatus categorizes weight-for-age.
type WeightStatus string

const (
	SevereUnderweight WeightStatus = "SEVERE_UNDERWEIGHT"
	Underweight       WeightStatus = "UNDERWEIGHT"
	WeightNormal      WeightStatus = "NORMAL"
	Overweight        WeightStatus = "OVERWEIGHT"
	Obese             WeightStatus = "OBESE"
)

// HeightStatus categorizes height-for-age. TALL is informational, not a risk.
type HeightStatus string

const (
	SeverelyStunted HeightStatus = "SEVERELY_STUNTED"
	Stunted         HeightStatus = "STUNTED"
	HeightNormal    HeightStatus = "NORMAL"
	Tall            HeightStatus = "TALL"
)

// BMIStatus categorizes BMI-for-age.
type BMIStatus string

const (
	SeverelyWasted BMIStatus = "SEVERELY_WASTED"
	Wasted         BMIStatus = "WASTED"
	BMINormal      BMIStatus = "NORMAL"
	BMIOverweight  BMIStatus = "OVERWEIGHT"
	BMIObese       BMIStatus = "OBESE"
)

// ZScoreResult holds the three indicators, rounded to 2 decimals, and their categories.
type ZScoreResult struct {
	WFA       float64      `json:"z_wfa"`
	HFA       float64      `json:"z_hfa"`
	BFA       float64      `json:"z_bfa"`
	WFAStatus WeightStatus `json:"wfa_status"`
	HFAStatus HeightStatus `json:"hfa_status"`
	BFAStatus BMIStatus    `json:"bfa_status"`
	RowAge    int          `json:"reference_age_months"`
}

// Calculate computes Z-scores with the LMS method against the nearest tabulated age.
// It returns false when the inputs are outside the supported range; callers treat that as
// insufficient data, not as an error.
func (t *Table) Calculate(ageMonths int, weightKg, heightCm float64, sex growth.Sex) (ZScoreResult, bool) {
	if ageMonths < MinAgeMonths || ageMonths > MaxAgeMonths || weightKg <= 0 || heightCm <= 0 {
		return ZScoreResult{}, false
	}
	row, ok := t.Lookup(sex, ageMonths)
	if !ok {
		return ZScoreResult{}, false
	}

	bmi := BMI(weightKg, heightCm)
	wfa := Round2(LMSZScore(weightKg, row.WeightForAge))
	hfa := Round2(LMSZScore(heightCm, row.HeightForAge))
	bfa := Round2(LMSZScore(bmi, row.BMIForAge))

	return ZScoreResult{
		WFA:       wfa,
		HFA:       hfa,
		BFA:       bfa,
		WFAStatus: ClassifyWeight(wfa),
		HFAStatus: ClassifyHeight(hfa),
		BFAStatus: ClassifyBMI(bfa),
		RowAge:    row.AgeMonths,
	}, true
}

// LMSZScore applies the Box-Cox transform: ((x/M)^L - 1) / (L*S), or ln(x/M)/S when L is 0.
func LMSZScore(x float64, p LMS) float64 {
	if p.L == 0 {
		return math.Log(x/p.M) / p.S
	}
	return (math.Pow(x/p.M, p.L) - 1) / (p.L * p.S)
}

// BMI is weight in kg over height in metres squared.
func BMI(weightKg, heightCm float64) float64 {
	m := heightCm / 100
	return weightKg / (m * m)
}

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ClassifyWeight(z float64) WeightStatus {
	switch {
	case z < -3:
		return SevereUnderweight
	case z < -2:
		return Underweight
	case z > 3:
		return Obese
	case z > 2:
		return Overweight
	}
	return WeightNormal
}

func ClassifyHeight(z float64) HeightStatus {
	switch {
	case z < -3:
		return SeverelyStunted
	case z < -2:
		return Stunted
	case z > 2:
		return Tall
	}
	return HeightNormal
}

func ClassifyBMI(z float64) BMIStatus {
	switch {
	case z < -3:
		return SeverelyWasted
	case z < -2:
		return Wasted
	case z > 3:
		return BMIObese
	case z > 2:
		return BMIOverweight
	}
	return BMINormal
}
