package validation

import (
	"fmt"
	"math"

	"growthcheck/internal/growth"
	"growthcheck/internal/who"
)

// Plausibility bounds and change thresholds for the 0-5 year population.
const (
	MinHeightCm = 40.0
	MaxHeightCm = 130.0
	MinWeightKg = 2.0
	MaxWeightKg = 30.0

	TechnicalZLimit = 4.0
	ErrorZLimit     = 3.0
	WarningZLimit   = 2.0

	MaxHeightGainPerMonth = 3.5
	MaxWeightGainPerMonth = 2.5
	MaxJumpGapMonths      = 2

	SevereDeclinePercent   = -7.0
	SevereDeclineKg        = -1.0
	ModerateDeclinePercent = -3.0

	MaxMonthGap = 1
)

// Input is everything a rule may look at for one measurement.
type Input struct {
	Sex      growth.Sex
	Current  growth.Measurement
	Previous *growth.Measurement
	ZScores  *who.ZScoreResult
}

// Rule is one step of the priority table.
type Rule struct {
	Name  string
	Check func(Input) *Verdict
}

// DefaultRules returns the priority table, highest priority first.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "missing_data", Check: checkMissingData},
		{Name: "implausible_value", Check: checkImplausible},
		{Name: "invalid_age", Check: checkInvalidAge},
		{Name: "height_decrease", Check: checkHeightDecrease},
		{Name: "zscore_limit", Check: checkZScoreLimit},
		{Name: "extreme_jump", Check: checkExtremeJump},
		{Name: "weight_decline", Check: checkWeightDecline},
		{Name: "zscore_deviation", Check: checkZScoreDeviation},
		{Name: "data_gap", Check: checkDataGap},
	}
}

func checkMissingData(in Input) *Verdict {
	m := in.Current
	noWeight, noHeight := m.WeightKg <= 0, m.HeightCm <= 0

	var f Flag
	switch {
	case noWeight && noHeight:
		f = Flag{Message: "Data berat dan tinggi kosong", Field: "weight,height"}
	case noWeight:
		f = Flag{Message: "Data berat kosong", Field: "weight"}
	case noHeight:
		f = Flag{Message: "Data tinggi kosong", Field: "height"}
	default:
		return nil
	}
	f.Category = CategoryMissingData
	f.Severity = SeverityWarning
	return &Verdict{Status: StatusMissing, Flags: []Flag{f}}
}

func checkImplausible(in Input) *Verdict {
	m := in.Current
	var flags []Flag
	if m.HeightCm < MinHeightCm || m.HeightCm > MaxHeightCm {
		flags = append(flags, Flag{
			Category: CategoryImplausible,
			Severity: SeverityError,
			Field:    "height",
			After:    m.HeightCm,
			Message:  fmt.Sprintf("Nilai tidak masuk akal: tinggi %scm (di luar rentang %s-%scm)", num(m.HeightCm), num(MinHeightCm), num(MaxHeightCm)),
		})
	}
	if m.WeightKg < MinWeightKg || m.WeightKg > MaxWeightKg {
		flags = append(flags, Flag{
			Category: CategoryImplausible,
			Severity: SeverityError,
			Field:    "weight",
			After:    m.WeightKg,
			Message:  fmt.Sprintf("Nilai tidak masuk akal: berat %skg (di luar rentang %s-%skg)", num(m.WeightKg), num(MinWeightKg), num(MaxWeightKg)),
		})
	}
	return verdict(StatusError, flags)
}

// Anything after this rule needs a usable age and date.
func checkInvalidAge(in Input) *Verdict {
	m := in.Current
	if m.Chronological() {
		return nil
	}
	msg := "Tanggal pengukuran tidak valid"
	if m.DateValid {
		msg = "Umur tidak dapat dihitung"
	}
	if m.AgeNote != "" {
		msg += ": " + m.AgeNote
	}
	return &Verdict{Status: StatusWarning, Flags: []Flag{{
		Category: CategoryInvalidAge,
		Severity: SeverityWarning,
		Message:  msg,
	}}}
}

func checkHeightDecrease(in Input) *Verdict {
	prev, cur := in.Previous, in.Current
	if prev == nil || cur.HeightCm >= prev.HeightCm {
		return nil
	}
	decrease := prev.HeightCm - cur.HeightCm
	return &Verdict{Status: StatusError, Flags: []Flag{{
		Category: CategoryHeightDecrease,
		Severity: SeverityError,
		Field:    "height",
		Before:   prev.HeightCm,
		After:    cur.HeightCm,
		Delta:    -decrease,
		Message:  fmt.Sprintf("Tinggi menurun: %.1fcm → %.1fcm (penurunan %.1fcm)", prev.HeightCm, cur.HeightCm, decrease),
	}}}
}

func checkZScoreLimit(in Input) *Verdict {
	z := in.ZScores
	if z == nil {
		return nil
	}
	var flags []Flag
	if math.Abs(z.WFA) > TechnicalZLimit {
		flags = append(flags, Flag{
			Category: CategoryZScoreLimit, Severity: SeverityError, Field: "wfa", Z: z.WFA,
			Message: fmt.Sprintf("Z-score di luar batas teknis: WFA = %.2f", z.WFA),
		})
	}
	if math.Abs(z.HFA) > TechnicalZLimit {
		flags = append(flags, Flag{
			Category: CategoryZScoreLimit, Severity: SeverityError, Field: "hfa", Z: z.HFA,
			Message: fmt.Sprintf("Z-score di luar batas teknis: HFA = %.2f", z.HFA),
		})
	}
	if math.Abs(z.WFA) > ErrorZLimit || math.Abs(z.HFA) > ErrorZLimit {
		flags = append(flags, Flag{
			Category: CategoryZScoreLimit, Severity: SeverityError, Field: "wfa,hfa", Z: maxAbs(z.WFA, z.HFA),
			Message: fmt.Sprintf("Z-score di luar ±3: WFA=%.2f, HFA=%.2f", z.WFA, z.HFA),
		})
	}
	return verdict(StatusError, flags)
}

func checkExtremeJump(in Input) *Verdict {
	prev, cur := in.Previous, in.Current
	if prev == nil {
		return nil
	}
	gap := cur.AgeMonths - prev.AgeMonths
	if gap < 1 || gap > MaxJumpGapMonths {
		return nil
	}

	var flags []Flag
	heightGain := cur.HeightCm - prev.HeightCm
	if perMonth := heightGain / float64(gap); perMonth > MaxHeightGainPerMonth {
		flags = append(flags, Flag{
			Category: CategoryExtremeJump, Severity: SeverityWarning, Field: "height",
			Before: prev.HeightCm, After: cur.HeightCm, Delta: heightGain, Months: gap,
			Message: fmt.Sprintf("Lonjakan tinggi ekstrem: %.1fcm dalam %d bulan (%.1fcm/bulan)", heightGain, gap, perMonth),
		})
	}
	weightGain := cur.WeightKg - prev.WeightKg
	if perMonth := weightGain / float64(gap); perMonth > MaxWeightGainPerMonth {
		flags = append(flags, Flag{
			Category: CategoryExtremeJump, Severity: SeverityWarning, Field: "weight",
			Before: prev.WeightKg, After: cur.WeightKg, Delta: weightGain, Months: gap,
			Message: fmt.Sprintf("Lonjakan berat ekstrem: %.1fkg dalam %d bulan (%.1fkg/bulan)", weightGain, gap, perMonth),
		})
	}
	return verdict(StatusWarning, flags)
}

// Severe decline wins over moderate; only one of them is reported.
func checkWeightDecline(in Input) *Verdict {
	prev, cur := in.Previous, in.Current
	if prev == nil || prev.WeightKg <= 0 {
		return nil
	}
	change := cur.WeightKg - prev.WeightKg
	pct := change / prev.WeightKg * 100

	var label string
	switch {
	case pct <= SevereDeclinePercent || change <= SevereDeclineKg:
		label = "signifikan"
	case pct <= ModerateDeclinePercent:
		label = "moderat"
	default:
		return nil
	}
	return &Verdict{Status: StatusWarning, Flags: []Flag{{
		Category: CategoryWeightDecline,
		Severity: SeverityWarning,
		Field:    "weight",
		Before:   prev.WeightKg,
		After:    cur.WeightKg,
		Delta:    change,
		Percent:  who.Round2(pct),
		Message:  fmt.Sprintf("Penurunan berat %s: %.1fkg → %.1fkg (%.1f%%)", label, prev.WeightKg, cur.WeightKg, pct),
	}}}
}

func checkZScoreDeviation(in Input) *Verdict {
	z := in.ZScores
	if z == nil {
		return nil
	}
	var flags []Flag
	if a := math.Abs(z.WFA); a > WarningZLimit && a <= ErrorZLimit {
		flags = append(flags, Flag{
			Category: CategoryZScoreDeviation, Severity: SeverityWarning, Field: "wfa", Z: z.WFA,
			Message: fmt.Sprintf("Berat tidak ideal: WFA = %.2f", z.WFA),
		})
	}
	if a := math.Abs(z.HFA); a > WarningZLimit && a <= ErrorZLimit {
		flags = append(flags, Flag{
			Category: CategoryZScoreDeviation, Severity: SeverityWarning, Field: "hfa", Z: z.HFA,
			Message: fmt.Sprintf("Tinggi tidak ideal: HFA = %.2f", z.HFA),
		})
	}
	return verdict(StatusWarning, flags)
}

func checkDataGap(in Input) *Verdict {
	prev, cur := in.Previous, in.Current
	if prev == nil {
		return nil
	}
	gap := cur.AgeMonths - prev.AgeMonths
	if gap <= MaxMonthGap {
		return nil
	}
	return &Verdict{Status: StatusWarning, Flags: []Flag{{
		Category: CategoryDataGap,
		Severity: SeverityWarning,
		Months:   gap - 1,
		Message:  fmt.Sprintf("Gap data: tidak ada pengukuran untuk %d bulan", gap-1),
	}}}
}

func zscoreInfo(z who.ZScoreResult) Flag {
	return Flag{
		Category: CategoryZScoreInfo,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("Z-score: WFA=%.2f, HFA=%.2f, BFA=%.2f", z.WFA, z.HFA, z.BFA),
	}
}

func unmeasuredMonth(age int) Flag {
	return Flag{
		Category: CategoryUnmeasuredMonth,
		Severity: SeverityWarning,
		Months:   age,
		Message:  fmt.Sprintf("Bulan tidak terukur: tidak ada pengukuran pada umur %d bulan", age),
	}
}

func verdict(status Status, flags []Flag) *Verdict {
	if len(flags) == 0 {
		return nil
	}
	return &Verdict{Status: status, Flags: flags}
}

func maxAbs(a, b float64) float64 {
	if math.Abs(a) >= math.Abs(b) {
		return a
	}
	return b
}

// num prints a value the way it was entered: 87 stays "87", 87.5 stays "87.5".
func num(v float64) string {
	return fmt.Sprintf("%g", v)
}
