package timeline

import (
	"slices"
	"sort"

	"growthcheck/internal/growth"
)

// Timeline is one child's measurements in chronological order plus the ages that were never measured.
type Timeline struct {
	Measurements []growth.Measurement `json:"measurements"`

	// MissingBetween holds ages inside the observed span with no measurement.
	MissingBetween []int `json:"missing_between,omitempty"`
	// MissingBefore holds ages 1..first-1 when the first observed age is greater than 1.
	MissingBefore []int `json:"missing_before,omitempty"`
	// Missing is the sorted, de-duplicated union of both gap sets.
	Missing []int `json:"missing,omitempty"`
}

// Build sorts a child's measurements and detects missing months. The input slice is not modified.
func Build(measurements []growth.Measurement) Timeline {
	sorted := Sort(measurements)

	present := make(map[int]bool)
	first, last := -1, -1
	for _, m := range sorted {
		if !m.Chronological() {
			continue
		}
		present[m.AgeMonths] = true
		if first == -1 || m.AgeMonths < first {
			first = m.AgeMonths
		}
		if m.AgeMonths > last {
			last = m.AgeMonths
		}
	}

	tl := Timeline{Measurements: sorted}
	if first == -1 {
		return tl
	}

	for age := first; age <= last; age++ {
		if !present[age] {
			tl.MissingBetween = append(tl.MissingBetween, age)
		}
	}
	for age := 1; age < first; age++ {
		tl.MissingBefore = append(tl.MissingBefore, age)
	}

	tl.Missing = Merge(tl.MissingBefore, tl.MissingBetween)
	return tl
}

// Sort orders measurements by date ascending. Records with invalid dates keep their relative
// order and go last.
func Sort(measurements []growth.Measurement) []growth.Measurement {
	sorted := slices.Clone(measurements)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.DateValid != b.DateValid {
			return a.DateValid
		}
		if !a.DateValid {
			return false
		}
		return a.Date.Before(b.Date)
	})
	return sorted
}

// Merge returns the sorted union of the given age sets without duplicates.
func Merge(sets ...[]int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, set := range sets {
		for _, age := range set {
			if !seen[age] {
				seen[age] = true
				out = append(out, age)
			}
		}
	}
	slices.Sort(out)
	return out
}

// PreviousIndex returns the index of the closest earlier measurement usable for consecutive
// comparisons (valid chronology, both values present), or -1.
func PreviousIndex(measurements []growth.Measurement, i int) int {
	for j := i - 1; j >= 0; j-- {
		m := measurements[j]
		if m.Synthetic {
			continue
		}
		if m.Chronological() && m.Complete() {
			return j
		}
	}
	return -1
}
