package timeline

import (
	"testing"
	"time"

	"growthcheck/internal/growth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var birth = time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

func atAge(age int) growth.Measurement {
	return growth.Measurement{
		Date:      birth.AddDate(0, age, 0),
		DateValid: true,
		AgeMonths: age,
		AgeValid:  true,
		WeightKg:  5 + float64(age)*0.3,
		HeightCm:  55 + float64(age),
	}
}

func ages(ms []growth.Measurement) []int {
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.AgeMonths)
	}
	return out
}

func TestBuild_GapsInsideSpan(t *testing.T) {
	tl := Build([]growth.Measurement{atAge(5), atAge(1), atAge(7), atAge(2)})

	assert.Equal(t, []int{1, 2, 5, 7}, ages(tl.Measurements))
	assert.Equal(t, []int{3, 4, 6}, tl.MissingBetween)
	assert.Empty(t, tl.MissingBefore, "first age is 1, nothing is missing before it")
	assert.Equal(t, []int{3, 4, 6}, tl.Missing)
}

func TestBuild_MissingBeforeFirst(t *testing.T) {
	tl := Build([]growth.Measurement{atAge(4), atAge(6)})

	assert.Equal(t, []int{1, 2, 3}, tl.MissingBefore)
	assert.Equal(t, []int{5}, tl.MissingBetween)
	assert.Equal(t, []int{1, 2, 3, 5}, tl.Missing)
}

func TestBuild_DuplicateAgesAreOnePresence(t *testing.T) {
	tl := Build([]growth.Measurement{atAge(2), atAge(2), atAge(3)})
	assert.Equal(t, []int{1}, tl.Missing)
	assert.Len(t, tl.Measurements, 3)
}

func TestBuild_InvalidDatesSortLastAndStable(t *testing.T) {
	bad1 := growth.Measurement{Month: "MARET", AgeMonths: 9, AgeValid: true}
	bad2 := growth.Measurement{Month: "APRIL"}
	input := []growth.Measurement{bad1, atAge(3), bad2, atAge(2)}

	tl := Build(input)

	require.Len(t, tl.Measurements, 4)
	assert.Equal(t, 2, tl.Measurements[0].AgeMonths)
	assert.Equal(t, 3, tl.Measurements[1].AgeMonths)
	assert.Equal(t, "MARET", tl.Measurements[2].Month)
	assert.Equal(t, "APRIL", tl.Measurements[3].Month)

	// Age 9 came from an undated record and must not stretch the span.
	assert.Equal(t, []int{1}, tl.Missing)
	// Input order untouched.
	assert.Equal(t, "MARET", input[0].Month)
}

func TestBuild_NoValidMeasurements(t *testing.T) {
	tl := Build([]growth.Measurement{{Month: "MEI"}})
	assert.Nil(t, tl.Missing)
	assert.Len(t, tl.Measurements, 1)
}

func TestMerge(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 5}, Merge([]int{3, 1}, []int{2, 3, 5}))
	assert.Nil(t, Merge())
}

func TestPreviousIndex_SkipsIncompleteRecords(t *testing.T) {
	ms := []growth.Measurement{atAge(1), {AgeMonths: 2, AgeValid: true, DateValid: true}, atAge(3)}
	assert.Equal(t, 0, PreviousIndex(ms, 2))
	assert.Equal(t, -1, PreviousIndex(ms, 0))
}
