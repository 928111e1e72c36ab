package validation

import (
	"testing"

	"growthcheck/internal/growth"
	"growthcheck/internal/who"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_RuleTable(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name       string
		in         Input
		wantStatus Status
		wantRule   string
		wantMsgs   []string
	}{
		{
			name:       "both values empty",
			in:         Input{Current: at(3, 0, 0)},
			wantStatus: StatusMissing,
			wantRule:   "missing_data",
			wantMsgs:   []string{"Data berat dan tinggi kosong"},
		},
		{
			name:       "weight empty only",
			in:         Input{Current: at(3, 0, 61)},
			wantStatus: StatusMissing,
			wantRule:   "missing_data",
			wantMsgs:   []string{"Data berat kosong"},
		},
		{
			name:       "implausible height",
			in:         Input{Current: at(30, 12, 135)},
			wantStatus: StatusError,
			wantRule:   "implausible_value",
			wantMsgs:   []string{"Nilai tidak masuk akal: tinggi 135cm (di luar rentang 40-130cm)"},
		},
		{
			name:       "implausible weight and height together",
			in:         Input{Current: at(30, 31.5, 35)},
			wantStatus: StatusError,
			wantRule:   "implausible_value",
			wantMsgs: []string{
				"Nilai tidak masuk akal: tinggi 35cm (di luar rentang 40-130cm)",
				"Nilai tidak masuk akal: berat 31.5kg (di luar rentang 2-30kg)",
			},
		},
		{
			name:       "undated record is conservative",
			in:         Input{Current: growth.Measurement{WeightKg: 9, HeightCm: 72}},
			wantStatus: StatusWarning,
			wantRule:   "invalid_age",
			wantMsgs:   []string{"Tanggal pengukuran tidak valid"},
		},
		{
			name: "measured before birth",
			in: Input{Current: growth.Measurement{
				DateValid: true, AgeNote: "tanggal pengukuran sebelum tanggal lahir", WeightKg: 9, HeightCm: 72,
			}},
			wantStatus: StatusWarning,
			wantRule:   "invalid_age",
			wantMsgs:   []string{"Umur tidak dapat dihitung: tanggal pengukuran sebelum tanggal lahir"},
		},
		{
			name:       "height decrease",
			in:         Input{Current: at(25, 12.4, 85.0), Previous: ptr(at(24, 12.2, 87.0))},
			wantStatus: StatusError,
			wantRule:   "height_decrease",
			wantMsgs:   []string{"Tinggi menurun: 87.0cm → 85.0cm (penurunan 2.0cm)"},
		},
		{
			name:       "technical z-score limit",
			in:         Input{Current: at(12, 9, 75), ZScores: &who.ZScoreResult{WFA: 4.5, HFA: 0.2}},
			wantStatus: StatusError,
			wantRule:   "zscore_limit",
			wantMsgs: []string{
				"Z-score di luar batas teknis: WFA = 4.50",
				"Z-score di luar ±3: WFA=4.50, HFA=0.20",
			},
		},
		{
			name:       "extreme height jump",
			in:         Input{Current: at(4, 7, 68), Previous: ptr(at(3, 6.5, 60))},
			wantStatus: StatusWarning,
			wantRule:   "extreme_jump",
			wantMsgs:   []string{"Lonjakan tinggi ekstrem: 8.0cm dalam 1 bulan (8.0cm/bulan)"},
		},
		{
			name:       "jump check ignores long gaps",
			in:         Input{Current: at(6, 7.5, 68), Previous: ptr(at(3, 6.5, 60))},
			wantStatus: StatusWarning,
			wantRule:   "data_gap",
			wantMsgs:   []string{"Gap data: tidak ada pengukuran untuk 2 bulan"},
		},
		{
			name:       "severe weight decline by percent",
			in:         Input{Current: at(13, 9.0, 76), Previous: ptr(at(12, 10.0, 76))},
			wantStatus: StatusWarning,
			wantRule:   "weight_decline",
			wantMsgs:   []string{"Penurunan berat signifikan: 10.0kg → 9.0kg (-10.0%)"},
		},
		{
			name:       "severe weight decline by kilograms",
			in:         Input{Current: at(49, 19.0, 104), Previous: ptr(at(48, 20.0, 104))},
			wantStatus: StatusWarning,
			wantRule:   "weight_decline",
			wantMsgs:   []string{"Penurunan berat signifikan: 20.0kg → 19.0kg (-5.0%)"},
		},
		{
			name:       "moderate weight decline",
			in:         Input{Current: at(13, 9.6, 76), Previous: ptr(at(12, 10.0, 76))},
			wantStatus: StatusWarning,
			wantRule:   "weight_decline",
			wantMsgs:   []string{"Penurunan berat moderat: 10.0kg → 9.6kg (-4.0%)"},
		},
		{
			name:       "moderate z-score deviation",
			in:         Input{Current: at(12, 7.5, 75), ZScores: &who.ZScoreResult{WFA: -2.5, HFA: -0.1}},
			wantStatus: StatusWarning,
			wantRule:   "zscore_deviation",
			wantMsgs:   []string{"Berat tidak ideal: WFA = -2.50"},
		},
		{
			name:       "ok keeps z-score summary",
			in:         Input{Current: at(12, 9.6, 75.7), ZScores: &who.ZScoreResult{WFA: 0, HFA: 0, BFA: -0.04}},
			wantStatus: StatusOK,
			wantRule:   "ok",
			wantMsgs:   []string{"Z-score: WFA=0.00, HFA=0.00, BFA=-0.04"},
		},
		{
			name:       "ok without z-scores has no flags",
			in:         Input{Current: at(70, 19, 110)},
			wantStatus: StatusOK,
			wantRule:   "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Evaluate(tt.in)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantRule, got.Rule)
			if len(tt.wantMsgs) == 0 {
				assert.Empty(t, got.Flags)
				return
			}
			assert.Equal(t, tt.wantMsgs, got.Messages())
		})
	}
}

func TestEvaluate_HeightDecreaseBeatsModerateZScore(t *testing.T) {
	in := Input{
		Current:  at(12, 9.6, 70.0),
		Previous: ptr(at(11, 9.4, 72.0)),
		ZScores:  &who.ZScoreResult{WFA: 0, HFA: -2.51},
	}

	got := NewEngine(nil).Evaluate(in)

	assert.Equal(t, StatusError, got.Status)
	require.Len(t, got.Flags, 1)
	assert.Equal(t, CategoryHeightDecrease, got.Flags[0].Category)
	assert.False(t, got.HasCategory(CategoryZScoreDeviation), "short-circuited rules must not leave flags")
}

func TestFlagPayload_IsStructured(t *testing.T) {
	got := NewEngine(nil).Evaluate(Input{Current: at(13, 9.0, 76), Previous: ptr(at(12, 10.0, 76))})
	require.Len(t, got.Flags, 1)

	f := got.Flags[0]
	assert.Equal(t, 10.0, f.Before)
	assert.Equal(t, 9.0, f.After)
	assert.InDelta(t, -1.0, f.Delta, 1e-9)
	assert.Equal(t, -10.0, f.Percent)
	assert.Equal(t, "weight", f.Field)
}

func TestWithRules_CustomPriority(t *testing.T) {
	engine := NewEngine(nil).WithRules([]Rule{{Name: "always", Check: func(Input) *Verdict {
		return &Verdict{Status: StatusWarning, Flags: []Flag{{Category: CategoryDataGap, Message: "x"}}}
	}}})

	got := engine.Evaluate(Input{Current: at(1, 4.5, 54.7)})
	assert.Equal(t, "always", got.Rule)
	assert.Len(t, DefaultRules(), 9, "custom rules must not leak into the default table")
}
