package validation

import (
	"growthcheck/internal/growth"
	"growthcheck/internal/who"
)

// Status is the single source of truth for a measurement's classification.
type Status string

const (
	StatusOK      Status = "OK"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
	StatusMissing Status = "MISSING"
)

// Category identifies which check produced a flag. Report coloring reads categories, never messages.
type Category string

const (
	CategoryMissingData     Category = "missing_data"
	CategoryImplausible     Category = "implausible_value"
	CategoryInvalidAge      Category = "invalid_age"
	CategoryHeightDecrease  Category = "height_decrease"
	CategoryZScoreLimit     Category = "zscore_limit"
	CategoryExtremeJump     Category = "extreme_jump"
	CategoryWeightDecline   Category = "weight_decline"
	CategoryZScoreDeviation Category = "zscore_deviation"
	CategoryDataGap         Category = "data_gap"
	CategoryUnmeasuredMonth Category = "unmeasured_month"
	CategoryZScoreInfo      Category = "zscore_info"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Flag is a structured diagnostic. Numbers live in the payload fields; Message is for humans only.
type Flag struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"` // weight, height, wfa, hfa
	Before   float64  `json:"before,omitempty"`
	After    float64  `json:"after,omitempty"`
	Delta    float64  `json:"delta,omitempty"`
	Percent  float64  `json:"percent,omitempty"`
	Z        float64  `json:"z,omitempty"`
	Months   int      `json:"months,omitempty"`
}

// Verdict is what a matching rule returns. A nil *Verdict means the rule did not match.
type Verdict struct {
	Status Status
	Flags  []Flag
}

// Result is the validation outcome for one measurement.
type Result struct {
	Measurement growth.Measurement  `json:"measurement"`
	Previous    *growth.Measurement `json:"previous,omitempty"` // closest earlier usable measurement
	Status      Status              `json:"status"`
	Flags       []Flag              `json:"flags,omitempty"`
	ZScores     *who.ZScoreResult   `json:"z_scores,omitempty"`
	Rule        string              `json:"rule"` // name of the rule that decided Status
}

// Messages returns the flag messages in order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Flags))
	for _, f := range r.Flags {
		out = append(out, f.Message)
	}
	return out
}

// HasCategory reports whether any flag carries c.
func (r Result) HasCategory(c Category) bool {
	for _, f := range r.Flags {
		if f.Category == c {
			return true
		}
	}
	return false
}
