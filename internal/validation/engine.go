package validation

import (
	"math"

	"growthcheck/internal/dates"
	"growthcheck/internal/growth"
	"growthcheck/internal/timeline"
	"growthcheck/internal/who"
)

// Engine evaluates the rule table against a child's timeline. It holds no mutable state
// and may be shared between goroutines.
type Engine struct {
	table *who.Table
	rules []Rule
}

// NewEngine builds an engine over the given reference table with the default rule table.
func NewEngine(table *who.Table) *Engine {
	if table == nil {
		table = who.DefaultTable
	}
	return &Engine{table: table, rules: DefaultRules()}
}

// WithRules returns a copy of the engine using rules instead of the default table.
func (e *Engine) WithRules(rules []Rule) *Engine {
	return &Engine{table: e.table, rules: append([]Rule(nil), rules...)}
}

// Table returns the reference table used for Z-scores.
func (e *Engine) Table() *who.Table {
	return e.table
}

// Validate classifies every measurement of the timeline and materializes the months skipped
// between observations as synthetic MISSING rows, placed in age order. Months before the first
// observation are only reported through the timeline. Records are never dropped; rows with an
// unusable date keep their place at the end.
func (e *Engine) Validate(child growth.Child, tl timeline.Timeline) []Result {
	ms := tl.Measurements
	results := make([]Result, 0, len(ms)+len(tl.MissingBetween))

	pending := tl.MissingBetween
	flush := func(upTo int) {
		for len(pending) > 0 && pending[0] < upTo {
			results = append(results, e.synthetic(child, pending[0]))
			pending = pending[1:]
		}
	}

	for i, m := range ms {
		if m.Chronological() {
			flush(m.AgeMonths)
		}
		in := Input{Sex: child.Sex, Current: m}
		if j := timeline.PreviousIndex(ms, i); j >= 0 {
			prev := ms[j]
			in.Previous = &prev
		}
		if m.AgeValid && m.AgeMonths >= 0 && m.Complete() {
			if z, ok := e.table.Calculate(m.AgeMonths, m.WeightKg, m.HeightCm, child.Sex); ok {
				in.ZScores = &z
			}
		}
		results = append(results, e.Evaluate(in))
	}
	flush(math.MaxInt)

	return results
}

// Evaluate runs the rule table on a single measurement and stops at the first match.
func (e *Engine) Evaluate(in Input) Result {
	res := Result{
		Measurement: in.Current,
		Previous:    in.Previous,
		ZScores:     in.ZScores,
	}
	for _, rule := range e.rules {
		if v := rule.Check(in); v != nil {
			res.Status = v.Status
			res.Flags = v.Flags
			res.Rule = rule.Name
			return res
		}
	}

	res.Status = StatusOK
	res.Rule = "ok"
	if in.ZScores != nil {
		res.Flags = []Flag{zscoreInfo(*in.ZScores)}
	}
	return res
}

func (e *Engine) synthetic(child growth.Child, age int) Result {
	m := growth.Measurement{
		ChildID:   child.ID,
		AgeMonths: age,
		AgeValid:  true,
		Synthetic: true,
	}
	if child.BirthDate.IsValid {
		m.Date = dates.AddMonths(child.BirthDate.Date, age)
		m.DateValid = true
		m.Month = growth.MonthName(int(m.Date.Month()))
	}
	return Result{
		Measurement: m,
		Status:      StatusMissing,
		Flags:       []Flag{unmeasuredMonth(age)},
		Rule:        "unmeasured_month",
	}
}
