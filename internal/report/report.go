package report

import (
	"fmt"
	"strings"
	"time"

	"growthcheck/internal/dates"
	"growthcheck/internal/growth"
	"growthcheck/internal/validation"
	"growthcheck/internal/who"
)

// ChildStatus is the worst-of status of a child.
type ChildStatus string

const (
	ChildValid    ChildStatus = "VALID"
	ChildWarning  ChildStatus = "WARNING"
	ChildError    ChildStatus = "ERROR"
	ChildRejected ChildStatus = "REJECTED"
)

// ChildResult is the validation output for one child, as handed to the aggregator.
type ChildResult struct {
	Child      growth.Child
	Results    []validation.Result
	Unmeasured []int
	Rejected   bool
	Reason     string
}

// Input carries everything Build needs.
type Input struct {
	JobID       string
	SourceFile  string
	GeneratedAt time.Time
	Table       *who.Table
	Children    []ChildResult
}

// JobSummary is the fleet-wide aggregate of one run. It is never mutated after Build.
type JobSummary struct {
	TotalChildren int `json:"total_children"`
	TotalRecords  int `json:"total_records"`
	Valid         int `json:"valid"`
	Warning       int `json:"warning"`
	Error         int `json:"error"`
	Missing       int `json:"missing"`
	Rejected      int `json:"rejected_children"`

	ChildrenValid   int `json:"children_valid"`
	ChildrenWarning int `json:"children_warning"`
	ChildrenError   int `json:"children_error"`
}

// AuditRow is one line of the audit sheet. Optional numbers are nil when not applicable.
type AuditRow struct {
	ChildID     string            `json:"child_id"`
	NationalID  string            `json:"nik"`
	Name        string            `json:"name"`
	Sex         growth.Sex        `json:"sex"`
	BirthDate   string            `json:"birth_date"`
	Month       string            `json:"month"`
	Date        string            `json:"date"`
	AgeMonths   *int              `json:"age_months,omitempty"`
	WeightKg    float64           `json:"weight_kg"`
	HeightCm    float64           `json:"height_cm"`
	Method      string            `json:"method,omitempty"`
	WeightDelta *float64          `json:"weight_delta,omitempty"`
	HeightDelta *float64          `json:"height_delta,omitempty"`
	ZWFA        *float64          `json:"z_wfa,omitempty"`
	ZHFA        *float64          `json:"z_hfa,omitempty"`
	ZBFA        *float64          `json:"z_bfa,omitempty"`
	Status      validation.Status `json:"status"`
	Flags       string            `json:"flags,omitempty"`
	Color       Color             `json:"color"`
	Synthetic   bool              `json:"synthetic,omitempty"`
}

// ChildIssues groups a child's flag messages for the narrative.
type ChildIssues struct {
	Height     []string `json:"height,omitempty"`
	Weight     []string `json:"weight,omitempty"`
	OutOfRange []string `json:"out_of_range,omitempty"`
	Gaps       []string `json:"gaps,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	Invalid    []string `json:"invalid,omitempty"`
}

func (i ChildIssues) Empty() bool {
	return len(i.Height)+len(i.Weight)+len(i.OutOfRange)+len(i.Gaps)+len(i.Missing)+len(i.Invalid) == 0
}

// ChildSummary is one line of the per-child sheet.
type ChildSummary struct {
	ChildID          string              `json:"child_id"`
	NationalID       string              `json:"nik"`
	Name             string              `json:"name"`
	Sex              growth.Sex          `json:"sex"`
	BirthDate        string              `json:"birth_date"`
	PeriodStart      string              `json:"period_start"`
	PeriodEnd        string              `json:"period_end"`
	MeasurementCount int                 `json:"measurement_count"`
	OK               int                 `json:"ok"`
	Warning          int                 `json:"warning"`
	Error            int                 `json:"error"`
	Missing          int                 `json:"missing"`
	Unmeasured       []int               `json:"unmeasured_months,omitempty"`
	UnmeasuredLabels []string            `json:"unmeasured_labels,omitempty"`
	DominantIssue    validation.Category `json:"dominant_issue,omitempty"`
	Status           ChildStatus         `json:"status"`
	RejectReason     string              `json:"reject_reason,omitempty"`
	Issues           ChildIssues         `json:"issues"`
}

// KPI is a count with its share of the total, in percent with one decimal.
type KPI struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type Dashboard struct {
	Records  []KPI         `json:"records"`
	Children []KPI         `json:"children"`
	Legend   []LegendEntry `json:"legend"`
}

// Report is the complete, read-only output of one analysis run. Writers only format it.
type Report struct {
	JobID         string         `json:"job_id"`
	SourceFile    string         `json:"source_file"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Summary       JobSummary     `json:"summary"`
	Audit         []AuditRow     `json:"audit"`
	Children      []ChildSummary `json:"children"`
	Dashboard     Dashboard      `json:"dashboard"`
	ReferenceName string         `json:"reference_name"`
	Reference     []who.Row      `json:"reference"`
}

// categoryOrder breaks ties when choosing a dominant issue: higher rule priority wins.
var categoryOrder = []validation.Category{
	validation.CategoryMissingData,
	validation.CategoryImplausible,
	validation.CategoryInvalidAge,
	validation.CategoryHeightDecrease,
	validation.CategoryZScoreLimit,
	validation.CategoryExtremeJump,
	validation.CategoryWeightDecline,
	validation.CategoryZScoreDeviation,
	validation.CategoryDataGap,
	validation.CategoryUnmeasuredMonth,
}

// Build aggregates per-child validation output into a Report.
func Build(in Input) *Report {
	table := in.Table
	if table == nil {
		table = who.DefaultTable
	}
	rep := &Report{
		JobID:         in.JobID,
		SourceFile:    in.SourceFile,
		GeneratedAt:   in.GeneratedAt,
		ReferenceName: table.Name(),
	}

	type refKey struct {
		sex growth.Sex
		age int
	}
	used := make(map[refKey]bool)

	for _, cr := range in.Children {
		rep.Summary.TotalChildren++
		summary := summarizeChild(cr)
		rep.Children = append(rep.Children, summary)

		switch summary.Status {
		case ChildRejected:
			rep.Summary.Rejected++
			continue
		case ChildError:
			rep.Summary.ChildrenError++
		case ChildWarning:
			rep.Summary.ChildrenWarning++
		default:
			rep.Summary.ChildrenValid++
		}

		for _, r := range cr.Results {
			rep.Audit = append(rep.Audit, auditRow(cr.Child, r))
			rep.Summary.TotalRecords++
			switch r.Status {
			case validation.StatusOK:
				rep.Summary.Valid++
			case validation.StatusWarning:
				rep.Summary.Warning++
			case validation.StatusError:
				rep.Summary.Error++
			case validation.StatusMissing:
				rep.Summary.Missing++
			}
			if r.ZScores != nil {
				used[refKey{cr.Child.Sex, r.ZScores.RowAge}] = true
			}
		}
	}

	for _, row := range table.Rows() {
		if used[refKey{row.Sex, row.AgeMonths}] {
			rep.Reference = append(rep.Reference, row)
		}
	}

	s := rep.Summary
	rep.Dashboard = Dashboard{
		Records: []KPI{
			kpi("Total Data Pengukuran", s.TotalRecords, s.TotalRecords),
			kpi("Valid (OK)", s.Valid, s.TotalRecords),
			kpi("Peringatan (Warning)", s.Warning, s.TotalRecords),
			kpi("Error", s.Error, s.TotalRecords),
			kpi("Missing Data", s.Missing, s.TotalRecords),
		},
		Children: []KPI{
			kpi("Total Anak", s.TotalChildren, s.TotalChildren),
			kpi("Anak Valid", s.ChildrenValid, s.TotalChildren),
			kpi("Anak Warning", s.ChildrenWarning, s.TotalChildren),
			kpi("Anak Error", s.ChildrenError, s.TotalChildren),
			kpi("Anak Ditolak", s.Rejected, s.TotalChildren),
		},
		Legend: append([]LegendEntry(nil), Legend...),
	}
	return rep
}

// WorstOf applies the child aggregation rule: ERROR beats WARNING (or MISSING) beats VALID.
func WorstOf(results []validation.Result) ChildStatus {
	status := ChildValid
	for _, r := range results {
		switch r.Status {
		case validation.StatusError:
			return ChildError
		case validation.StatusWarning, validation.StatusMissing:
			status = ChildWarning
		}
	}
	return status
}

func summarizeChild(cr ChildResult) ChildSummary {
	c := cr.Child
	s := ChildSummary{
		ChildID:    c.ID,
		NationalID: c.NationalID,
		Name:       c.Name,
		Sex:        c.Sex,
		BirthDate:  birthLabel(c),
		Unmeasured: cr.Unmeasured,
	}
	if cr.Rejected {
		s.Status = ChildRejected
		s.RejectReason = cr.Reason
		s.Issues.Invalid = append(s.Issues.Invalid, c.InputIssues...)
		return s
	}

	counts := make(map[validation.Category]int)
	for _, r := range cr.Results {
		m := r.Measurement
		switch r.Status {
		case validation.StatusOK:
			s.OK++
		case validation.StatusWarning:
			s.Warning++
		case validation.StatusError:
			s.Error++
		case validation.StatusMissing:
			s.Missing++
		}
		if !m.Synthetic {
			s.MeasurementCount++
			if m.DateValid {
				if s.PeriodStart == "" {
					s.PeriodStart = m.FormattedDate()
				}
				s.PeriodEnd = m.FormattedDate()
			}
		}
		for _, f := range r.Flags {
			if f.Severity != validation.SeverityInfo {
				counts[f.Category]++
			}
			s.Issues.add(f, m)
		}
	}
	s.Issues.Invalid = append(s.Issues.Invalid, c.InputIssues...)
	for _, age := range cr.Unmeasured {
		s.UnmeasuredLabels = append(s.UnmeasuredLabels, unmeasuredLabel(c, age))
	}

	best := 0
	for _, cat := range categoryOrder {
		if counts[cat] > best {
			best = counts[cat]
			s.DominantIssue = cat
		}
	}

	s.Status = WorstOf(cr.Results)
	return s
}

func (i *ChildIssues) add(f validation.Flag, m growth.Measurement) {
	line := fmt.Sprintf("%s (Bulan: %s)", f.Message, monthLabel(m))
	switch f.Category {
	case validation.CategoryHeightDecrease:
		i.Height = append(i.Height, line)
	case validation.CategoryWeightDecline:
		i.Weight = append(i.Weight, line)
	case validation.CategoryImplausible, validation.CategoryExtremeJump:
		if strings.Contains(f.Field, "height") {
			i.Height = append(i.Height, line)
		} else {
			i.Weight = append(i.Weight, line)
		}
	case validation.CategoryZScoreLimit, validation.CategoryZScoreDeviation:
		i.OutOfRange = append(i.OutOfRange, line)
	case validation.CategoryDataGap:
		i.Gaps = append(i.Gaps, line)
	case validation.CategoryMissingData:
		i.Missing = append(i.Missing, line)
	case validation.CategoryInvalidAge:
		i.Invalid = append(i.Invalid, line)
	}
}

func auditRow(c growth.Child, r validation.Result) AuditRow {
	m := r.Measurement
	row := AuditRow{
		ChildID:    c.ID,
		NationalID: c.NationalID,
		Name:       c.Name,
		Sex:        c.Sex,
		BirthDate:  birthLabel(c),
		Month:      monthLabel(m),
		Date:       m.FormattedDate(),
		WeightKg:   m.WeightKg,
		HeightCm:   m.HeightCm,
		Method:     m.Method,
		Status:     r.Status,
		Flags:      strings.Join(r.Messages(), "; "),
		Color:      StatusColor(r),
		Synthetic:  m.Synthetic,
	}
	if m.AgeValid {
		age := m.AgeMonths
		row.AgeMonths = &age
	}
	if p := r.Previous; p != nil {
		if m.WeightKg > 0 {
			row.WeightDelta = round(m.WeightKg - p.WeightKg)
		}
		if m.HeightCm > 0 {
			row.HeightDelta = round(m.HeightCm - p.HeightCm)
		}
	}
	if z := r.ZScores; z != nil {
		row.ZWFA, row.ZHFA, row.ZBFA = &z.WFA, &z.HFA, &z.BFA
	}
	return row
}

func kpi(label string, count, total int) KPI {
	k := KPI{Label: label, Count: count}
	if total > 0 {
		k.Percent = float64(int(float64(count)/float64(total)*1000+0.5)) / 10
	}
	return k
}

func round(v float64) *float64 {
	r := who.Round2(v)
	return &r
}

func birthLabel(c growth.Child) string {
	if c.BirthDate.IsValid {
		return c.BirthDate.Formatted
	}
	if c.BirthDate.Original != "" {
		return c.BirthDate.Original
	}
	return "-"
}

func monthLabel(m growth.Measurement) string {
	if m.Month == "" {
		return "-"
	}
	return m.Month
}

// unmeasuredLabel names the calendar month in which the child reached age.
func unmeasuredLabel(c growth.Child, age int) string {
	if !c.BirthDate.IsValid {
		return fmt.Sprintf("umur %d bln", age)
	}
	month := growth.MonthName(int(dates.AddMonths(c.BirthDate.Date, age).Month()))
	return fmt.Sprintf("%s (umur %d bln)", month, age)
}
