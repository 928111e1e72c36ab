package mcp

import (
	"fmt"
	"time"

	"growthcheck/internal/growth"
	"growthcheck/internal/jobs"
	"growthcheck/internal/report"
)

// JobView is the wire form of a job. Timestamps are RFC 3339 strings.
type JobView struct {
	ID         string             `json:"id"`
	Status     string             `json:"status"`
	CreatedAt  string             `json:"created_at"`
	UpdatedAt  string             `json:"updated_at"`
	DefaultSex string             `json:"default_sex"`
	SourceFile string             `json:"source_file"`
	Summary    *report.JobSummary `json:"summary,omitempty"`
	Workbook   string             `json:"workbook,omitempty"`
	Narrative  string             `json:"narrative,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func jobView(j *jobs.Job) JobView {
	return JobView{
		ID:         j.ID,
		Status:     string(j.Status),
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
		DefaultSex: string(j.DefaultSex),
		SourceFile: j.SourceFile,
		Summary:    j.Summary,
		Workbook:   j.Outputs.Workbook,
		Narrative:  j.Outputs.Narrative,
		Error:      j.Error,
	}
}

// ChildBrief is one line of the per-child outcome.
type ChildBrief struct {
	ChildID       string `json:"child_id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	DominantIssue string `json:"dominant_issue,omitempty"`
	Unmeasured    []int  `json:"unmeasured_months,omitempty"`
	RejectReason  string `json:"reject_reason,omitempty"`
}

func childBriefs(children []report.ChildSummary) []ChildBrief {
	out := make([]ChildBrief, 0, len(children))
	for _, c := range children {
		out = append(out, ChildBrief{
			ChildID:       c.ChildID,
			Name:          c.Name,
			Status:        string(c.Status),
			DominantIssue: string(c.DominantIssue),
			Unmeasured:    c.Unmeasured,
			RejectReason:  c.RejectReason,
		})
	}
	return out
}

// parseSex accepts L/P in any case; empty falls back to def.
func parseSex(raw string, def growth.Sex) (growth.Sex, error) {
	if raw == "" {
		return def, nil
	}
	sex, ok := growth.ParseSex(raw)
	if !ok {
		return "", fmt.Errorf("invalid sex %q: use L or P", raw)
	}
	return sex, nil
}
