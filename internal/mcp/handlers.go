package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"growthcheck/internal/analysis"
	"growthcheck/internal/growth"
	"growthcheck/internal/jobs"
	"growthcheck/internal/report"
	"growthcheck/internal/visuals"
	"growthcheck/internal/who"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const maxGrowthCharts = 5

// AnalyzeOutput is the result of analyze_growth_workbook.
type AnalyzeOutput struct {
	Job      JobView      `json:"job"`
	Children []ChildBrief `json:"children"`
	Charts   []string     `json:"charts,omitempty"`
	Guidance []string     `json:"guidance,omitempty"`
}

func (s *Server) handleAnalyze(ctx context.Context, _ *sdk.CallToolRequest, in AnalyzeInput) (*sdk.CallToolResult, AnalyzeOutput, error) {
	if in.Path == "" {
		return nil, AnalyzeOutput{}, fmt.Errorf("path is required")
	}
	def, _ := growth.ParseSex(s.cfg.DefaultSex)
	sex, err := parseSex(in.DefaultSex, def)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	log.Info().Str("path", in.Path).Msg("analyze_growth_workbook")
	res, err := s.svc.AnalyzeFile(ctx, in.Path, analysis.Options{
		SourceName: filepath.Base(in.Path),
		DefaultSex: sex,
		Sheet:      in.Sheet,
	})
	if err != nil {
		if errors.Is(err, analysis.ErrRejected) && res != nil {
			return nil, AnalyzeOutput{}, fmt.Errorf("job %s failed: %w", res.Job.ID, err)
		}
		return nil, AnalyzeOutput{}, err
	}

	out := AnalyzeOutput{
		Job:      jobView(res.Job),
		Children: childBriefs(res.Report.Children),
	}
	if s.cfg.EnableMermaidCharts {
		for _, chart := range []string{
			visuals.GenerateStatusPie(res.Report.Summary),
			visuals.GenerateChildStatusChart(res.Report.Summary),
			visuals.GenerateIssueChart(res.Report.Children),
		} {
			if chart != "" {
				out.Charts = append(out.Charts, chart)
			}
		}
		// Growth curves only for the first children with errors, to keep the response small.
		shown := 0
		for _, c := range res.Report.Children {
			if c.Status != report.ChildError || shown == maxGrowthCharts {
				continue
			}
			if chart := visuals.GenerateGrowthChart(c.ChildID, res.Report.Audit); chart != "" {
				out.Charts = append(out.Charts, chart)
				shown++
			}
		}
	}

	sum := res.Report.Summary
	if sum.Error > 0 {
		out.Guidance = append(out.Guidance, fmt.Sprintf("%d measurement(s) are biologically inconsistent (ERROR); check them on the field sheet before using the data.", sum.Error))
	}
	if sum.Missing > 0 {
		out.Guidance = append(out.Guidance, fmt.Sprintf("%d month(s) have no usable measurement (MISSING).", sum.Missing))
	}
	if sum.Rejected > 0 {
		out.Guidance = append(out.Guidance, fmt.Sprintf("%d child row(s) were rejected and not validated; see reject_reason.", sum.Rejected))
	}
	return nil, out, nil
}

// JobOutput is the result of get_analysis_job.
type JobOutput struct {
	Job            JobView `json:"job"`
	NarrativeText  string  `json:"narrative_text,omitempty"`
	NarrativeError string  `json:"narrative_error,omitempty"`
}

func (s *Server) handleGetJob(ctx context.Context, _ *sdk.CallToolRequest, in JobInput) (*sdk.CallToolResult, JobOutput, error) {
	job, err := s.svc.Jobs().Get(ctx, in.JobID)
	if err != nil {
		return nil, JobOutput{}, err
	}
	out := JobOutput{Job: jobView(job)}
	if in.IncludeNarrative && job.Outputs.Narrative != "" {
		text, err := os.ReadFile(job.Outputs.Narrative)
		if err != nil {
			out.NarrativeError = err.Error()
		} else {
			out.NarrativeText = string(text)
		}
	}
	return nil, out, nil
}

// ListOutput is the result of list_analysis_jobs.
type ListOutput struct {
	Jobs  []JobView `json:"jobs"`
	Total int       `json:"total"`
}

func (s *Server) handleListJobs(ctx context.Context, _ *sdk.CallToolRequest, in ListInput) (*sdk.CallToolResult, ListOutput, error) {
	all, err := s.svc.Jobs().List(ctx)
	if err != nil {
		return nil, ListOutput{}, err
	}

	out := ListOutput{Jobs: []JobView{}}
	for _, j := range all {
		if in.Status != "" && string(j.Status) != in.Status {
			continue
		}
		out.Total++
		if in.Limit <= 0 || len(out.Jobs) < in.Limit {
			out.Jobs = append(out.Jobs, jobView(j))
		}
	}
	return nil, out, nil
}

// DeleteOutput is the result of delete_analysis_job.
type DeleteOutput struct {
	JobID   string `json:"job_id"`
	Deleted bool   `json:"deleted"`
}

func (s *Server) handleDeleteJob(ctx context.Context, _ *sdk.CallToolRequest, in DeleteInput) (*sdk.CallToolResult, DeleteOutput, error) {
	if err := s.svc.DeleteJob(ctx, in.JobID); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil, DeleteOutput{JobID: in.JobID}, err
		}
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete job %s: %w", in.JobID, err)
	}
	return nil, DeleteOutput{JobID: in.JobID, Deleted: true}, nil
}

// ReferenceOutput is the result of lookup_who_reference.
type ReferenceOutput struct {
	Table   string            `json:"table"`
	Row     who.Row           `json:"row"`
	ZScores *who.ZScoreResult `json:"zscores,omitempty"`
	Note    string            `json:"note,omitempty"`
}

func (s *Server) handleLookupReference(_ context.Context, _ *sdk.CallToolRequest, in ReferenceInput) (*sdk.CallToolResult, ReferenceOutput, error) {
	sex, ok := growth.ParseSex(in.Sex)
	if !ok {
		return nil, ReferenceOutput{}, fmt.Errorf("invalid sex %q: use L or P", in.Sex)
	}
	if in.AgeMonths < who.MinAgeMonths || in.AgeMonths > who.MaxAgeMonths {
		return nil, ReferenceOutput{}, fmt.Errorf("age %d is outside %d..%d months", in.AgeMonths, who.MinAgeMonths, who.MaxAgeMonths)
	}

	table := s.svc.Table()
	row, ok := table.Lookup(sex, in.AgeMonths)
	if !ok {
		return nil, ReferenceOutput{}, fmt.Errorf("no reference rows for sex %s", sex)
	}
	out := ReferenceOutput{Table: table.Name(), Row: row}
	if row.AgeMonths != in.AgeMonths {
		out.Note = fmt.Sprintf("nearest tabulated age is %d months", row.AgeMonths)
	}

	if in.WeightKg > 0 && in.HeightCm > 0 {
		z, ok := table.Calculate(in.AgeMonths, in.WeightKg, in.HeightCm, sex)
		if !ok {
			return nil, ReferenceOutput{}, fmt.Errorf("weight %.1f kg / height %.1f cm cannot be scored", in.WeightKg, in.HeightCm)
		}
		out.ZScores = &z
	}
	return nil, out, nil
}
