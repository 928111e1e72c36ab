package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AnalyzeInput is the argument set of analyze_growth_workbook.
type AnalyzeInput struct {
	Path       string `json:"path" jsonschema:"Absolute path of the posyandu xlsx workbook to validate"`
	DefaultSex string `json:"default_sex,omitempty" jsonschema:"Sex used when a row's sex cell is blank or unknown: L or P (default from configuration)"`
	Sheet      string `json:"sheet,omitempty" jsonschema:"Sheet name to read; the first sheet when empty"`
}

// JobInput selects one job.
type JobInput struct {
	JobID            string `json:"job_id" jsonschema:"ID returned by analyze_growth_workbook"`
	IncludeNarrative bool   `json:"include_narrative,omitempty" jsonschema:"If true, also return the plain-text validation narrative"`
}

// ListInput filters list_analysis_jobs.
type ListInput struct {
	Status string `json:"status,omitempty" jsonschema:"Optional status filter: processing, completed or failed"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of jobs to return, newest first (0 means all)"`
}

// DeleteInput selects the job to remove.
type DeleteInput struct {
	JobID string `json:"job_id" jsonschema:"ID of the job to delete together with its output files"`
}

// ReferenceInput asks for the WHO row (and optionally Z-scores) of one child age.
type ReferenceInput struct {
	Sex       string  `json:"sex" jsonschema:"L (laki-laki) or P (perempuan)"`
	AgeMonths int     `json:"age_months" jsonschema:"Age in completed months, 0 to 60"`
	WeightKg  float64 `json:"weight_kg,omitempty" jsonschema:"Optional weight in kg; with height_cm, Z-scores are returned"`
	HeightCm  float64 `json:"height_cm,omitempty" jsonschema:"Optional height in cm; with weight_kg, Z-scores are returned"`
}

func (s *Server) registerTools(server *sdk.Server) {
	sdk.AddTool(server, &sdk.Tool{
		Name: "analyze_growth_workbook",
		Description: "Validate a posyandu growth workbook (monthly weight/height per child) against WHO growth standards. " +
			"Every measurement is classified OK, WARNING, ERROR or MISSING and a 4-sheet workbook plus a text narrative are written. " +
			"Guidance: use 'get_analysis_job' with include_narrative=true to read the per-child findings.",
	}, s.handleAnalyze)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "get_analysis_job",
		Description: "Get the status, summary counts and output files of one analysis job.",
	}, s.handleGetJob)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "list_analysis_jobs",
		Description: "List analysis jobs, newest first, optionally filtered by status.",
	}, s.handleListJobs)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "delete_analysis_job",
		Description: "Delete an analysis job and its generated files. This cannot be undone.",
	}, s.handleDeleteJob)

	sdk.AddTool(server, &sdk.Tool{
		Name: "lookup_who_reference",
		Description: "Look up the WHO LMS reference row nearest to an age for one sex. " +
			"If weight_kg and height_cm are given, also compute weight-for-age, height-for-age and BMI-for-age Z-scores.",
	}, s.handleLookupReference)
}
