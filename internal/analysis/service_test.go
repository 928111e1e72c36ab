package analysis

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"growthcheck/internal/growth"
	"growthcheck/internal/ingest"
	"growthcheck/internal/jobs"
	"growthcheck/internal/report"
	"growthcheck/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var months = []string{"JANUARI", "FEBRUARI", "MARET", "APRIL", "MEI", "JUNI"}

type visit struct {
	month          string
	date           string
	weight, height float64
}

type row struct {
	seq              int
	nik, name, birth string
	sex              string
	visits           []visit
}

func fieldSheet(t *testing.T, rows []row) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := []any{"NO", "NIK", "NAMA", "TGL LAHIR", "JK"}
	sub := []any{"", "", "", "", ""}
	for _, m := range months {
		header = append(header, m, "", "", "", "", "")
		sub = append(sub, "", "TANGGAL", "UMUR", "BB", "TB", "CARA UKUR")
	}
	sheet := [][]any{{"REKAP PENIMBANGAN"}, header, sub}

	for _, r := range rows {
		line := []any{r.seq, r.nik, r.name, r.birth, r.sex}
		for _, m := range months {
			block := []any{"", "", "", "", "", ""}
			for _, v := range r.visits {
				if v.month == m {
					block = []any{"", v.date, "", v.weight, v.height, "timbang"}
				}
			}
			line = append(line, block...)
		}
		sheet = append(sheet, line)
	}

	for i, r := range sheet {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func posyandu(t *testing.T) *bytes.Buffer {
	return fieldSheet(t, []row{
		{1, "3201000000000001", "Budi", "15/01/2023", "L", []visit{
			{"FEBRUARI", "15/02/2023", 4.5, 54.7},
			{"MARET", "15/03/2023", 5.6, 58.0},
			{"JUNI", "15/06/2023", 7.3, 64.0},
		}},
		{2, "3201000000000002", "Siti", "15/01/2023", "P", []visit{
			{"JANUARI", "15/01/2025", 12.2, 87.0},
			{"FEBRUARI", "15/02/2025", 12.4, 85.0},
		}},
		{3, "3201000000000003", "Rina", "15/01/2023", "P", []visit{
			{"FEBRUARI", "15/02/2023", 4.2, 53.7},
			{"MARET", "15/03/2023", 5.1, 57.1},
		}},
		{4, "", "Tanpa Lahir", "bukan tanggal", "L", nil},
	})
}

func newTestService(t *testing.T) (*Service, *jobs.MemoryStore) {
	store := jobs.NewMemoryStore()
	s := NewService(store, nil, t.TempDir(), 3)
	s.now = func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }
	return s, store
}

func TestAnalyze_EndToEnd(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	res, err := s.Analyze(ctx, posyandu(t), Options{SourceName: "posyandu.xlsx", DefaultSex: growth.Female})
	require.NoError(t, err)

	sum := res.Report.Summary
	assert.Equal(t, 4, sum.TotalChildren)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 9, sum.TotalRecords)
	assert.Equal(t, 5, sum.Valid)
	assert.Equal(t, 1, sum.Warning)
	assert.Equal(t, 1, sum.Error)
	assert.Equal(t, 2, sum.Missing)

	// Budi: ages 1, 2, 5 leave 3 and 4 unmeasured.
	budi := res.Report.Children[0]
	assert.Equal(t, "Budi", budi.Name)
	assert.Equal(t, []int{3, 4}, budi.Unmeasured)
	assert.Equal(t, report.ChildWarning, budi.Status)

	// Siti: height drops from 87.0 to 85.0.
	siti := res.Report.Children[1]
	assert.Equal(t, report.ChildError, siti.Status)
	assert.Equal(t, validation.CategoryHeightDecrease, siti.DominantIssue)

	assert.Equal(t, report.ChildValid, res.Report.Children[2].Status)
	assert.Equal(t, report.ChildRejected, res.Report.Children[3].Status)
	assert.Equal(t, rejectBirthDate, res.Report.Children[3].RejectReason)

	job, err := store.Get(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, growth.Female, job.DefaultSex)
	require.NotNil(t, job.Summary)
	assert.Equal(t, sum, *job.Summary)

	assert.Equal(t, filepath.Join(s.outputDir, job.ID, WorkbookName), job.Outputs.Workbook)
	wb, err := excelize.OpenFile(job.Outputs.Workbook)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{report.SheetAudit, report.SheetChildren, report.SheetDashboard, report.SheetReference}, wb.GetSheetList())

	text, err := os.ReadFile(job.Outputs.Narrative)
	require.NoError(t, err)
	assert.Contains(t, string(text), report.NoIssuesMarker)
	assert.Contains(t, string(text), "ID Job: "+job.ID)
}

func TestAnalyze_NoHeaderFailsJob(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"NO", "NIK", "NAMA"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := s.Analyze(ctx, &buf, Options{SourceName: "kosong.xlsx"})
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, ingest.ErrNoHeader)
	require.NotNil(t, res)

	job, err := store.Get(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "no month header")
	assert.Equal(t, growth.Male, job.DefaultSex, "invalid default sex falls back to male")
	assert.Nil(t, job.Summary)
}

func TestAnalyzeFile_UsesBaseName(t *testing.T) {
	s, _ := newTestService(t)
	path := filepath.Join(t.TempDir(), "posyandu_mawar.xlsx")
	require.NoError(t, os.WriteFile(path, posyandu(t).Bytes(), 0644))

	res, err := s.AnalyzeFile(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "posyandu_mawar.xlsx", res.Job.SourceFile)
	assert.Equal(t, "posyandu_mawar.xlsx", res.Report.SourceFile)

	_, err = s.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"), Options{})
	assert.Error(t, err)
}

func TestValidateChildren_Cancelled(t *testing.T) {
	s, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ValidateChildren(ctx, make([]growth.Child, 5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateChildren_PanicRejectsOnlyThatChild(t *testing.T) {
	s, _ := newTestService(t)
	s.engine = validation.NewEngine(nil).WithRules([]validation.Rule{{
		Name: "boom",
		Check: func(in validation.Input) *validation.Verdict {
			if in.Current.ChildID == "bad" {
				panic("nilai rusak")
			}
			return nil
		},
	}})

	blank := growth.Child{ID: "blank"}
	sheet, err := ingest.Read(posyandu(t), ingest.Options{})
	require.NoError(t, err)
	good := sheet.Children[2]
	bad := good
	bad.ID = "bad"
	bad.Measurements = append([]growth.Measurement(nil), good.Measurements...)
	for i := range bad.Measurements {
		bad.Measurements[i].ChildID = "bad"
	}

	out, err := s.ValidateChildren(context.Background(), []growth.Child{good, bad, blank})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.False(t, out[0].Rejected)
	assert.Len(t, out[0].Results, 2)
	assert.True(t, out[1].Rejected)
	assert.Contains(t, out[1].Reason, "nilai rusak")
	assert.True(t, out[2].Rejected)
	assert.Equal(t, rejectBirthDate, out[2].Reason)
}

func TestDeleteJob(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	res, err := s.Analyze(ctx, posyandu(t), Options{SourceName: "a.xlsx"})
	require.NoError(t, err)
	dir := filepath.Dir(res.Job.Outputs.Workbook)
	require.DirExists(t, dir)

	require.NoError(t, s.DeleteJob(ctx, res.Job.ID))
	assert.NoDirExists(t, dir)
	_, err = store.Get(ctx, res.Job.ID)
	assert.ErrorIs(t, err, jobs.ErrNotFound)

	assert.ErrorIs(t, s.DeleteJob(ctx, res.Job.ID), jobs.ErrNotFound)
}
