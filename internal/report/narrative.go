package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// NoIssuesMarker closes the block of a child without any finding.
const NoIssuesMarker = "SEMUA DATA VALID ✓"

// WriteNarrative renders the plain-text report: global counts, then one block per child.
func WriteNarrative(out io.Writer, rep *Report) error {
	w := bufio.NewWriter(out)
	rule := strings.Repeat("=", 50)

	fmt.Fprintln(w, "LAPORAN VALIDASI DATA PERTUMBUHAN ANAK")
	fmt.Fprintf(w, "%s\n\n", rule)
	fmt.Fprintf(w, "Tanggal Generate: %s\n", rep.GeneratedAt.Format("02/01/2006 15:04:05"))
	if rep.SourceFile != "" {
		fmt.Fprintf(w, "File Sumber: %s\n", rep.SourceFile)
	}
	if rep.JobID != "" {
		fmt.Fprintf(w, "ID Job: %s\n", rep.JobID)
	}
	fmt.Fprintf(w, "Referensi: %s\n\n", rep.ReferenceName)

	s := rep.Summary
	fmt.Fprintln(w, "RINGKASAN ANALISIS")
	fmt.Fprintln(w, strings.Repeat("-", 20))
	fmt.Fprintf(w, "Total Anak: %d\n", s.TotalChildren)
	if s.Rejected > 0 {
		fmt.Fprintf(w, "Anak Ditolak: %d\n", s.Rejected)
	}
	for _, k := range rep.Dashboard.Records {
		if k.Label == "Total Data Pengukuran" {
			fmt.Fprintf(w, "%s: %d\n", k.Label, k.Count)
			continue
		}
		fmt.Fprintf(w, "%s: %d (%.1f%%)\n", k.Label, k.Count, k.Percent)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ANALISIS DETAIL PER ANAK")
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 30))

	for _, c := range rep.Children {
		writeChildBlock(w, c)
		fmt.Fprintf(w, "\n%s\n\n", rule)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write narrative: %w", err)
	}
	return nil
}

func writeChildBlock(w io.Writer, c ChildSummary) {
	fmt.Fprintf(w, "NAMA: %s\n", dash(c.Name))
	if c.NationalID != "" {
		fmt.Fprintf(w, "NIK: %s\n", c.NationalID)
	}
	fmt.Fprintf(w, "TANGGAL LAHIR: %s\n", c.BirthDate)
	fmt.Fprintf(w, "STATUS: %s\n", c.Status)
	fmt.Fprintln(w, strings.Repeat("-", 20))

	if c.Status == ChildRejected {
		fmt.Fprintf(w, "DITOLAK: %s\n", c.RejectReason)
		section(w, "CATATAN INPUT", c.Issues.Invalid)
		return
	}

	if len(c.UnmeasuredLabels) > 0 {
		fmt.Fprintf(w, "Tidak diukur pada bulan: %s\n", strings.Join(c.UnmeasuredLabels, ", "))
	}
	section(w, "MASALAH TINGGI BADAN", c.Issues.Height)
	section(w, "ANOMALI BERAT BADAN", c.Issues.Weight)
	section(w, "DATA DI LUAR RENTANG IDEAL", c.Issues.OutOfRange)
	section(w, "PERINGATAN", c.Issues.Gaps)
	section(w, "DATA KOSONG", c.Issues.Missing)
	section(w, "DATA TIDAK VALID", c.Issues.Invalid)

	if c.Issues.Empty() && len(c.UnmeasuredLabels) == 0 {
		fmt.Fprintln(w, NoIssuesMarker)
	}
}

func section(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, l := range lines {
		fmt.Fprintf(w, "- %s\n", l)
	}
}
