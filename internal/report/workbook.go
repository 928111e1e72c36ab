package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order.
const (
	SheetAudit     = "Data Audit"
	SheetChildren  = "Ringkasan Anak"
	SheetDashboard = "Dashboard"
	SheetReference = "Referensi WHO"
)

var auditHeader = []string{
	"ID Anak", "NIK", "Nama", "JK", "Tgl Lahir", "Bulan", "Tgl Ukur", "Umur (bln)",
	"BB (kg)", "TB (cm)", "Cara Ukur", "Δ BB (kg)", "Δ TB (cm)",
	"Z BB/U", "Z TB/U", "Z IMT/U", "Status", "Keterangan",
}

var childHeader = []string{
	"ID Anak", "NIK", "Nama", "JK", "Tgl Lahir", "Periode Awal", "Periode Akhir",
	"Jumlah Pengukuran", "OK", "Warning", "Error", "Missing",
	"Bulan Tidak Terukur", "Masalah Dominan", "Status Anak",
}

var referenceHeader = []string{
	"JK", "Umur (bln)",
	"BB/U L", "BB/U M", "BB/U S",
	"TB/U L", "TB/U M", "TB/U S",
	"IMT/U L", "IMT/U M", "IMT/U S",
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	styles map[Color]int
	err    error
}

func (w *sheetWriter) set(col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		w.err = fmt.Errorf("failed to set %s!%s: %w", w.sheet, cell, err)
	}
}

func (w *sheetWriter) row(row int, values ...any) {
	for i, v := range values {
		w.set(i+1, row, v)
	}
}

func (w *sheetWriter) fill(fromCol, toCol, row int, c Color) {
	if w.err != nil {
		return
	}
	style, err := w.style(c)
	if err != nil {
		w.err = err
		return
	}
	from, _ := excelize.CoordinatesToCellName(fromCol, row)
	to, _ := excelize.CoordinatesToCellName(toCol, row)
	if err := w.f.SetCellStyle(w.sheet, from, to, style); err != nil {
		w.err = fmt.Errorf("failed to style %s!%s:%s: %w", w.sheet, from, to, err)
	}
}

func (w *sheetWriter) style(c Color) (int, error) {
	if id, ok := w.styles[c]; ok {
		return id, nil
	}
	st := &excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#" + string(c)}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "BDBDBD", Style: 1},
			{Type: "top", Color: "BDBDBD", Style: 1},
			{Type: "bottom", Color: "BDBDBD", Style: 1},
			{Type: "right", Color: "BDBDBD", Style: 1},
		},
	}
	if c == ColorHeader {
		st.Font = &excelize.Font{Bold: true, Color: "FFFFFF"}
		st.Alignment = &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	}
	id, err := w.f.NewStyle(st)
	if err != nil {
		return 0, fmt.Errorf("failed to create style %s: %w", c, err)
	}
	w.styles[c] = id
	return id, nil
}

func (w *sheetWriter) header(row int, headers []string, widths []float64) {
	for i, h := range headers {
		w.set(i+1, row, h)
	}
	w.fill(1, len(headers), row, ColorHeader)
	for i, width := range widths {
		if w.err != nil {
			return
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := w.f.SetColWidth(w.sheet, col, col, width); err != nil {
			w.err = fmt.Errorf("failed to set column width: %w", err)
		}
	}
}

func (w *sheetWriter) freezeHeader() {
	if w.err != nil {
		return
	}
	if err := w.f.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		w.err = fmt.Errorf("failed to freeze panes on %s: %w", w.sheet, err)
	}
}

// WriteWorkbook renders the four report sheets and writes the xlsx file to out.
func WriteWorkbook(out io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAudit); err != nil {
		return fmt.Errorf("failed to rename first sheet: %w", err)
	}
	for _, name := range []string{SheetChildren, SheetDashboard, SheetReference} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	styles := make(map[Color]int)
	writers := []func(*sheetWriter, *Report){writeAudit, writeChildren, writeDashboard, writeReference}
	for i, name := range []string{SheetAudit, SheetChildren, SheetDashboard, SheetReference} {
		w := &sheetWriter{f: f, sheet: name, styles: styles}
		writers[i](w, rep)
		if w.err != nil {
			return w.err
		}
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeAudit(w *sheetWriter, rep *Report) {
	w.header(1, auditHeader, []float64{12, 18, 24, 5, 12, 12, 12, 10, 9, 9, 14, 10, 10, 9, 9, 9, 10, 70})
	for i, a := range rep.Audit {
		r := i + 2
		w.row(r,
			a.ChildID, a.NationalID, a.Name, string(a.Sex), a.BirthDate, a.Month, a.Date, optInt(a.AgeMonths),
			optPositive(a.WeightKg), optPositive(a.HeightCm), a.Method,
			optFloat(a.WeightDelta), optFloat(a.HeightDelta),
			optFloat(a.ZWFA), optFloat(a.ZHFA), optFloat(a.ZBFA),
			string(a.Status), a.Flags,
		)
		w.fill(1, len(auditHeader), r, a.Color)
	}
	w.freezeHeader()
}

func writeChildren(w *sheetWriter, rep *Report) {
	w.header(1, childHeader, []float64{12, 18, 24, 5, 12, 12, 12, 12, 7, 9, 7, 9, 36, 18, 12})
	for i, c := range rep.Children {
		r := i + 2
		status := string(c.Status)
		if c.RejectReason != "" {
			status += ": " + c.RejectReason
		}
		w.row(r,
			c.ChildID, c.NationalID, c.Name, string(c.Sex), c.BirthDate, dash(c.PeriodStart), dash(c.PeriodEnd),
			c.MeasurementCount, c.OK, c.Warning, c.Error, c.Missing,
			joinInts(c.Unmeasured), dash(string(c.DominantIssue)), status,
		)
		w.fill(len(childHeader), len(childHeader), r, ChildStatusColor(c.Status))
	}
	w.freezeHeader()
}

func writeDashboard(w *sheetWriter, rep *Report) {
	w.header(1, []string{"Indikator", "Jumlah", "Persentase"}, []float64{28, 12, 12, 60})
	r := 2
	for _, k := range rep.Dashboard.Records {
		w.row(r, k.Label, k.Count, fmt.Sprintf("%.1f%%", k.Percent))
		r++
	}
	r++
	for _, k := range rep.Dashboard.Children {
		w.row(r, k.Label, k.Count, fmt.Sprintf("%.1f%%", k.Percent))
		r++
	}

	r++
	w.row(r, "Status", "Warna", "Ikon", "Arti")
	w.fill(1, 4, r, ColorHeader)
	r++
	for _, l := range rep.Dashboard.Legend {
		w.row(r, string(l.Status), "#"+string(l.Color), l.Icon, l.Meaning)
		w.fill(2, 2, r, l.Color)
		r++
	}

	r++
	w.row(r, "ID Job", rep.JobID)
	w.row(r+1, "File Sumber", rep.SourceFile)
	w.row(r+2, "Tanggal Generate", rep.GeneratedAt.Format("02/01/2006 15:04:05"))
	w.freezeHeader()
}

func writeReference(w *sheetWriter, rep *Report) {
	w.header(1, referenceHeader, []float64{5, 10, 8, 8, 8, 8, 8, 8, 8, 8, 8})
	for i, row := range rep.Reference {
		w.row(i+2,
			string(row.Sex), row.AgeMonths,
			row.WeightForAge.L, row.WeightForAge.M, row.WeightForAge.S,
			row.HeightForAge.L, row.HeightForAge.M, row.HeightForAge.S,
			row.BMIForAge.L, row.BMIForAge.M, row.BMIForAge.S,
		)
	}
	w.set(1, len(rep.Reference)+3, "Sumber: "+rep.ReferenceName)
	w.freezeHeader()
}

func optInt(v *int) any {
	if v == nil {
		return "-"
	}
	return *v
}

func optFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func optPositive(v float64) any {
	if v <= 0 {
		return ""
	}
	return v
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinInts(vs []int) string {
	if len(vs) == 0 {
		return "-"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
