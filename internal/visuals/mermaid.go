package visuals

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"growthcheck/internal/report"
)

// GenerateStatusPie creates a Mermaid pie chart of record statuses.
func GenerateStatusPie(s report.JobSummary) string {
	if s.TotalRecords == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie showData\n")
	sb.WriteString("    title \"Status Data Pengukuran\"\n")
	for _, slice := range []struct {
		label string
		count int
	}{
		{"OK", s.Valid},
		{"WARNING", s.Warning},
		{"ERROR", s.Error},
		{"MISSING", s.Missing},
	} {
		if slice.count > 0 {
			sb.WriteString(fmt.Sprintf("    \"%s\" : %d\n", slice.label, slice.count))
		}
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateChildStatusChart creates a Mermaid bar chart of the worst-of status per child.
func GenerateChildStatusChart(s report.JobSummary) string {
	if s.TotalChildren == 0 {
		return ""
	}

	counts := []int{s.ChildrenValid, s.ChildrenWarning, s.ChildrenError, s.Rejected}
	maxVal := 0
	values := make([]string, len(counts))
	for i, c := range counts {
		values[i] = fmt.Sprintf("%d", c)
		if c > maxVal {
			maxVal = c
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Status Anak\"\n")
	sb.WriteString("    x-axis [\"VALID\", \"WARNING\", \"ERROR\", \"REJECTED\"]\n")
	sb.WriteString(fmt.Sprintf("    y-axis \"Jumlah Anak\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateIssueChart creates a Mermaid bar chart counting children per dominant issue.
func GenerateIssueChart(children []report.ChildSummary) string {
	counts := make(map[string]int)
	for _, c := range children {
		if c.DominantIssue != "" {
			counts[string(c.DominantIssue)]++
		}
	}
	if len(counts) == 0 {
		return ""
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	var labels, values []string
	maxVal := 0
	for _, k := range keys {
		labels = append(labels, fmt.Sprintf("\"%s\"", k))
		values = append(values, fmt.Sprintf("%d", counts[k]))
		if counts[k] > maxVal {
			maxVal = counts[k]
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Masalah Dominan per Anak\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Jumlah Anak\" 0 --> %d\n", maxVal+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateGrowthChart creates a Mermaid line chart of one child's weight and height by age.
// Synthetic rows and rows without an age are left out.
func GenerateGrowthChart(childID string, audit []report.AuditRow) string {
	var points []report.AuditRow
	name := childID
	for _, r := range audit {
		if r.ChildID != childID || r.Synthetic || r.AgeMonths == nil {
			continue
		}
		if r.Name != "" {
			name = r.Name
		}
		points = append(points, r)
	}
	if len(points) == 0 {
		return ""
	}
	sort.SliceStable(points, func(i, j int) bool { return *points[i].AgeMonths < *points[j].AgeMonths })

	var labels, weights, heights []string
	maxVal := 0.0
	for _, p := range points {
		labels = append(labels, fmt.Sprintf("%d", *p.AgeMonths))
		weights = append(weights, fmt.Sprintf("%.1f", p.WeightKg))
		heights = append(heights, fmt.Sprintf("%.1f", p.HeightCm))
		maxVal = math.Max(maxVal, math.Max(p.WeightKg, p.HeightCm))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Pertumbuhan %s\"\n", strings.ReplaceAll(name, "\"", "'")))
	sb.WriteString(fmt.Sprintf("    x-axis \"Umur (bulan)\" [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"kg / cm\" 0 --> %d\n", int(math.Ceil(maxVal*1.1))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(weights, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(heights, ", ")))
	sb.WriteString("```")
	return sb.String()
}
