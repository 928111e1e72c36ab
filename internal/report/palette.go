package report

import "growthcheck/internal/validation"

// Color is an RGB hex code without the leading '#'.
type Color string

const (
	ColorRed    Color = "FF0000" // ERROR
	ColorYellow Color = "FFEB3B" // WARNING: missing data, gaps, unusable dates
	ColorOrange Color = "FF9800" // WARNING: anomalies and out-of-range values
	ColorGreen  Color = "4CAF50" // OK
	ColorGray   Color = "9E9E9E" // MISSING
	ColorHeader Color = "2196F3"
)

// anomaly categories turn a WARNING orange; everything else stays yellow.
var anomalyCategories = map[validation.Category]bool{
	validation.CategoryImplausible:     true,
	validation.CategoryHeightDecrease:  true,
	validation.CategoryZScoreLimit:     true,
	validation.CategoryExtremeJump:     true,
	validation.CategoryWeightDecline:   true,
	validation.CategoryZScoreDeviation: true,
}

// StatusColor maps a result onto the fixed palette. It reads the status and flag categories only.
func StatusColor(r validation.Result) Color {
	switch r.Status {
	case validation.StatusError:
		return ColorRed
	case validation.StatusMissing:
		return ColorGray
	case validation.StatusOK:
		return ColorGreen
	}
	for _, f := range r.Flags {
		if anomalyCategories[f.Category] {
			return ColorOrange
		}
	}
	return ColorYellow
}

// ChildStatusColor colors the per-child summary row.
func ChildStatusColor(s ChildStatus) Color {
	switch s {
	case ChildError:
		return ColorRed
	case ChildWarning:
		return ColorYellow
	case ChildValid:
		return ColorGreen
	}
	return ColorGray
}

// LegendEntry is one line of the dashboard legend.
type LegendEntry struct {
	Status  validation.Status `json:"status"`
	Color   Color             `json:"color"`
	Icon    string            `json:"icon"`
	Meaning string            `json:"meaning"`
}

// Legend is fixed; it documents the palette above.
var Legend = []LegendEntry{
	{validation.StatusOK, ColorGreen, "✓", "Data valid, sesuai standar WHO"},
	{validation.StatusWarning, ColorYellow, "⚠", "Data kosong, gap pengukuran, atau tanggal tidak valid"},
	{validation.StatusWarning, ColorOrange, "⚠", "Anomali: lonjakan, penurunan berat, atau Z-score menyimpang"},
	{validation.StatusError, ColorRed, "✗", "Data tidak konsisten atau tidak masuk akal"},
	{validation.StatusMissing, ColorGray, "○", "Pengukuran kosong atau bulan tidak terukur"},
}
