package dates

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Method records which strategy produced a NormalizedDate.
type Method string

const (
	MethodDirect          Method = "direct"
	MethodExcelSerial     Method = "excel_serial"
	MethodFormatDetection Method = "format_detection"
)

// DisplayLayout is the single display format used across all reports (DD/MM/YYYY).
const DisplayLayout = "02/01/2006"

// Spreadsheet serials outside (0, maxSerial) are not treated as dates.
const maxSerial = 100000

// NormalizedDate is the outcome of normalizing one raw cell value.
// When IsValid is false, Date is the zero placeholder and must not be used for age math.
type NormalizedDate struct {
	Original  string    `json:"original"`
	Date      time.Time `json:"date"`
	Formatted string    `json:"formatted"`
	IsValid   bool      `json:"is_valid"`
	Method    Method    `json:"method"`
}

var (
	numericPattern   = regexp.MustCompile(`^\d+(\.\d+)?$`)
	dayFirstPattern  = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})$`)
	yearFirstPattern = regexp.MustCompile(`^(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})$`)

	timestampLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}

	serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Normalize parses a raw cell value of unknown shape. The first strategy that succeeds wins:
// calendar value, spreadsheet serial, numeric string serial, then textual patterns.
func Normalize(v any) NormalizedDate {
	switch val := v.(type) {
	case nil:
		return invalid("")
	case time.Time:
		if val.IsZero() {
			return invalid("")
		}
		return valid(val.Format(time.RFC3339), val, MethodDirect)
	case *time.Time:
		if val == nil {
			return invalid("")
		}
		return Normalize(*val)
	case string:
		return normalizeString(val)
	}

	if f, ok := toFloat(v); ok {
		raw := strconv.FormatFloat(f, 'f', -1, 64)
		if d, ok := fromSerial(f); ok {
			return valid(raw, d, MethodExcelSerial)
		}
		return invalid(raw)
	}

	return invalid(fmt.Sprint(v))
}

// Format renders a canonical date in the display layout.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayLayout)
}

// FromSerial converts a spreadsheet serial day count into a calendar date.
func FromSerial(serial float64) (time.Time, bool) {
	return fromSerial(serial)
}

func normalizeString(raw string) NormalizedDate {
	s := strings.TrimSpace(raw)
	if s == "" {
		return invalid(raw)
	}

	if numericPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if d, ok := fromSerial(f); ok {
				return valid(raw, d, MethodExcelSerial)
			}
		}
	}

	if m := dayFirstPattern.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		// Local convention is day-first; month-first only when that is not a real date.
		if d, ok := buildDate(y, b, a); ok {
			return valid(raw, d, MethodFormatDetection)
		}
		if d, ok := buildDate(y, a, b); ok {
			return valid(raw, d, MethodFormatDetection)
		}
		return invalid(raw)
	}

	if m := yearFirstPattern.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if t, ok := buildDate(y, mo, d); ok {
			return valid(raw, t, MethodFormatDetection)
		}
		return invalid(raw)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return valid(raw, t, MethodFormatDetection)
		}
	}

	return invalid(raw)
}

// fromSerial applies the 1900 epoch with the historical leap-year defect (day 60 does not exist).
func fromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial <= 0 || serial >= maxSerial {
		return time.Time{}, false
	}
	days := int(math.Floor(serial))
	if days < 1 {
		return time.Time{}, false
	}
	offset := days - 1
	if days > 59 {
		offset--
	}
	return serialEpoch.AddDate(0, 0, offset), true
}

// buildDate constructs a date and rejects values that do not round-trip (e.g. 31/02).
func buildDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func valid(raw string, t time.Time, method Method) NormalizedDate {
	d := truncate(t)
	return NormalizedDate{
		Original:  raw,
		Date:      d,
		Formatted: Format(d),
		IsValid:   true,
		Method:    method,
	}
}

func invalid(raw string) NormalizedDate {
	return NormalizedDate{
		Original: raw,
		IsValid:  false,
		Method:   MethodDirect,
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
