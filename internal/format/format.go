// Package format holds the display helpers for ratings: money, percentage deltas,
// sort indicators and Colombian local time.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Sort indicator glyphs
const (
	SortAscending  = "^"
	SortDescending = "v"
	SortNeutral    = "-"
)

// Colombia has no DST, so the fixed offset is used when tzdata is unavailable.
const (
	colombiaZone       = "America/Bogota"
	colombiaOffset     = -5 * 60 * 60
	colombianLayout    = "02/01/2006, 15:04:05"
	deltaUndefined     = "n/a"
	moneySymbol        = "$"
	moneyGroupSep      = ","
	deltaDecimalPlaces = 1
)

var printer = message.NewPrinter(language.English)

var colombia = loadColombia()

func loadColombia() *time.Location {
	loc, err := time.LoadLocation(colombiaZone)
	if err != nil {
		return time.FixedZone("COT", colombiaOffset)
	}
	return loc
}

// AsMoney renders v as "$" + grouped integer part + "." + the decimal digits of v's
// shortest representation. No rounding is applied: AsMoney(1020) is "$1,020.".
func AsMoney(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, decPart, _ := strings.Cut(s, ".")
	return moneySymbol + groupDigits(intPart) + "." + decPart
}

func groupDigits(intPart string) string {
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		return printer.Sprintf("%d", n)
	}
	// beyond int64: group by hand
	neg := strings.HasPrefix(intPart, "-")
	digits := strings.TrimPrefix(intPart, "-")
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(moneyGroupSep)
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Delta returns ((to-from)/from)*100 with one decimal and a trailing "%".
// A zero base or a non-finite argument has no defined delta and yields "n/a".
func Delta(from, to float64) string {
	if from == 0 || !finite(from) || !finite(to) {
		return deltaUndefined
	}
	f := decimal.NewFromFloat(from)
	pct := decimal.NewFromFloat(to).Sub(f).Div(f).Mul(decimal.NewFromInt(100))
	return pct.StringFixed(deltaDecimalPlaces) + "%"
}

func finite(f float64) bool { return !math.IsInf(f, 0) && !math.IsNaN(f) }

// CompareDecimals parses both values as floats and returns 1 if to > from,
// -1 if to < from and 0 otherwise (including unparseable input).
func CompareDecimals(from, to string) int {
	fromN, err := strconv.ParseFloat(strings.TrimSpace(from), 64)
	if err != nil {
		return 0
	}
	toN, err := strconv.ParseFloat(strings.TrimSpace(to), 64)
	if err != nil {
		return 0
	}
	switch {
	case toN > fromN:
		return 1
	case toN < fromN:
		return -1
	default:
		return 0
	}
}

// SortChar returns the indicator for a column header given the active sort column.
func SortChar(label, sortBy string, ascending bool) string {
	if label != sortBy {
		return SortNeutral
	}
	if ascending {
		return SortAscending
	}
	return SortDescending
}

// ColombianDateTime renders an ISO-8601 timestamp in Bogota time, 24-hour clock.
func ColombianDateTime(iso string) (string, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(iso))
	if err != nil {
		return "", eris.Wrapf(err, "format: parse time %q", iso)
	}
	return t.In(colombia).Format(colombianLayout), nil
}

// ParseMoney converts a display string such as "$1,020.00" into a decimal.
// A single leading "$" and every "," separator are removed before parsing.
func ParseMoney(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, moneySymbol)
	clean = strings.ReplaceAll(clean, moneyGroupSep, "")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "format: parse money %q", s)
	}
	return d, nil
}
