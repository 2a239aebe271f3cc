package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/CouSixz/Ciborg/internal/models"
)

// Band is a monetary approval band (alçada). Intervals are left-closed:
// a boundary value belongs to the band that starts at it.
type Band int

const (
	BandUpTo2k Band = iota
	Band2kTo5k
	Band5kTo10k
	BandAbove10k
)

var bandLabels = [...]string{
	BandUpTo2k:   "0 to 2.000",
	Band2kTo5k:   "2.001 to 5.000",
	Band5kTo10k:  "5.001 to 10.000",
	BandAbove10k: "10.001 and above",
}

// labels used by the team spreadsheets
var sourceBandLabels = [...]string{
	BandUpTo2k:   "0 Á 2.000",
	Band2kTo5k:   "2.001 Á 5.000",
	Band5kTo10k:  "5.001 Á 10.000",
	BandAbove10k: "10.001 Acima",
}

var (
	limit2k  = decimal.NewFromInt(2000)
	limit5k  = decimal.NewFromInt(5000)
	limit10k = decimal.NewFromInt(10000)
)

func (b Band) Label() string {
	if b < BandUpTo2k || b > BandAbove10k {
		return ""
	}
	return bandLabels[b]
}

func (b Band) Pool() Pool {
	return Pool(b.Label())
}

func (b Band) String() string {
	return b.Label()
}

// Bands returns all bands in ascending order.
func Bands() []Band {
	return []Band{BandUpTo2k, Band2kTo5k, Band5kTo10k, BandAbove10k}
}

// BandFor never fails: negative values are banded as zero.
func BandFor(value decimal.Decimal) Band {
	switch {
	case value.LessThan(limit2k):
		return BandUpTo2k
	case value.LessThan(limit5k):
		return Band2kTo5k
	case value.LessThan(limit10k):
		return Band5kTo10k
	default:
		return BandAbove10k
	}
}

// OrderValue coerces an order's total to a non-negative number. Missing or
// malformed totals count as zero.
func OrderValue(o models.ServiceOrder) decimal.Decimal {
	if !o.TotalValue.Valid || o.TotalValue.Decimal.IsNegative() {
		return decimal.Zero
	}
	return o.TotalValue.Decimal
}

// ParseBand accepts either the canonical label or the spreadsheet label.
func ParseBand(label string) (Band, bool) {
	v := strings.TrimSpace(label)
	for _, b := range Bands() {
		if v == bandLabels[b] || strings.EqualFold(v, sourceBandLabels[b]) {
			return b, true
		}
	}
	return 0, false
}

// NormalizeBandKey maps a declared agent key to its canonical form. Unknown
// keys are returned trimmed so they never match a pool.
func NormalizeBandKey(key string) string {
	v := strings.TrimSpace(key)
	if strings.EqualFold(v, string(PoolN2)) {
		return string(PoolN2)
	}
	if b, ok := ParseBand(v); ok {
		return b.Label()
	}
	return v
}
