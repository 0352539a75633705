package extract

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"

	"github.com/kailas-cloud/travelq/internal/cityname"
)

// Fallback reasons reported to the extraction metric.
const (
	reasonAbsent   = "absent"
	reasonInvalid  = "invalid"
	reasonUnparsed = "unparsed"
)

var (
	currencyRe = regexp.MustCompile(`(?i)₹|\brs\.?|\binr\b|,|\s`)
	amountRe   = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// city returns the trimmed, title-cased string value of key.
// reason is empty when the value was usable.
func (f fields) city(key string) (value, reason string) {
	raw := f[key]
	switch kindOf(raw) {
	case kindAbsent:
		return "", reasonAbsent
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", reasonInvalid
		}
		if s = cityname.Canonicalize(s); s == "" {
			return "", reasonAbsent
		}
		return s, ""
	default:
		return "", reasonInvalid
	}
}

// amount returns a non-negative integer from a JSON number or a numeric string
// such as "₹5,000" or "Rs. 900". A string with anything left after the currency
// marks, commas and spaces are removed ("10k", "1.5 lakh") is invalid.
// Fractions are truncated.
func (f fields) amount(key string) (value int, reason string) {
	raw := f[key]
	switch kindOf(raw) {
	case kindAbsent:
		return 0, reasonAbsent
	case kindNumber:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, reasonInvalid
		}
		return toInt(n)
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, reasonInvalid
		}
		s = currencyRe.ReplaceAllString(s, "")
		if !amountRe.MatchString(s) {
			return 0, reasonInvalid
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, reasonInvalid
		}
		return toInt(n)
	default:
		return 0, reasonInvalid
	}
}

func toInt(n float64) (int, string) {
	if n < 0 || math.IsNaN(n) || n > math.MaxInt32 {
		return 0, reasonInvalid
	}
	return int(n), ""
}
