// Package normalise turns raw scraped strings into canonical values: prices
// into minor-currency units, weights into grams and product names into a
// consistent capitalisation.
package normalise

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/suppscan/suppscan/internal/models"
)

// Acronyms kept fully uppercase when capitalising names.
var acronyms = map[string]bool{
	"NZ":  true,
	"ISO": true,
	"WPI": true,
	"ON":  true,
}

var (
	pricePattern  = regexp.MustCompile(`^(?i:NZ\$|\$)?(\d{1,3}(?:,\d{3})*|\d+)(?:\.(\d{1,2}))?$`)
	weightPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)[\s-]*(kg|kilograms?|g|grams?|lb|lbs|pounds?)`)
	thousands     = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
	gaps          = regexp.MustCompile(`\s+`)
	nonLetters    = regexp.MustCompile(`[^A-Za-z]`)
	weightSuffix  = regexp.MustCompile(`(?i)\s*[-–]?\s*\d+(\.\d+)?\s*(g|kg)\b.*`)
)

const gramsPerPound = 453.59237

// Price parses a price string like "$49.99", "NZ$1,234.50" or "5" into
// NZD minor units. Internal whitespace is stripped first; a missing or
// short fractional part is right-padded to two digits. Anything else is a
// parse error.
func Price(raw string) (models.Money, error) {
	cleaned := gaps.ReplaceAllString(raw, "")

	m := pricePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return models.Money{}, fmt.Errorf("price parse fail: %q", raw)
	}

	whole := strings.ReplaceAll(m[1], ",", "")
	frac := m[2]
	for len(frac) < 2 {
		frac += "0"
	}

	dollars, err := strconv.Atoi(whole)
	if err != nil {
		return models.Money{}, fmt.Errorf("price parse fail: %q: %w", raw, err)
	}
	cents, err := strconv.Atoi(frac)
	if err != nil {
		return models.Money{}, fmt.Errorf("price parse fail: %q: %w", raw, err)
	}

	return models.Money{
		AmountCents: dollars*100 + cents,
		Currency:    models.CurrencyNZD,
	}, nil
}

// WeightGrams scans the input for number+unit pairs ("1.5 kg", "750 g",
// "5lb", "1-kg") and converts the LAST match to grams, rounded to the
// nearest 10 g. Strings commonly carry several numbers (price then weight)
// so the last pair is the weight. Returns ok=false when no pair is found.
func WeightGrams(input string) (int, bool) {
	matches := weightPattern.FindAllStringSubmatch(input, -1)
	if len(matches) == 0 {
		return 0, false
	}

	last := matches[len(matches)-1]
	number := strings.TrimSpace(last[1])
	unit := strings.ToLower(strings.TrimSpace(last[2]))

	// Comma-only numerals are either thousands grouping (1,000) or a
	// European decimal comma (1,5).
	if strings.Contains(number, ",") && !strings.Contains(number, ".") {
		if thousands.MatchString(number) {
			number = strings.ReplaceAll(number, ",", "")
		} else {
			number = strings.Replace(number, ",", ".", 1)
		}
	} else {
		number = strings.ReplaceAll(number, ",", "")
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}

	var grams float64
	switch unit {
	case "g", "gram", "grams":
		grams = value
	case "kg", "kilogram", "kilograms":
		grams = value * 1000
	case "lb", "lbs", "pound", "pounds":
		grams = value * gramsPerPound
	default:
		return 0, false
	}

	return int(math.Round(grams/10)) * 10, true
}

// Capitalise title-cases each whitespace-separated word, forcing the fixed
// acronym set (NZ, ISO, WPI, ON) fully uppercase. Acronyms are matched
// after stripping non-letters, so "nz-made" keeps its suffix.
func Capitalise(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		plain := nonLetters.ReplaceAllString(w, "")
		if acronyms[strings.ToUpper(plain)] {
			words[i] = strings.ToUpper(plain) + w[len(plain):]
			continue
		}
		// Decode the first rune; byte-slicing would split multibyte
		// letters like "ō".
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// StripWeightSuffix removes a trailing weight marker and everything after
// it from a scraped title, e.g. "Whey Isolate - 1kg (Vanilla)" becomes
// "Whey Isolate". Used before Capitalise when deriving the base name.
func StripWeightSuffix(name string) string {
	return strings.TrimSpace(weightSuffix.ReplaceAllString(name, ""))
}
