// Package brands resolves free-text product titles against dynamically
// collected lists of known brand names.
package brands

import (
	"regexp"
	"sort"
	"strings"
)

var gaps = regexp.MustCompile(`\s+`)

// Generic suffixes stripped when grouping near-duplicate brand names,
// e.g. "Balance" and "Balance Sports Nutrition" collapse to one entry.
var genericSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsports nutrition\b`),
	regexp.MustCompile(`(?i)\bnutrition\b`),
	regexp.MustCompile(`(?i)\blifestyle\b`),
	regexp.MustCompile(`(?i)\bsupplements\b`),
}

// Split tries each known brand in list order as a case-insensitive prefix
// of the title, requiring a separator (space, hyphen, dot, colon) or the
// end of the string after it. A fallback pass matches on just the brand's
// first word, for titles with truncated or alternate brand spellings
// ("Inc Micellar Casein" vs brand "INC Sports"). The first match wins, so
// caller-supplied ordering acts as a priority.
//
// On a match the brand and any leading separators are stripped from the
// title to produce the base name. ok is false when no brand matched; the
// caller substitutes the store's own brand.
func Split(title string, known []string) (brand, base string, ok bool) {
	base = gaps.ReplaceAllString(strings.TrimSpace(title), " ")

	for _, raw := range known {
		candidate := strings.TrimSpace(raw)
		if candidate == "" {
			continue
		}

		if rest, matched := stripPrefix(base, candidate); matched {
			return candidate, rest, true
		}

		firstWord := strings.Fields(candidate)[0]
		if rest, matched := stripPrefix(base, firstWord); matched {
			return candidate, rest, true
		}
	}

	return "", base, false
}

// stripPrefix removes prefix (case-insensitively, separator-bounded) and
// any trailing separator run from s.
func stripPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	rest := s[len(prefix):]
	if rest != "" && !isSeparator(rest[0]) {
		return s, false
	}
	return strings.TrimLeft(rest, " -.:"), true
}

func isSeparator(c byte) bool {
	return c == ' ' || c == '-' || c == '.' || c == ':'
}

// Canonicalise dedupes a scraped brand list by a suffix-stripped key,
// keeping the longest variant of each group as canonical. The result is
// sorted longest-first (ties lexicographic) so that Split's first-match
// priority is deterministic across runs and prefers the most specific
// brand.
func Canonicalise(names []string) []string {
	byKey := make(map[string]string)

	for _, raw := range names {
		name := gaps.ReplaceAllString(strings.TrimSpace(raw), " ")
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		for _, suffix := range genericSuffixes {
			key = suffix.ReplaceAllString(key, "")
		}
		key = strings.TrimSpace(gaps.ReplaceAllString(key, " "))
		if key == "" {
			key = strings.ToLower(name)
		}

		if existing, seen := byKey[key]; !seen || len(name) > len(existing) {
			byKey[key] = name
		}
	}

	out := make([]string, 0, len(byKey))
	for _, name := range byKey {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})

	return out
}
