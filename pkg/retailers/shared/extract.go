package shared

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	priceRe   = regexp.MustCompile(`\$(\d+(?:,\d{3})*[.,]\d{2})`)
	tagRe     = regexp.MustCompile(`<[^>]*>`)
	entityMap = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
)

// ParseFirstFloat finds the first float match in the string using the
// provided regex. The regex must have at least one capture group.
func ParseFirstFloat(re *regexp.Regexp, s string) float64 {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0
	}
	var v float64
	fmt.Sscanf(strings.ReplaceAll(m[1], ",", ""), "%f", &v)
	return v
}

// ExtractPrice returns the first dollar amount found in the text, or nil when
// none is present.
func ExtractPrice(s string) *float64 {
	m := priceRe.FindStringSubmatch(s)
	if len(m) < 2 {
		return nil
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	raw = strings.ReplaceAll(raw, ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// ExtractPricePair returns the first two dollar amounts found in the text.
// The second amount is only returned when it is greater than the first, which
// is how strike-through "was" prices appear in listing markup.
func ExtractPricePair(s string) (price, original *float64) {
	ms := priceRe.FindAllStringSubmatch(s, 2)
	if len(ms) == 0 {
		return nil, nil
	}
	price = parseAmount(ms[0][1])
	if len(ms) > 1 {
		second := parseAmount(ms[1][1])
		if price != nil && second != nil && *second > *price {
			original = second
		}
	}
	return price, original
}

func parseAmount(raw string) *float64 {
	raw = strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// StripTags removes markup tags and decodes the common HTML entities,
// collapsing runs of whitespace to single spaces.
func StripTags(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = entityMap.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate limits s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Float returns a pointer to v. Convenience for building offers and tests.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
