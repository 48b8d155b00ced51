package ingest

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sstab/models"
	"sstab/utils"
)

// DefaultRateSuffixes are the throughput units stripped before numeric parsing.
var DefaultRateSuffixes = []string{"Gbps", "Mbps", "Kbps", "bps"}

// decimalNumeral is an optional sign, digits and at most one fraction point.
var decimalNumeral = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)$`)

// Typer converts raw tokens into typed values.
type Typer struct {
	suffixes []string // longest first so "Mbps" wins over "bps"
}

// NewTyper returns a Typer recognising the given rate suffixes.
// A nil or empty list selects DefaultRateSuffixes.
func NewTyper(rateSuffixes []string) *Typer {
	if len(rateSuffixes) == 0 {
		rateSuffixes = DefaultRateSuffixes
	}
	s := append([]string(nil), rateSuffixes...)
	sort.SliceStable(s, func(i, j int) bool { return len(s[i]) > len(s[j]) })
	return &Typer{suffixes: s}
}

var defaultTyper = NewTyper(nil)

// Type converts token with the default rate suffixes.
func Type(token string) models.Value {
	return defaultTyper.Type(token)
}

// Type converts a token into a Float or Text value. Checks run in order:
// rate suffix, percent marker, plain decimal. Anything else is Text.
func (t *Typer) Type(token string) models.Value {
	for _, suf := range t.suffixes {
		if strings.HasSuffix(token, suf) {
			if v, ok := parseDecimal(strings.TrimSuffix(token, suf)); ok {
				return models.Float(v)
			}
			break
		}
	}

	if strings.Contains(token, "%") {
		if v, ok := parseDecimal(strings.ReplaceAll(token, "%", "")); ok {
			return models.Float(v)
		}
	}

	if digitsOnly(strings.ReplaceAll(token, ".", "")) {
		v, err := strconv.ParseFloat(token, 64)
		if err == nil {
			return models.Float(v)
		}
		utils.L().Debug("token %q looks numeric but does not parse, kept as text", token)
	}

	return models.Text(token)
}

func parseDecimal(s string) (float64, bool) {
	if !decimalNumeral.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
