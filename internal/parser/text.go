package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalize folds compatibility forms, unifies line endings and trims
// trailing space so line-oriented matching sees one canonical layout.
func normalize(text string) []string {
	t := norm.NFKC.String(text)
	t = strings.ReplaceAll(t, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = strings.ReplaceAll(t, "\t", "    ")

	lines := strings.Split(t, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	return lines
}

// normalizeLabel lowercases a label and reduces it to letters, digits and
// single spaces. "#" reads as "number", so "Acct #" and "Acct Number" match.
func normalizeLabel(label string) string {
	l := strings.ToLower(label)
	l = strings.ReplaceAll(l, "#", " number ")
	var b strings.Builder
	space := false
	for _, r := range l {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space && b.Len() > 0 {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// labelSet is a set of normalized labels.
type labelSet map[string]struct{}

func labels(names ...string) labelSet {
	s := make(labelSet, len(names))
	for _, n := range names {
		s[normalizeLabel(n)] = struct{}{}
	}
	return s
}

func (s labelSet) has(label string) bool {
	_, ok := s[label]
	return ok
}

// field is one "Label: value" pair.
type field struct {
	label string // normalized
	value string
}

var chunkSplitRe = regexp.MustCompile(`\s{3,}|\s+\|\s+`)

// splitFields parses every "Label: value" pair on a line. Pairs may share a
// line when separated by wide gaps or pipes.
func splitFields(line string) []field {
	var out []field
	for _, chunk := range chunkSplitRe.Split(strings.TrimSpace(line), -1) {
		f, ok := labelValue(chunk)
		switch {
		case ok:
			out = append(out, f)
		case len(out) > 0 && out[len(out)-1].value == "":
			// "Name:      JOHN DOE" puts the value in its own chunk.
			out[len(out)-1].value = strings.TrimSpace(chunk)
		}
	}
	return out
}

// labelValue splits "Label: value". The label must start with a letter and
// stay short; URLs and clock times are not labels.
func labelValue(chunk string) (field, bool) {
	idx := strings.Index(chunk, ":")
	if idx <= 0 || idx > 48 {
		return field{}, false
	}
	raw := strings.TrimSpace(chunk[:idx])
	value := strings.TrimSpace(chunk[idx+1:])
	if raw == "" || !unicode.IsLetter([]rune(raw)[0]) || strings.HasPrefix(value, "//") {
		return field{}, false
	}
	label := normalizeLabel(raw)
	if label == "" || len(strings.Fields(label)) > 6 {
		return field{}, false
	}
	return field{label: label, value: value}, true
}

// isLabeled reports whether the line holds at least one label.
func isLabeled(line string) bool {
	return len(splitFields(line)) > 0
}

// isHeaderLine reports an unlabeled, mostly upper-case line such as a
// creditor name printed above its details.
func isHeaderLine(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" || len(t) > 64 || strings.Contains(t, ":") {
		return false
	}
	var letters, upper, digits int
	for _, r := range t {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		case unicode.IsDigit(r):
			digits++
		}
	}
	return letters >= 3 && upper*10 >= letters*8 && digits*2 <= letters
}

// emptyValue reports placeholder values bureaus print for missing data.
func emptyValue(v string) bool {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(v), ".")) {
	case "", "-", "--", "n/a", "na", "none", "not reported", "unknown", "not available":
		return true
	}
	return false
}

var moneyRe = regexp.MustCompile(`\(?-?\$?\s*\d[\d,]*(?:\.\d{1,2})?\)?`)

// parseMoney reads the first amount in v. "$1,234.56", "1234" and
// "(50.00)" are accepted.
func parseMoney(v string) (*float64, bool) {
	if emptyValue(v) {
		return nil, false
	}
	m := moneyRe.FindString(v)
	if m == "" {
		return nil, false
	}
	neg := strings.HasPrefix(m, "(") && strings.HasSuffix(m, ")") || strings.Contains(m, "-")
	clean := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' {
			return r
		}
		return -1
	}, m)
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil, false
	}
	if neg {
		f = -f
	}
	return &f, true
}

const (
	months = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`

	dayLayout   = "01/02/2006"
	monthLayout = "01/2006"
)

var dateRe = regexp.MustCompile(`(?i)\b(?:` +
	`\d{4}-\d{1,2}-\d{1,2}` +
	`|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}` +
	`|\d{1,2}/\d{4}` +
	`|` + months + `\s+\d{1,2},?\s+\d{4}` +
	`|` + months + `\s+\d{4}` +
	`)\b`)

var dayLayouts = []string{
	"2006-1-2", "1/2/2006", "1-2-2006", "1/2/06", "1-2-06",
	"Jan 2, 2006", "Jan 2 2006", "January 2, 2006", "January 2 2006",
}

var monthLayouts = []string{"1/2006", "Jan 2006", "January 2006"}

// findDate returns the first date in v normalized to MM/DD/YYYY, or MM/YYYY
// when the source has no day.
func findDate(v string) (string, bool) {
	m := dateRe.FindString(v)
	if m == "" {
		return "", false
	}
	return normalizeDate(m)
}

func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = titleMonth(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Two-digit years never resolve into the future.
			if strings.HasSuffix(layout, "06") && !strings.HasSuffix(layout, "2006") && t.Year() > time.Now().Year() {
				t = t.AddDate(-100, 0, 0)
			}
			if t.Year() < 1900 {
				return "", false
			}
			return t.Format(dayLayout), true
		}
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(monthLayout), true
		}
	}
	return "", false
}

// titleMonth capitalizes a leading month name so time.Parse accepts
// "JAN 2020" and "jan 2020".
func titleMonth(s string) string {
	if s == "" || !unicode.IsLetter(rune(s[0])) {
		return s
	}
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		end = len(s)
	}
	word := strings.ToLower(s[:end])
	if word == "sept" {
		word = "sep"
	}
	return strings.ToUpper(word[:1]) + word[1:] + s[end:]
}
