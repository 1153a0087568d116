package parser

import (
	"strings"
	"unicode"
)

type sectionKind int

const (
	sectionPreamble sectionKind = iota
	sectionPersonal
	sectionScores
	sectionAccounts
	sectionNegative
	sectionInquiries
	sectionPublic
	sectionOther
)

var headingKinds = map[sectionKind][]string{
	sectionPersonal: {
		"personal information", "personal info", "personal data", "personal profile",
		"consumer information", "identification", "identifying information",
		"personal identification information",
	},
	sectionScores: {
		"credit score", "credit scores", "your credit score", "your credit scores",
		"score summary", "fico score", "fico scores", "vantagescore", "score information",
	},
	sectionAccounts: {
		"accounts", "account information", "account details", "account history",
		"credit accounts", "tradelines", "trade lines", "trade line information",
		"revolving accounts", "installment accounts", "mortgage accounts",
		"open accounts", "closed accounts", "satisfactory accounts", "other accounts",
	},
	sectionNegative: {
		"negative items", "negative information", "negative accounts",
		"potentially negative items", "adverse accounts", "adverse information",
		"derogatory items", "derogatory accounts", "collections", "collection accounts",
	},
	sectionInquiries: {
		"inquiries", "credit inquiries", "hard inquiries", "soft inquiries",
		"regular inquiries", "promotional inquiries", "account review inquiries",
		"inquiry information", "requests for your credit history",
		"requests viewed only by you", "requests viewed by others",
	},
	sectionPublic: {
		"public records", "public record", "public record information", "court records",
	},
	sectionOther: {
		"summary", "report summary", "account summary", "credit summary",
		"consumer statement", "personal statement", "creditor contacts",
		"contact information", "employment", "employment information",
		"employment history", "disputes", "dispute information", "important information",
	},
}

var headingIndex = func() map[string]sectionKind {
	m := make(map[string]sectionKind)
	for kind, names := range headingKinds {
		for _, n := range names {
			m[normalizeLabel(n)] = kind
		}
	}
	return m
}()

// section is a run of lines under one heading. Lines before the first
// heading form the preamble.
type section struct {
	kind  sectionKind
	title string // normalized heading
	lines []string
}

// soft reports an inquiry section that lists soft pulls only.
func (s section) soft() bool {
	return strings.Contains(s.title, "soft") ||
		strings.Contains(s.title, "promotional") ||
		strings.Contains(s.title, "account review") ||
		strings.Contains(s.title, "viewed only by you")
}

// headingKind recognizes a heading line. Headings may carry a trailing
// colon or item count: "ACCOUNTS (3)", "Inquiries:".
func headingKind(line string) (sectionKind, string, bool) {
	t := strings.TrimSpace(line)
	if t == "" || len(t) > 64 {
		return 0, "", false
	}
	t = strings.TrimRight(t, ":")
	if strings.Contains(t, ":") {
		return 0, "", false
	}
	words := strings.Fields(normalizeLabel(t))
	for len(words) > 0 && isNumber(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	n := strings.Join(words, " ")
	kind, ok := headingIndex[n]
	return kind, n, ok
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// splitSections cuts the report at recognized headings.
func splitSections(lines []string) []section {
	cur := section{kind: sectionPreamble}
	var out []section
	for _, l := range lines {
		if kind, title, ok := headingKind(l); ok {
			out = append(out, cur)
			cur = section{kind: kind, title: title}
			continue
		}
		cur.lines = append(cur.lines, l)
	}
	return append(out, cur)
}

// linesOf concatenates the lines of every section of the given kinds, in
// document order. Sections are separated by a blank line.
func linesOf(sections []section, kinds ...sectionKind) []string {
	var out []string
	for _, s := range sections {
		for _, k := range kinds {
			if s.kind == k {
				out = append(out, s.lines...)
				out = append(out, "")
				break
			}
		}
	}
	return out
}

func hasSection(sections []section, kind sectionKind) bool {
	for _, s := range sections {
		if s.kind == kind {
			return true
		}
	}
	return false
}
