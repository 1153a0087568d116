package parser

import (
	"strings"

	"github.com/sells-group/credit-extract/internal/confidence"
	"github.com/sells-group/credit-extract/internal/model"
)

var (
	recordTypeLabels = labels("Type", "Record Type", "Public Record Type", "Classification",
		"Filing Type")
	courtLabels = labels("Court", "Court Name", "Filed In", "Court Location", "Jurisdiction",
		"Court Type")
	referenceLabels = labels("Reference Number", "Reference #", "Case Number", "Case #",
		"Docket Number", "Docket #", "Docket", "Reference", "File Number", "Book Page")
	recordAmountLabels = labels("Amount", "Liability", "Liability Amount", "Judgment Amount",
		"Lien Amount", "Amount Owed")
	filedLabels = labels("Date Filed", "Filed", "Filing Date", "Date", "Filed Date")
	dispositionLabels = labels("Status", "Disposition", "Current Status", "Date Resolved Status")
)

// recordKinds maps keywords found in an unlabeled record to its type.
var recordKinds = []struct {
	keyword string
	kind    string
}{
	{"chapter 7", "Bankruptcy Chapter 7"},
	{"chapter 13", "Bankruptcy Chapter 13"},
	{"chapter 11", "Bankruptcy Chapter 11"},
	{"bankruptcy", "Bankruptcy"},
	{"tax lien", "Tax Lien"},
	{"civil judgment", "Civil Judgment"},
	{"small claims", "Small Claims Judgment"},
	{"judgment", "Judgment"},
	{"lien", "Lien"},
	{"foreclosure", "Foreclosure"},
}

func inferRecordType(text string) string {
	t := strings.ToLower(text)
	for _, k := range recordKinds {
		if strings.Contains(t, k.keyword) {
			return k.kind
		}
	}
	return ""
}

// parsePublicRecords reads bankruptcy, lien and judgment records.
func (r *run) parsePublicRecords() []model.PublicRecord {
	out := []model.PublicRecord{}
	for _, s := range r.sections {
		if s.kind != sectionPublic {
			continue
		}
		for _, b := range segment(s.lines, recordTypeLabels) {
			if p, ok := r.publicRecord(b); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func (r *run) publicRecord(b block) (model.PublicRecord, bool) {
	var p model.PublicRecord
	labeledType := true
	typ, ok := b.get(recordTypeLabels)
	if !ok {
		typ = inferRecordType(strings.Join(b.text(), " "))
		labeledType = false
	}
	p.Type = strings.Join(strings.Fields(typ), " ")

	found := 0
	if v, ok := b.get(courtLabels); ok {
		p.Court = v
		found++
	}
	if v, ok := b.get(referenceLabels); ok {
		p.ReferenceNumber = v
		found++
	}
	if v, ok := b.get(recordAmountLabels); ok {
		if m, ok := parseMoney(v); ok {
			p.Amount = m
			found++
		}
	}
	if v, ok := b.get(filedLabels); ok {
		p.DateFiled = r.date("public records", p.Type, v)
		if p.DateFiled != "" {
			found++
		}
	}
	if v, ok := b.get(dispositionLabels); ok {
		p.Status = v
	}

	if p.Type == "" && found == 0 {
		return p, false
	}
	if p.Type == "" {
		r.warn("public records: record %q has no type", p.ReferenceNumber)
	}

	var strength float64
	switch {
	case labeledType && found >= 3:
		strength = confidence.StrengthExact
	case labeledType && found >= 1:
		strength = confidence.StrengthLabeled
	case p.Type != "" && found >= 1:
		strength = confidence.StrengthInferred
	default:
		strength = confidence.StrengthHeuristic
	}
	p.Confidence = r.score(strength)
	return p, true
}
