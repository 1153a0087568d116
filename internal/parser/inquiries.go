package parser

import (
	"strings"

	"github.com/sells-group/credit-extract/internal/confidence"
	"github.com/sells-group/credit-extract/internal/model"
)

// Inquiry types.
const (
	InquiryHard = "hard"
	InquirySoft = "soft"
)

var (
	inquirerLabels = labels("Creditor", "Creditor Name", "Company", "Company Name", "Inquirer",
		"Inquired By", "Subscriber", "Subscriber Name", "Requested By", "Name")
	inquiryDateLabels = labels("Date", "Inquiry Date", "Date of Inquiry", "Inquiry Dates",
		"Requested On", "Date Requested")
	inquiryTypeLabels = labels("Type", "Inquiry Type", "Permissible Purpose", "Purpose")
)

// parseInquiries reads labeled inquiry records and "CREDITOR  DATE" rows.
func (r *run) parseInquiries() []model.Inquiry {
	out := []model.Inquiry{}
	for _, s := range r.sections {
		if s.kind != sectionInquiries {
			continue
		}
		for _, b := range segment(s.lines, inquirerLabels) {
			q, titled, ok := r.labeledInquiry(s, b)
			rows := b.lines
			if !titled {
				rows = b.text()
			}
			for _, l := range rows {
				if row, ok := r.inquiryRow(s, l); ok {
					out = append(out, row)
				}
			}
			if ok {
				out = append(out, q)
			}
		}
	}
	return out
}

// labeledInquiry reads a record built from labels. titled reports that the
// block title was taken as the creditor.
func (r *run) labeledInquiry(s section, b block) (q model.Inquiry, titled, ok bool) {
	creditor, ok := b.get(inquirerLabels)
	if !ok {
		if b.title == "" || !b.labeled(inquiryDateLabels) {
			return q, false, false
		}
		creditor, titled = b.title, true
	}
	q.CreditorName = strings.Join(strings.Fields(creditor), " ")

	if v, found := b.get(inquiryDateLabels); found {
		q.Date = r.date("inquiries", q.CreditorName, v)
	}
	typ, _ := b.get(inquiryTypeLabels)
	q.Type = inquiryType(s, typ)

	strength := confidence.StrengthLabeled
	switch {
	case !titled && q.Date != "":
		strength = confidence.StrengthExact
	case titled && q.Date == "":
		strength = confidence.StrengthInferred
	}
	q.Confidence = r.score(strength)
	return q, titled, true
}

// inquiryRow reads one "CREDITOR    01/15/2024" line.
func (r *run) inquiryRow(s section, line string) (model.Inquiry, bool) {
	loc := dateRe.FindStringIndex(line)
	if loc == nil {
		return model.Inquiry{}, false
	}
	creditor := strings.Trim(strings.TrimSpace(line[:loc[0]]), "-|,")
	creditor = strings.Join(strings.Fields(creditor), " ")
	if creditor == "" || !hasLetter(creditor) {
		return model.Inquiry{}, false
	}
	d, ok := normalizeDate(line[loc[0]:loc[1]])
	if !ok {
		r.warn("inquiries: %s date %q not recognized", creditor, line[loc[0]:loc[1]])
		return model.Inquiry{}, false
	}
	return model.Inquiry{
		CreditorName: creditor,
		Date:         d,
		Type:         inquiryType(s, line[loc[1]:]),
		Confidence:   r.score(confidence.StrengthLabeled),
	}, true
}

func inquiryType(s section, hint string) string {
	h := strings.ToLower(hint)
	if s.soft() || strings.Contains(h, "soft") || strings.Contains(h, "promotional") ||
		strings.Contains(h, "account review") {
		return InquirySoft
	}
	return InquiryHard
}

func hasLetter(s string) bool {
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return true
		}
	}
	return false
}
