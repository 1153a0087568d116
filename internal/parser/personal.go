package parser

import (
	"regexp"
	"strings"

	"github.com/sells-group/credit-extract/internal/confidence"
	"github.com/sells-group/credit-extract/internal/model"
)

var (
	nameLabels = labels("Name", "Full Name", "Consumer Name", "Consumer", "Report For",
		"Prepared For", "Name On File", "Primary Name")
	addressLabels = labels("Address", "Current Address", "Mailing Address", "Street Address",
		"Home Address", "Residence", "Residential Address", "Address On File")
	dobLabels = labels("Date of Birth", "DOB", "Birth Date", "Birthdate", "Born")
	ssnLabels = labels("SSN", "Social Security Number", "Social Security #", "Social Security",
		"SS#", "SSN Last 4", "Social Security No")
)

var (
	nameRe         = regexp.MustCompile(`^[A-Za-z][A-Za-z .,'-]{1,79}$`)
	cityStateZipRe = regexp.MustCompile(`^[A-Za-z][A-Za-z .'-]*,?\s+([A-Za-z]{2})\.?\s+\d{5}(?:-\d{4})?$`)
	stateZipRe     = regexp.MustCompile(`\b([A-Za-z]{2})\.?\s+\d{5}(?:-\d{4})?\b`)
	streetRe       = regexp.MustCompile(`(?i)^\d{1,6}\s+[A-Za-z0-9 .'#-]+?\s(?:st|street|ave|avenue|rd|road|dr|drive|ln|lane|blvd|boulevard|ct|court|way|pl|place|cir|circle|pkwy|parkway|hwy|highway|ter|terrace|trl|trail)\b\.?`)
	ssnRe          = regexp.MustCompile(`(?i)(?:^|[^\d])(?:\d{3}|[x*#]{3})[- ]?(?:\d{2}|[x*#]{2})[- ]?(\d{4})\b`)
	ssnLast4Re     = regexp.MustCompile(`\b(\d{4})\b`)
	ssnBareRe      = regexp.MustCompile(`(?i)\b(?:\d{3}|xxx|\*\*\*)-(?:\d{2}|xx|\*\*)-(\d{4})\b`)
)

// abbrToState maps lowercase USPS abbreviations to state names.
var abbrToState = map[string]string{
	"al": "alabama", "ak": "alaska", "az": "arizona", "ar": "arkansas",
	"ca": "california", "co": "colorado", "ct": "connecticut", "de": "delaware",
	"fl": "florida", "ga": "georgia", "hi": "hawaii", "id": "idaho",
	"il": "illinois", "in": "indiana", "ia": "iowa", "ks": "kansas",
	"ky": "kentucky", "la": "louisiana", "me": "maine", "md": "maryland",
	"ma": "massachusetts", "mi": "michigan", "mn": "minnesota", "ms": "mississippi",
	"mo": "missouri", "mt": "montana", "ne": "nebraska", "nv": "nevada",
	"nh": "new hampshire", "nj": "new jersey", "nm": "new mexico", "ny": "new york",
	"nc": "north carolina", "nd": "north dakota", "oh": "ohio", "ok": "oklahoma",
	"or": "oregon", "pa": "pennsylvania", "ri": "rhode island", "sc": "south carolina",
	"sd": "south dakota", "tn": "tennessee", "tx": "texas", "ut": "utah",
	"vt": "vermont", "va": "virginia", "wa": "washington", "wv": "west virginia",
	"wi": "wisconsin", "wy": "wyoming", "dc": "district of columbia", "pr": "puerto rico",
}

func validState(abbr string) bool {
	_, ok := abbrToState[strings.ToLower(abbr)]
	return ok
}

// MaskSSN reduces any SSN form to its last four digits. It returns "" when
// no four-digit group is present.
func MaskSSN(v string) string {
	if m := ssnRe.FindStringSubmatch(v); m != nil {
		return "XXX-XX-" + m[1]
	}
	if m := ssnLast4Re.FindAllStringSubmatch(v, -1); len(m) > 0 {
		return "XXX-XX-" + m[len(m)-1][1]
	}
	return ""
}

// parsePersonal reads identification from the personal section, the
// preamble and the score section, in that order of preference.
func (r *run) parsePersonal() model.PersonalInfo {
	var info model.PersonalInfo

	lines := linesOf(r.sections, sectionPersonal)
	lines = append(lines, linesOf(r.sections, sectionPreamble, sectionScores)...)

	for i, l := range lines {
		for _, f := range splitFields(l) {
			switch {
			case nameLabels.has(f.label) && info.Name == nil:
				r.personalName(&info, f.value)
			case addressLabels.has(f.label) && info.Address == nil:
				r.personalAddress(&info, f.value, next(lines, i))
			case dobLabels.has(f.label) && info.DateOfBirth == nil:
				r.personalDOB(&info, f.value)
			case ssnLabels.has(f.label) && info.SSN == nil:
				r.personalSSN(&info, f.value)
			}
		}
	}

	// Unlabeled fallbacks, personal section first.
	personal := linesOf(r.sections, sectionPersonal)
	if info.Name == nil {
		for _, l := range personal {
			t := strings.TrimSpace(l)
			if isHeaderLine(t) && nameRe.MatchString(t) && len(strings.Fields(t)) >= 2 && len(strings.Fields(t)) <= 4 {
				info.Name = model.StringPtr(t)
				info.FieldConfidence.Name = r.score(confidence.StrengthHeuristic)
				break
			}
		}
	}
	if info.Address == nil {
		for i, l := range lines {
			t := strings.TrimSpace(l)
			if !streetRe.MatchString(t) || isLabeled(t) {
				continue
			}
			strength := confidence.StrengthHeuristic
			if n := next(lines, i); cityStateZipRe.MatchString(n) {
				if m := cityStateZipRe.FindStringSubmatch(n); validState(m[1]) {
					t += ", " + n
					strength = confidence.StrengthInferred
				}
			}
			info.Address = model.StringPtr(t)
			info.FieldConfidence.Address = r.score(strength)
			break
		}
	}
	if info.SSN == nil {
		for _, l := range lines {
			if m := ssnBareRe.FindStringSubmatch(l); m != nil {
				info.SSN = model.StringPtr("XXX-XX-" + m[1])
				info.FieldConfidence.SSN = r.score(confidence.StrengthHeuristic)
				break
			}
		}
	}

	var found []float64
	for _, c := range []float64{
		info.FieldConfidence.Name, info.FieldConfidence.Address,
		info.FieldConfidence.DateOfBirth, info.FieldConfidence.SSN,
	} {
		if c > 0 {
			found = append(found, c)
		}
	}
	info.Confidence = confidence.Mean(found)
	return info
}

func (r *run) personalName(info *model.PersonalInfo, v string) {
	v = strings.Join(strings.Fields(v), " ")
	if emptyValue(v) {
		return
	}
	if !nameRe.MatchString(v) {
		r.warn("personal: name %q not recognized", v)
		return
	}
	strength := confidence.StrengthExact
	if len(strings.Fields(v)) < 2 {
		strength = confidence.StrengthLabeled
	}
	info.Name = model.StringPtr(v)
	info.FieldConfidence.Name = r.score(strength)
}

func (r *run) personalAddress(info *model.PersonalInfo, v, following string) {
	v = strings.Join(strings.Fields(v), " ")
	if emptyValue(v) {
		return
	}
	if !stateZipRe.MatchString(v) && cityStateZipRe.MatchString(following) && !isLabeled(following) {
		v += ", " + following
	}
	strength := confidence.StrengthLabeled
	if m := stateZipRe.FindStringSubmatch(v); m != nil && validState(m[1]) {
		strength = confidence.StrengthExact
	}
	info.Address = model.StringPtr(v)
	info.FieldConfidence.Address = r.score(strength)
}

func (r *run) personalDOB(info *model.PersonalInfo, v string) {
	if emptyValue(v) {
		return
	}
	d, ok := findDate(v)
	if !ok {
		r.warn("personal: date of birth %q not recognized", v)
		return
	}
	strength := confidence.StrengthExact
	if len(d) == len(monthLayout) {
		strength = confidence.StrengthLabeled
	}
	info.DateOfBirth = model.StringPtr(d)
	info.FieldConfidence.DateOfBirth = r.score(strength)
}

func (r *run) personalSSN(info *model.PersonalInfo, v string) {
	if emptyValue(v) {
		return
	}
	strength := confidence.StrengthExact
	if ssnRe.FindStringSubmatch(v) == nil {
		strength = confidence.StrengthLabeled
	}
	masked := MaskSSN(v)
	if masked == "" {
		r.warn("personal: ssn value not recognized")
		return
	}
	info.SSN = model.StringPtr(masked)
	info.FieldConfidence.SSN = r.score(strength)
}

func next(lines []string, i int) string {
	if i+1 < len(lines) {
		return strings.TrimSpace(lines[i+1])
	}
	return ""
}
