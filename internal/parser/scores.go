package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/credit-extract/internal/confidence"
	"github.com/sells-group/credit-extract/internal/model"
)

var (
	bureauRe    = regexp.MustCompile(`(?i)\b(equifax|experian|trans\s?union)\b`)
	scoreWordRe = regexp.MustCompile(`(?i)\b(?:score|fico|vantage\s?score)`)
	scoreNumRe  = regexp.MustCompile(`\b(\d{3,4})\b`)
	digitRe     = regexp.MustCompile(`\d`)
)

type scoreHit struct {
	value    int
	strength float64
}

// scoreSet collects scores by bureau, keeping the first bureau order seen.
type scoreSet struct {
	hits  map[string]scoreHit
	order []string
}

// bureauIn returns the first bureau named in s.
func bureauIn(s string) string {
	m := bureauRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return canonicalBureau(m[1])
}

// bureausIn returns every bureau named in s, in order.
func bureausIn(s string) []string {
	var out []string
	for _, m := range bureauRe.FindAllStringSubmatch(s, -1) {
		out = append(out, canonicalBureau(m[1]))
	}
	return out
}

// parseScores reads bureau scores from every section that is not a record
// list.
func (r *run) parseScores() (map[string]model.CreditScore, model.CreditScore) {
	set := scoreSet{hits: make(map[string]scoreHit)}

	for _, s := range r.sections {
		switch s.kind {
		case sectionPreamble, sectionPersonal, sectionScores, sectionOther:
		default:
			continue
		}
		var columns []string
		for _, l := range s.lines {
			t := strings.TrimSpace(l)
			if t == "" {
				columns = nil
				continue
			}
			fields := splitFields(t)

			// Tri-merge layout: a bureau header row, then a score row.
			if bs := bureausIn(t); len(bs) >= 2 && len(fields) == 0 && !digitRe.MatchString(t) {
				columns = bs
				continue
			}
			if columns != nil && scoreWordRe.MatchString(t) {
				nums := scoreNumRe.FindAllStringSubmatch(t, -1)
				if len(nums) >= len(columns) {
					for i, b := range columns {
						r.addScore(&set, b, nums[i][1], confidence.StrengthLabeled)
					}
					columns = nil
					continue
				}
			}

			if len(fields) == 0 {
				b := bureauIn(t)
				if b != "" && (scoreWordRe.MatchString(t) || s.kind == sectionScores) {
					loc := bureauRe.FindStringIndex(t)
					r.addScore(&set, b, t[loc[1]:], confidence.StrengthLabeled)
				}
				continue
			}

			for _, f := range fields {
				r.scoreField(&set, s.kind, f)
			}
		}
	}

	scores := make(map[string]model.CreditScore, 4)
	for _, b := range model.KnownBureaus() {
		scores[b] = model.CreditScore{Bureau: b}
	}
	for _, b := range set.order {
		h := set.hits[b]
		scores[b] = model.CreditScore{
			Score:      model.IntPtr(h.value),
			Bureau:     b,
			Confidence: r.score(h.strength),
		}
	}
	return scores, bestScore(scores)
}

func (r *run) scoreField(set *scoreSet, kind sectionKind, f field) {
	scoreLabel := scoreWordRe.MatchString(f.label)
	if b := bureauIn(f.label); b != "" {
		switch {
		case scoreLabel:
			r.addScore(set, b, f.value, confidence.StrengthExact)
		case kind == sectionScores && canonicalBureau(f.label) == b:
			r.addScore(set, b, f.value, confidence.StrengthLabeled)
		}
		return
	}
	if !scoreLabel {
		return
	}
	if b := bureauIn(f.value); b != "" {
		r.addScore(set, b, f.value, confidence.StrengthLabeled)
		return
	}
	r.addScore(set, r.defaultBureau(), f.value, confidence.StrengthLabeled)
}

// defaultBureau attributes an unlabeled score to the bureau of a
// single-bureau report.
func (r *run) defaultBureau() string {
	if r.format.Bureau != "" {
		return r.format.Bureau
	}
	return model.BureauUnknown
}

func (r *run) addScore(set *scoreSet, bureau, raw string, strength float64) {
	m := scoreNumRe.FindStringSubmatch(raw)
	if m == nil {
		if digitRe.MatchString(raw) {
			r.warn("scores: %s score %q not recognized", bureau, strings.TrimSpace(raw))
		}
		return
	}
	v, _ := strconv.Atoi(m[1])
	if !model.ValidCreditScore(v) {
		r.warn("scores: %s score %d outside %d-%d", bureau, v, model.MinCreditScore, model.MaxCreditScore)
		return
	}
	prev, ok := set.hits[bureau]
	if !ok {
		set.hits[bureau] = scoreHit{value: v, strength: strength}
		set.order = append(set.order, bureau)
		return
	}
	if prev.value != v {
		r.warn("scores: conflicting %s scores %d and %d", bureau, prev.value, v)
		if strength <= prev.strength {
			return
		}
	}
	if strength > prev.strength {
		set.hits[bureau] = scoreHit{value: v, strength: strength}
	}
}

// bestScore picks the most confident located score; ties go to bureau order.
func bestScore(scores map[string]model.CreditScore) model.CreditScore {
	best := model.CreditScore{Bureau: model.BureauUnknown}
	for _, b := range append(model.KnownBureaus(), model.BureauUnknown) {
		s, ok := scores[b]
		if !ok || s.Score == nil {
			continue
		}
		if best.Score == nil || s.Confidence > best.Confidence {
			best = s
		}
	}
	return best
}
