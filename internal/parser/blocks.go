package parser

import "strings"

// block is one record inside a section: an optional upper-case title line,
// its labeled fields and any unlabeled lines.
type block struct {
	title  string
	fields []field
	lines  []string
}

func (b *block) empty() bool {
	return b.title == "" && len(b.fields) == 0 && len(b.lines) == 0
}

// get returns the first non-empty value whose label is in set.
func (b *block) get(set labelSet) (string, bool) {
	for _, f := range b.fields {
		if set.has(f.label) && !emptyValue(f.value) {
			return f.value, true
		}
	}
	return "", false
}

// labeled reports whether any field label is in set, even with an empty
// value.
func (b *block) labeled(set labelSet) bool {
	for _, f := range b.fields {
		if set.has(f.label) {
			return true
		}
	}
	return false
}

// text returns the title and unlabeled lines in order.
func (b *block) text() []string {
	var out []string
	if b.title != "" {
		out = append(out, b.title)
	}
	return append(out, b.lines...)
}

// segment groups lines into records. A record ends at a blank line, at a
// repeated start label, or at a new upper-case title line.
func segment(lines []string, start labelSet) []block {
	var out []block
	var cur block
	flush := func() {
		if !cur.empty() {
			out = append(out, cur)
		}
		cur = block{}
	}

	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" {
			flush()
			continue
		}
		fs := splitFields(t)
		if len(fs) == 0 {
			if isHeaderLine(t) {
				if !cur.empty() {
					flush()
				}
				cur.title = t
				continue
			}
			cur.lines = append(cur.lines, t)
			continue
		}
		if start.has(fs[0].label) && cur.labeled(start) {
			flush()
		}
		cur.fields = append(cur.fields, fs...)
	}
	flush()

	return mergeTitles(out)
}

// mergeTitles folds a title-only block into the record that follows it, so
// a creditor name separated from its details by a blank line stays attached.
func mergeTitles(blocks []block) []block {
	out := make([]block, 0, len(blocks))
	for i := 0; i < len(blocks); i++ {
		b := blocks[i]
		if b.title != "" && len(b.fields) == 0 && len(b.lines) == 0 && i+1 < len(blocks) {
			next := blocks[i+1]
			if len(next.fields) > 0 {
				if next.title != "" {
					next.lines = append([]string{next.title}, next.lines...)
				}
				next.title = b.title
				blocks[i+1] = next
				continue
			}
		}
		out = append(out, b)
	}
	return out
}
