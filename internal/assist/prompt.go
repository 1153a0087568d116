package assist

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxPromptBytes bounds the report text sent to the model.
const maxPromptBytes = 120_000

const instructions = `You structure consumer credit reports that were read by OCR.
Return one JSON object and nothing else. Follow the JSON Schema below exactly.

Rules:
- Report only values that appear in the text. Use null when a value is absent or unreadable.
- Never invent accounts, inquiries or records.
- Dates use MM/DD/YYYY, or MM/YYYY when the report gives no day.
- Money is a plain number without currency symbols or separators.
- ssnLast4 holds only the last four digits of the social security number.
- creditScores holds the score reported by each bureau, or null.
- inquiries.type is "soft" only for promotional, account review or consumer-initiated pulls.

JSON Schema:
`

// systemPrompt is identical for every document so it can be cached.
func systemPrompt() string {
	b, _ := json.MarshalIndent(Schema(), "", "  ") //nolint:errchkjson
	return instructions + string(b)
}

var ssnFullRe = regexp.MustCompile(`\b\d{3}[- ]?\d{2}[- ]?(\d{4})\b`)

// redact masks full social security numbers and bounds the text length.
func redact(text string) string {
	text = ssnFullRe.ReplaceAllStringFunc(text, func(m string) string {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, m)
		// Bare nine-digit runs are usually account numbers, not SSNs.
		if len(m) == len(digits) {
			return m
		}
		return "XXX-XX-" + digits[5:]
	})
	if len(text) <= maxPromptBytes {
		return text
	}
	cut := maxPromptBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// cleanJSON extracts a JSON object from text that may carry markdown code
// fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
