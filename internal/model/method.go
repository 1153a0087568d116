package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Method identifies the tier that produced an extraction. Tiers are listed in
// descending order of expected accuracy.
type Method int

const (
	MethodStructuredDocument Method = iota + 1
	MethodGeneralOCR
	MethodBasicImageOCR
	MethodFallback
)

var methodLabels = map[Method]string{
	MethodStructuredDocument: "google-documentai",
	MethodGeneralOCR:         "google-vision",
	MethodBasicImageOCR:      "basic-ocr",
	MethodFallback:           "fallback",
}

// Label returns the stable external name used in outcomes.
func (m Method) Label() string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return "unknown"
}

func (m Method) String() string { return m.Label() }

// ParseMethod converts an external label back to a Method.
func ParseMethod(label string) (Method, error) {
	for m, l := range methodLabels {
		if l == label {
			return m, nil
		}
	}
	return 0, eris.Errorf("model: unknown processing method %q", label)
}

// MarshalJSON encodes the method as its label.
func (m Method) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Label())
}

// UnmarshalJSON decodes a label.
func (m *Method) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return eris.Wrap(err, "model: decode processing method")
	}
	parsed, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
