package assist

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sells-group/credit-extract/internal/model"
)

const schemaURL = "credit-suggestion.json"

// Schema returns the JSON Schema the model's answer must satisfy. Every
// property is nullable so the model can say it did not find a value.
func Schema() map[string]any {
	scores := map[string]any{}
	for _, b := range model.KnownBureaus() {
		scores[b] = map[string]any{
			"type":    []string{"integer", "null"},
			"minimum": model.MinCreditScore,
			"maximum": model.MaxCreditScore,
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"personalInfo": object(map[string]any{
				"name":        nullableString(),
				"address":     nullableString(),
				"dateOfBirth": nullableString(),
				"ssnLast4": map[string]any{
					"type":    []string{"string", "null"},
					"pattern": `^\d{4}$`,
				},
			}, nil),
			"creditScores": object(scores, nil),
			"accounts": list(object(map[string]any{
				"creditorName":  map[string]any{"type": "string", "minLength": 1},
				"accountNumber": nullableString(),
				"accountType":   nullableString(),
				"balance":       nullableNumber(),
				"creditLimit":   nullableNumber(),
				"status":        nullableString(),
				"dateOpened":    nullableString(),
				"lastActivity":  nullableString(),
			}, []string{"creditorName"})),
			"inquiries": list(object(map[string]any{
				"creditorName": map[string]any{"type": "string", "minLength": 1},
				"date":         nullableString(),
				"type":         map[string]any{"enum": []any{"hard", "soft", nil}},
			}, []string{"creditorName"})),
			"publicRecords": list(object(map[string]any{
				"type":            map[string]any{"type": "string", "minLength": 1},
				"court":           nullableString(),
				"referenceNumber": nullableString(),
				"amount":          nullableNumber(),
				"dateFiled":       nullableString(),
				"status":          nullableString(),
			}, []string{"type"})),
		},
	}
}

func object(props map[string]any, required []string) map[string]any {
	o := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

func list(item map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": item}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func nullableNumber() map[string]any {
	return map[string]any{"type": []string{"number", "null"}}
}

// compileSchema compiles Schema once per Refiner.
func compileSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(Schema())
	if err != nil {
		return nil, eris.Wrap(err, "assist: marshal schema")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, eris.Wrap(err, "assist: add schema")
	}
	s, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, eris.Wrap(err, "assist: compile schema")
	}
	return s, nil
}

// validate checks raw JSON against the compiled schema.
func validate(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return eris.Wrap(err, "assist: decode response")
	}
	if err := s.Validate(v); err != nil {
		return eris.Wrap(err, "assist: response does not match schema")
	}
	return nil
}
