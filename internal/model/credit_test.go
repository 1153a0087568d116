package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStructuredCreditDataShape(t *testing.T) {
	d := NewStructuredCreditData()

	assert.NotNil(t, d.Accounts)
	assert.NotNil(t, d.NegativeItems)
	assert.NotNil(t, d.Inquiries)
	assert.NotNil(t, d.PublicRecords)
	assert.Equal(t, FormatUnknown, d.ExtractionMetadata.DetectedReportFormat)
	for _, b := range KnownBureaus() {
		s, ok := d.CreditScores[b]
		require.True(t, ok, b)
		assert.Nil(t, s.Score)
		assert.Zero(t, s.Confidence)
	}
}

func TestOutcomeJSONShape(t *testing.T) {
	d := NewStructuredCreditData()
	d.PersonalInfo.Name = StringPtr("John Doe")
	d.CreditScore = CreditScore{Score: IntPtr(720), Bureau: BureauUnknown, Confidence: 95}
	d.ExtractionMetadata.ProcessingMethod = MethodStructuredDocument

	out := ExtractionOutcome{
		Text:             "Name: John Doe",
		Pages:            1,
		Confidence:       95,
		ProcessingMethod: MethodStructuredDocument,
		ProcessingTime:   12,
		ExtractedData:    d,
	}
	b, err := json.Marshal(out)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	for _, k := range []string{"text", "pages", "confidence", "processingMethod", "processingTime", "extractedData"} {
		assert.Contains(t, raw, k)
	}
	assert.Equal(t, "google-documentai", raw["processingMethod"])

	data := raw["extractedData"].(map[string]any)
	for _, k := range []string{"personalInfo", "creditScore", "accounts", "negativeItems", "inquiries", "publicRecords"} {
		assert.Contains(t, data, k)
	}
	assert.Equal(t, []any{}, data["accounts"])
	assert.Equal(t, []any{}, data["publicRecords"])

	pi := data["personalInfo"].(map[string]any)
	assert.Equal(t, "John Doe", pi["name"])
	assert.Nil(t, pi["address"])
	assert.Contains(t, pi, "ssn")
	assert.Contains(t, pi, "confidence")

	cs := data["creditScore"].(map[string]any)
	assert.InDelta(t, 720, cs["score"], 0)
}

func TestEnsureShapeRestoresNilCollections(t *testing.T) {
	var d StructuredCreditData
	require.NoError(t, json.Unmarshal([]byte(`{"accounts":null}`), &d))
	d.EnsureShape()

	assert.NotNil(t, d.Accounts)
	assert.NotNil(t, d.Inquiries)
	assert.Len(t, d.CreditScores, 3)
	assert.Equal(t, FormatUnknown, d.ExtractionMetadata.DetectedReportFormat)
}

func TestNormalizeAccountStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want AccountStatus
	}{
		{"Pays as agreed", StatusCurrent},
		{"Paid as agreed", StatusCurrent},
		{"Open", StatusCurrent},
		{"CURRENT", StatusCurrent},
		{"30 days past due", StatusLate30},
		{"Late 60 Days", StatusLate60},
		{"90 days late", StatusLate90},
		{"120+ days past due", StatusLate120},
		{"Charged Off", StatusChargeOff},
		{"charge-off", StatusChargeOff},
		{"In collections", StatusCollection},
		{"Closed", StatusClosed},
		{"Paid in full", StatusPaid},
		{"", StatusUnknown},
		{"transferred", StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAccountStatus(tt.raw))
		})
	}
}

func TestAccountStatusIsDerogatory(t *testing.T) {
	assert.True(t, StatusLate30.IsDerogatory())
	assert.True(t, StatusCollection.IsDerogatory())
	assert.False(t, StatusCurrent.IsDerogatory())
	assert.False(t, StatusPaid.IsDerogatory())
}

func TestFieldConfidencesIncludesRecords(t *testing.T) {
	d := NewStructuredCreditData()
	d.Accounts = append(d.Accounts, Account{Confidence: 70})
	d.Inquiries = append(d.Inquiries, Inquiry{Confidence: 40})

	got := d.FieldConfidences()
	assert.Contains(t, got, 70.0)
	assert.Contains(t, got, 40.0)
}

func TestValidCreditScore(t *testing.T) {
	assert.True(t, ValidCreditScore(300))
	assert.True(t, ValidCreditScore(850))
	assert.False(t, ValidCreditScore(299))
	assert.False(t, ValidCreditScore(900))
}
