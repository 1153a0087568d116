package model

import (
	"strings"
)

// Bureau identifiers used as keys in CreditScores.
const (
	BureauEquifax    = "equifax"
	BureauExperian   = "experian"
	BureauTransUnion = "transunion"
	BureauUnknown    = "unknown"
)

// KnownBureaus lists the bureaus that always appear in CreditScores.
func KnownBureaus() []string {
	return []string{BureauEquifax, BureauExperian, BureauTransUnion}
}

// Score bounds for a valid consumer credit score.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// ValidCreditScore reports whether v is within the consumer score range.
func ValidCreditScore(v int) bool {
	return v >= MinCreditScore && v <= MaxCreditScore
}

// AccountStatus is the normalized payment status of a tradeline.
type AccountStatus string

const (
	StatusCurrent    AccountStatus = "current"
	StatusLate30     AccountStatus = "30_days_late"
	StatusLate60     AccountStatus = "60_days_late"
	StatusLate90     AccountStatus = "90_days_late"
	StatusLate120    AccountStatus = "120_days_late"
	StatusChargeOff  AccountStatus = "charge_off"
	StatusCollection AccountStatus = "collection"
	StatusClosed     AccountStatus = "closed"
	StatusPaid       AccountStatus = "paid"
	StatusUnknown    AccountStatus = "unknown"
)

// IsDerogatory reports whether the status is adverse.
func (s AccountStatus) IsDerogatory() bool {
	switch s {
	case StatusLate30, StatusLate60, StatusLate90, StatusLate120, StatusChargeOff, StatusCollection:
		return true
	}
	return false
}

// NormalizeAccountStatus maps free-form bureau status text onto AccountStatus.
func NormalizeAccountStatus(raw string) AccountStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StatusUnknown
	case strings.Contains(s, "charge") && strings.Contains(s, "off"),
		strings.Contains(s, "charged-off"), strings.Contains(s, "chargeoff"):
		return StatusChargeOff
	case strings.Contains(s, "collection"):
		return StatusCollection
	case strings.Contains(s, "120"):
		return StatusLate120
	case strings.Contains(s, "90"):
		return StatusLate90
	case strings.Contains(s, "60"):
		return StatusLate60
	case strings.Contains(s, "30"):
		return StatusLate30
	case strings.Contains(s, "as agreed"), strings.Contains(s, "never late"):
		return StatusCurrent
	case strings.Contains(s, "paid"):
		return StatusPaid
	case strings.Contains(s, "closed"):
		return StatusClosed
	case strings.Contains(s, "current"), strings.Contains(s, "open"):
		return StatusCurrent
	default:
		return StatusUnknown
	}
}

// PersonalConfidence holds the per-field confidence of PersonalInfo.
type PersonalConfidence struct {
	Name        float64 `json:"name"`
	Address     float64 `json:"address"`
	DateOfBirth float64 `json:"dateOfBirth"`
	SSN         float64 `json:"ssn"`
}

// PersonalInfo is the consumer identification block. Unlocated fields are nil
// with confidence 0. SSN only ever holds a masked fragment.
type PersonalInfo struct {
	Name            *string            `json:"name"`
	Address         *string            `json:"address"`
	DateOfBirth     *string            `json:"dateOfBirth"`
	SSN             *string            `json:"ssn"`
	Confidence      float64            `json:"confidence"`
	FieldConfidence PersonalConfidence `json:"fieldConfidence"`
}

// CreditScore is a bureau score. Score is nil when not located.
type CreditScore struct {
	Score      *int    `json:"score"`
	Bureau     string  `json:"bureau"`
	Confidence float64 `json:"confidence"`
}

// Account is a single tradeline.
type Account struct {
	CreditorName  string        `json:"creditorName"`
	AccountNumber string        `json:"accountNumber"`
	AccountType   string        `json:"accountType"`
	Balance       *float64      `json:"balance"`
	CreditLimit   *float64      `json:"creditLimit"`
	Status        AccountStatus `json:"status"`
	DateOpened    string        `json:"dateOpened"`
	LastActivity  string        `json:"lastActivity"`
	Confidence    float64       `json:"confidence"`
}

// NegativeItem is an adverse entry, either listed explicitly or derived from a
// derogatory account.
type NegativeItem struct {
	Type          string   `json:"type"`
	CreditorName  string   `json:"creditorName"`
	AccountNumber string   `json:"accountNumber"`
	Amount        *float64 `json:"amount"`
	Date          string   `json:"date"`
	Description   string   `json:"description"`
	Confidence    float64  `json:"confidence"`
}

// Inquiry is a credit pull.
type Inquiry struct {
	CreditorName string  `json:"creditorName"`
	Date         string  `json:"date"`
	Type         string  `json:"type"`
	Confidence   float64 `json:"confidence"`
}

// PublicRecord is a court or government record.
type PublicRecord struct {
	Type            string   `json:"type"`
	Court           string   `json:"court"`
	ReferenceNumber string   `json:"referenceNumber"`
	Amount          *float64 `json:"amount"`
	DateFiled       string   `json:"dateFiled"`
	Status          string   `json:"status"`
	Confidence      float64  `json:"confidence"`
}

// ExtractionMetadata describes how the data was produced.
type ExtractionMetadata struct {
	ProcessingMethod     Method   `json:"processingMethod"`
	OverallConfidence    float64  `json:"overallConfidence"`
	ProcessingTimeMs     int64    `json:"processingTimeMs"`
	DocumentQuality      float64  `json:"documentQuality"`
	DetectedReportFormat string   `json:"detectedReportFormat"`
	QualityFlags         []string `json:"qualityFlags"`
	Warnings             []string `json:"warnings"`
	Synthetic            bool     `json:"synthetic"`
	TiersAttempted       []string `json:"tiersAttempted"`
	EstimatedCostUSD     float64  `json:"estimatedCostUsd"`
}

// StructuredCreditData is the typed representation of a parsed report.
type StructuredCreditData struct {
	PersonalInfo       PersonalInfo           `json:"personalInfo"`
	CreditScore        CreditScore            `json:"creditScore"`
	CreditScores       map[string]CreditScore `json:"creditScores"`
	Accounts           []Account              `json:"accounts"`
	NegativeItems      []NegativeItem         `json:"negativeItems"`
	Inquiries          []Inquiry              `json:"inquiries"`
	PublicRecords      []PublicRecord         `json:"publicRecords"`
	ExtractionMetadata ExtractionMetadata     `json:"extractionMetadata"`
}

// FormatUnknown is the report format when no fingerprint matches.
const FormatUnknown = "unknown"

// NewStructuredCreditData returns a fully-shaped empty value: every
// collection is non-nil and every known bureau has an entry.
func NewStructuredCreditData() *StructuredCreditData {
	d := &StructuredCreditData{
		CreditScore:   CreditScore{Bureau: BureauUnknown},
		CreditScores:  make(map[string]CreditScore, 3),
		Accounts:      []Account{},
		NegativeItems: []NegativeItem{},
		Inquiries:     []Inquiry{},
		PublicRecords: []PublicRecord{},
		ExtractionMetadata: ExtractionMetadata{
			DetectedReportFormat: FormatUnknown,
			QualityFlags:         []string{},
			Warnings:             []string{},
			TiersAttempted:       []string{},
		},
	}
	for _, b := range KnownBureaus() {
		d.CreditScores[b] = CreditScore{Bureau: b}
	}
	return d
}

// EnsureShape restores any nil collection, for values decoded from JSON or
// assembled by hand.
func (d *StructuredCreditData) EnsureShape() {
	if d.CreditScores == nil {
		d.CreditScores = make(map[string]CreditScore, 3)
	}
	for _, b := range KnownBureaus() {
		if _, ok := d.CreditScores[b]; !ok {
			d.CreditScores[b] = CreditScore{Bureau: b}
		}
	}
	if d.CreditScore.Bureau == "" {
		d.CreditScore.Bureau = BureauUnknown
	}
	if d.Accounts == nil {
		d.Accounts = []Account{}
	}
	if d.NegativeItems == nil {
		d.NegativeItems = []NegativeItem{}
	}
	if d.Inquiries == nil {
		d.Inquiries = []Inquiry{}
	}
	if d.PublicRecords == nil {
		d.PublicRecords = []PublicRecord{}
	}
	m := &d.ExtractionMetadata
	if m.DetectedReportFormat == "" {
		m.DetectedReportFormat = FormatUnknown
	}
	if m.QualityFlags == nil {
		m.QualityFlags = []string{}
	}
	if m.Warnings == nil {
		m.Warnings = []string{}
	}
	if m.TiersAttempted == nil {
		m.TiersAttempted = []string{}
	}
}

// FieldConfidences returns every per-field confidence in the data, for bounds
// checks and aggregation.
func (d *StructuredCreditData) FieldConfidences() []float64 {
	out := []float64{
		d.PersonalInfo.Confidence,
		d.PersonalInfo.FieldConfidence.Name,
		d.PersonalInfo.FieldConfidence.Address,
		d.PersonalInfo.FieldConfidence.DateOfBirth,
		d.PersonalInfo.FieldConfidence.SSN,
		d.CreditScore.Confidence,
	}
	for _, s := range d.CreditScores {
		out = append(out, s.Confidence)
	}
	for _, a := range d.Accounts {
		out = append(out, a.Confidence)
	}
	for _, n := range d.NegativeItems {
		out = append(out, n.Confidence)
	}
	for _, i := range d.Inquiries {
		out = append(out, i.Confidence)
	}
	for _, p := range d.PublicRecords {
		out = append(out, p.Confidence)
	}
	return out
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }
