package assist

import (
	"strings"

	"github.com/sells-group/credit-extract/internal/confidence"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/parser"
)

type suggestion struct {
	PersonalInfo struct {
		Name        *string `json:"name"`
		Address     *string `json:"address"`
		DateOfBirth *string `json:"dateOfBirth"`
		SSNLast4    *string `json:"ssnLast4"`
	} `json:"personalInfo"`
	CreditScores  map[string]*int    `json:"creditScores"`
	Accounts      []suggestedAccount `json:"accounts"`
	Inquiries     []suggestedInquiry `json:"inquiries"`
	PublicRecords []suggestedRecord  `json:"publicRecords"`
}

type suggestedAccount struct {
	CreditorName  string   `json:"creditorName"`
	AccountNumber *string  `json:"accountNumber"`
	AccountType   *string  `json:"accountType"`
	Balance       *float64 `json:"balance"`
	CreditLimit   *float64 `json:"creditLimit"`
	Status        *string  `json:"status"`
	DateOpened    *string  `json:"dateOpened"`
	LastActivity  *string  `json:"lastActivity"`
}

type suggestedInquiry struct {
	CreditorName string  `json:"creditorName"`
	Date         *string `json:"date"`
	Type         *string `json:"type"`
}

type suggestedRecord struct {
	Type            string   `json:"type"`
	Court           *string  `json:"court"`
	ReferenceNumber *string  `json:"referenceNumber"`
	Amount          *float64 `json:"amount"`
	DateFiled       *string  `json:"dateFiled"`
	Status          *string  `json:"status"`
}

// merge copies suggested values into the null or empty parts of d and
// returns how many values it added.
func merge(d *model.StructuredCreditData, s *suggestion, multiplier float64) int {
	d.EnsureShape()
	conf := confidence.Field(confidence.StrengthInferred, multiplier)
	filled := mergePersonal(&d.PersonalInfo, s, conf)
	filled += mergeScores(d, s, conf)

	if len(d.Accounts) == 0 {
		for _, a := range s.Accounts {
			name := clean(&a.CreditorName)
			if name == "" {
				continue
			}
			d.Accounts = append(d.Accounts, model.Account{
				CreditorName:  name,
				AccountNumber: clean(a.AccountNumber),
				AccountType:   clean(a.AccountType),
				Balance:       a.Balance,
				CreditLimit:   a.CreditLimit,
				Status:        model.NormalizeAccountStatus(clean(a.Status)),
				DateOpened:    date(a.DateOpened),
				LastActivity:  date(a.LastActivity),
				Confidence:    conf,
			})
			filled++
		}
		d.NegativeItems = append(d.NegativeItems, parser.DeriveNegatives(d.Accounts, d.NegativeItems, conf)...)
	}

	if len(d.Inquiries) == 0 {
		for _, q := range s.Inquiries {
			name := clean(&q.CreditorName)
			if name == "" {
				continue
			}
			kind := parser.InquiryHard
			if clean(q.Type) == parser.InquirySoft {
				kind = parser.InquirySoft
			}
			d.Inquiries = append(d.Inquiries, model.Inquiry{
				CreditorName: name,
				Date:         date(q.Date),
				Type:         kind,
				Confidence:   conf,
			})
			filled++
		}
	}

	if len(d.PublicRecords) == 0 {
		for _, pr := range s.PublicRecords {
			kind := clean(&pr.Type)
			if kind == "" {
				continue
			}
			d.PublicRecords = append(d.PublicRecords, model.PublicRecord{
				Type:            kind,
				Court:           clean(pr.Court),
				ReferenceNumber: clean(pr.ReferenceNumber),
				Amount:          pr.Amount,
				DateFiled:       date(pr.DateFiled),
				Status:          clean(pr.Status),
				Confidence:      conf,
			})
			filled++
		}
	}

	return filled
}

func mergePersonal(p *model.PersonalInfo, s *suggestion, conf float64) int {
	filled := 0
	fc := &p.FieldConfidence
	if p.Name == nil {
		if v := clean(s.PersonalInfo.Name); v != "" {
			p.Name, fc.Name = &v, conf
			filled++
		}
	}
	if p.Address == nil {
		if v := clean(s.PersonalInfo.Address); v != "" {
			p.Address, fc.Address = &v, conf
			filled++
		}
	}
	if p.DateOfBirth == nil {
		if v := date(s.PersonalInfo.DateOfBirth); v != "" {
			p.DateOfBirth, fc.DateOfBirth = &v, conf
			filled++
		}
	}
	if p.SSN == nil {
		if v := clean(s.PersonalInfo.SSNLast4); len(v) == 4 {
			masked := "XXX-XX-" + v
			p.SSN, fc.SSN = &masked, conf
			filled++
		}
	}
	if filled > 0 {
		var found []float64
		for _, c := range []float64{fc.Name, fc.Address, fc.DateOfBirth, fc.SSN} {
			if c > 0 {
				found = append(found, c)
			}
		}
		p.Confidence = confidence.Mean(found)
	}
	return filled
}

func mergeScores(d *model.StructuredCreditData, s *suggestion, conf float64) int {
	filled := 0
	for _, b := range model.KnownBureaus() {
		v := s.CreditScores[b]
		if v == nil || !model.ValidCreditScore(*v) {
			continue
		}
		if cur, ok := d.CreditScores[b]; ok && cur.Score != nil {
			continue
		}
		d.CreditScores[b] = model.CreditScore{Score: model.IntPtr(*v), Bureau: b, Confidence: conf}
		filled++
	}
	if filled > 0 && d.CreditScore.Score == nil {
		d.CreditScore = parser.BestScore(d.CreditScores)
	}
	return filled
}

func clean(v *string) string {
	if v == nil {
		return ""
	}
	return strings.Join(strings.Fields(*v), " ")
}

func date(v *string) string {
	d, _ := parser.NormalizeDate(clean(v))
	return d
}
