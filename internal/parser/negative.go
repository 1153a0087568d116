package parser

import (
	"strings"

	"github.com/sells-group/credit-extract/internal/confidence"
	"github.com/sells-group/credit-extract/internal/model"
)

var (
	negativeTypeLabels = labels("Item Type", "Negative Type", "Classification", "Type",
		"Account Type", "Category")
	amountLabels = labels("Amount", "Past Due", "Amount Past Due", "Balance", "Current Balance",
		"Original Amount", "Amount Owed", "Balance Owed")
	negativeDateLabels = labels("Date", "Date Reported", "Date of First Delinquency",
		"First Delinquency", "Date Assigned", "Date Opened", "Reported", "Date of Status",
		"Status Date")
	descriptionLabels = labels("Description", "Comment", "Comments", "Remarks", "Details",
		"Reason")
)

// Negative item types.
const (
	NegativeCollection  = "collection"
	NegativeChargeOff   = "charge_off"
	NegativeLatePayment = "late_payment"
	NegativeOther       = "negative"
)

func negativeType(status model.AccountStatus) string {
	switch status {
	case model.StatusCollection:
		return NegativeCollection
	case model.StatusChargeOff:
		return NegativeChargeOff
	case model.StatusLate30, model.StatusLate60, model.StatusLate90, model.StatusLate120:
		return NegativeLatePayment
	}
	return NegativeOther
}

// parseNegative reads the explicit negative-item sections, then derives an
// item for every derogatory account not already listed.
func (r *run) parseNegative(accounts []model.Account) []model.NegativeItem {
	out := []model.NegativeItem{}
	for _, s := range r.sections {
		if s.kind != sectionNegative {
			continue
		}
		for _, b := range segment(s.lines, creditorLabels) {
			if n, ok := r.negativeItem(s, b); ok {
				out = append(out, n)
			}
		}
	}

	return append(out, DeriveNegatives(accounts, out, r.score(confidence.StrengthInferred))...)
}

// DeriveNegatives returns an item for every derogatory account that existing
// does not already cover, each with the given confidence.
func DeriveNegatives(accounts []model.Account, existing []model.NegativeItem, conf float64) []model.NegativeItem {
	out := []model.NegativeItem{}
	for _, a := range accounts {
		if !a.Status.IsDerogatory() || listed(existing, a) || listed(out, a) {
			continue
		}
		out = append(out, model.NegativeItem{
			Type:          negativeType(a.Status),
			CreditorName:  a.CreditorName,
			AccountNumber: a.AccountNumber,
			Amount:        a.Balance,
			Date:          a.LastActivity,
			Description:   "Account status: " + string(a.Status),
			Confidence:    conf,
		})
	}
	return out
}

func (r *run) negativeItem(s section, b block) (model.NegativeItem, bool) {
	var n model.NegativeItem
	labeledCreditor := true
	creditor, ok := b.get(creditorLabels)
	if !ok {
		if b.title == "" {
			return n, false
		}
		creditor, labeledCreditor = b.title, false
	}
	n.CreditorName = strings.Join(strings.Fields(creditor), " ")

	found := 0
	if v, ok := b.get(accountNumberLabels); ok {
		n.AccountNumber = v
	}
	if v, ok := b.get(amountLabels); ok {
		if m, ok := parseMoney(v); ok {
			n.Amount = m
			found++
		}
	}
	if v, ok := b.get(negativeDateLabels); ok {
		n.Date = r.date("negative", n.CreditorName, v)
		if n.Date != "" {
			found++
		}
	}

	status, hasStatus := b.get(statusLabels)
	switch v, ok := b.get(negativeTypeLabels); {
	case ok:
		n.Type = strings.ToLower(strings.Join(strings.Fields(v), " "))
		found++
	case hasStatus && model.NormalizeAccountStatus(status).IsDerogatory():
		n.Type = negativeType(model.NormalizeAccountStatus(status))
	case strings.Contains(s.title, "collection"):
		n.Type = NegativeCollection
	default:
		n.Type = NegativeOther
	}

	if v, ok := b.get(descriptionLabels); ok {
		n.Description = v
	} else if hasStatus {
		n.Description = status
	} else if len(b.lines) > 0 {
		n.Description = strings.Join(b.lines, " ")
	}

	if found == 0 && n.Description == "" {
		return n, false
	}

	var strength float64
	switch {
	case labeledCreditor && found >= 3:
		strength = confidence.StrengthExact
	case labeledCreditor && found >= 1:
		strength = confidence.StrengthLabeled
	case found >= 1:
		strength = confidence.StrengthInferred
	default:
		strength = confidence.StrengthHeuristic
	}
	n.Confidence = r.score(strength)
	return n, true
}

// listed reports whether an explicit item already covers the account.
func listed(items []model.NegativeItem, a model.Account) bool {
	for _, n := range items {
		if !strings.EqualFold(n.CreditorName, a.CreditorName) {
			continue
		}
		if n.AccountNumber == "" || a.AccountNumber == "" || n.AccountNumber == a.AccountNumber {
			return true
		}
	}
	return false
}
