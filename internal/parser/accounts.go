package parser

import (
	"strings"

	"github.com/sells-group/credit-extract/internal/confidence"
	"github.com/sells-group/credit-extract/internal/model"
)

var (
	creditorLabels = labels("Creditor", "Creditor Name", "Company", "Company Name", "Lender",
		"Account Name", "Subscriber", "Subscriber Name", "Furnisher")
	accountNumberLabels = labels("Account Number", "Account #", "Acct #", "Acct Number",
		"Account No", "Acct No", "Account", "Acct")
	accountTypeLabels = labels("Account Type", "Type", "Loan Type", "Type of Account",
		"Kind of Account", "Acct Type", "Account Type Detail")
	balanceLabels = labels("Balance", "Current Balance", "Balance Owed", "Amount Owed",
		"Balance Amount", "Reported Balance")
	creditLimitLabels = labels("Credit Limit", "Limit", "High Credit", "High Balance",
		"Credit Limit/High Balance", "Original Amount", "Loan Amount")
	statusLabels = labels("Status", "Account Status", "Payment Status", "Pay Status",
		"Current Status", "Condition", "Rating")
	openedLabels = labels("Date Opened", "Opened", "Open Date", "Opened Date", "Date Open")
	activityLabels = labels("Last Activity", "Date of Last Activity", "Last Payment",
		"Last Payment Date", "Date of Last Payment", "Last Reported", "Date Reported",
		"Last Active", "Date Last Active", "Date Updated")
)

// parseAccounts reads tradelines from the account sections. A report with
// no account heading is scanned in its preamble for creditor-labeled
// records instead.
func (r *run) parseAccounts() []model.Account {
	var lines []string
	if hasSection(r.sections, sectionAccounts) {
		lines = linesOf(r.sections, sectionAccounts)
	} else {
		lines = linesOf(r.sections, sectionPreamble)
	}

	out := []model.Account{}
	for _, b := range segment(lines, creditorLabels) {
		if a, ok := r.account(b); ok {
			out = append(out, a)
		}
	}
	return out
}

func (r *run) account(b block) (model.Account, bool) {
	var a model.Account
	labeledCreditor := true
	creditor, ok := b.get(creditorLabels)
	if !ok {
		if b.title == "" {
			return a, false
		}
		creditor, labeledCreditor = b.title, false
	}
	a.CreditorName = strings.Join(strings.Fields(creditor), " ")

	found := 0
	if v, ok := b.get(accountNumberLabels); ok {
		a.AccountNumber = v
		found++
	}
	if v, ok := b.get(accountTypeLabels); ok {
		a.AccountType = v
		found++
	}
	if v, ok := b.get(balanceLabels); ok {
		if m, ok := parseMoney(v); ok {
			a.Balance = m
			found++
		} else {
			r.warn("accounts: %s balance %q not recognized", a.CreditorName, v)
		}
	}
	if v, ok := b.get(creditLimitLabels); ok {
		if m, ok := parseMoney(v); ok {
			a.CreditLimit = m
		}
	}

	a.Status = model.StatusUnknown
	if v, ok := b.get(statusLabels); ok {
		a.Status = model.NormalizeAccountStatus(v)
		found++
	}
	if v, ok := b.get(openedLabels); ok {
		a.DateOpened = r.date("accounts", a.CreditorName, v)
		if a.DateOpened != "" {
			found++
		}
	}
	if v, ok := b.get(activityLabels); ok {
		a.LastActivity = r.date("accounts", a.CreditorName, v)
	}

	// A bare title with nothing recognizable underneath is not a tradeline.
	if found == 0 && !(labeledCreditor && b.labeled(accountTypeLabels)) {
		return a, false
	}

	var strength float64
	switch {
	case labeledCreditor && found >= 4:
		strength = confidence.StrengthExact
	case labeledCreditor && found >= 1, !labeledCreditor && found >= 3:
		strength = confidence.StrengthLabeled
	case found >= 1:
		strength = confidence.StrengthInferred
	default:
		strength = confidence.StrengthHeuristic
	}
	a.Confidence = r.score(strength)
	return a, true
}

// date normalizes a labeled date, warning when it cannot be read.
func (r *run) date(section, subject, v string) string {
	d, ok := findDate(v)
	if !ok {
		r.warn("%s: %s date %q not recognized", section, subject, v)
		return ""
	}
	return d
}
