package processor

import (
	"regexp"
	"strconv"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
)

var (
	policyTerm = regexp.MustCompile(`#(\d+)\s+(\d{4}-\d{1,2}-\d{1,2})\s+to\s+(\d{4}-\d{1,2}-\d{1,2})`)

	earliestTerm = dateRule(`Start\s+of\s+the\s+Earliest\s+Term:\s*(\d{4}-\d{2}-\d{2})`)
	latestTerm   = dateRule(`End\s+of\s+the\s+Latest\s+Term:\s*(\d{4}-\d{2}-\d{2})`)

	// the policy detail block prints its own expiry, which wins over the
	// "to" date of the listing
	policyExpiry = dateRule(
		`(?i)Expiry\s*Date:\s*(\d{4}-\d{1,2}-\d{1,2})`,
		`(?i)Expiry\s*Date:\s*(\d{1,2}/\d{1,2}/\d{4})`,
	)
)

// PolicyDates is what the policy history contributes to a record
type PolicyDates struct {
	Policies           []domain.Policy
	FirstInsuranceDate string
	RenewalDate        string
	PolicyStartDate    string
	PolicyEndDate      string
}

// ExtractPolicies reads the policy listing in document order. Entries are
// never sorted: the first listed policy supplies the first-insurance,
// renewal and end dates, the last listed one the current start date.
func ExtractPolicies(document string) []domain.Policy {
	listing, ok := PolicyListingSegment.Find(document)
	if !ok {
		return nil
	}

	var policies []domain.Policy
	for _, m := range policyTerm.FindAllStringSubmatch(listing, -1) {
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		start, okStart := canonicalDate(m[2])
		end, okEnd := canonicalDate(m[3])
		if !okStart || !okEnd {
			continue
		}
		policies = append(policies, domain.Policy{Number: number, StartDate: start, EndDate: end})
	}
	return policies
}

// DerivePolicyDates applies the listing order rules, then the earliest/latest
// term anchors for whatever is still missing, then the Policy #1 expiry.
func DerivePolicyDates(document, policy1 string) PolicyDates {
	var d PolicyDates

	d.Policies = ExtractPolicies(document)
	if n := len(d.Policies); n > 0 {
		first, last := d.Policies[0], d.Policies[n-1]
		d.FirstInsuranceDate = first.StartDate
		d.RenewalDate = first.EndDate
		d.PolicyEndDate = first.EndDate
		d.PolicyStartDate = last.StartDate
	}

	if d.PolicyStartDate == "" {
		d.PolicyStartDate = findDate(earliestTerm, document)
	}
	if d.PolicyEndDate == "" {
		d.PolicyEndDate = findDate(latestTerm, document)
	}

	if expiry := findDate(policyExpiry, policy1); expiry != "" {
		d.RenewalDate = expiry
	}
	return d
}

// dateRule is a document-scoped rule whose hits must parse as dates; a hit
// that does not parse falls through to the next pattern.
func dateRule(patterns ...string) Rule {
	return rule(patterns...).withClean(func(s string) string {
		out, _ := canonicalDate(stripSpaces(s))
		return out
	})
}

// findDate returns the canonical date the rule finds in text, or "".
func findDate(r Rule, text string) string {
	out, _ := r.FindIn(text)
	return out
}
