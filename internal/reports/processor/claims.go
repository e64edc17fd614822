package processor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
)

const defaultClaimStatus = "Closed"

var (
	claimMarker   = regexp.MustCompile(`#(\d+)`)
	claimDate     = regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`)
	atFault       = regexp.MustCompile(`(?i)At-?Fault\s*:\s*(\d+)\s*%`)
	atFaultLabel  = regexp.MustCompile(`(?i)At-?Fault`)
	asteriskNote  = regexp.MustCompile(`\*.*?\*`)
	parenNote     = regexp.MustCompile(`\([^)]*\)`)
	thirdParty    = regexp.MustCompile(`(?i)\*?THIRD\s*PARTY\*?\s*[-:\s]*([A-Z][A-Z\s\-']+,\s*[A-Z][A-Za-z\s\-']+)?`)
	driverTail    = regexp.MustCompile(`(?i)\s+(DLN|Date\s+of|Listed|Excl|Convict).*$`)
	claimStatus   = regexp.MustCompile(`(?i)Claim\s*Status:\s*(\w+)`)
	kolLine       = regexp.MustCompile(`(?i)KOL(\d+)\s*[-–]\s*([^\n:]+?):\s*\$\s*([\d,\.]+)\s*\(Loss\);\s*\$\s*([\d,\.]+)\s*\(Expense\);`)
	claimHeadings = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Claim\s*#\d+`),
		regexp.MustCompile(`(?i)Convictions`),
	}
)

const partyName = `([A-Z][A-Za-z\s\-']+(?:,\s*[A-Z][A-Za-z\s\-']+)?)`

// ClaimsResult is the claims extractor output
type ClaimsResult struct {
	Claims   []domain.Claim
	Warnings []string
}

// claimWindow is the slice of the claims section belonging to one claim
type claimWindow struct {
	number int
	text   string
}

// splitClaims cuts the claims section at every "#<n>" marker. A marker for a
// claim number already seen opens that claim's detail block, not a new claim.
func splitClaims(section string) []claimWindow {
	locs := claimMarker.FindAllStringSubmatchIndex(section, -1)
	seen := make(map[int]bool, len(locs))

	var windows []claimWindow
	for i, loc := range locs {
		end := len(section)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		n, err := strconv.Atoi(section[loc[2]:loc[3]])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		windows = append(windows, claimWindow{number: n, text: section[loc[0]:end]})
	}
	return windows
}

// ExtractClaims enumerates the claims listed in the claims section. Detail
// lookups (driver, financials, itemisation, status) may reach into the rest
// of the document, keyed by claim number.
func ExtractClaims(document string) ClaimsResult {
	var res ClaimsResult

	section, ok := FirstSegment(document, ClaimsSegment, ClaimsToEndSegment)
	if !ok {
		return res
	}

	for _, w := range splitClaims(section) {
		claim := buildClaim(w, document)
		if claim.Total == "" && len(claim.KOLItems) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("claim #%d: no financial detail found", w.number))
		}
		res.Claims = append(res.Claims, claim)
	}
	return res
}

func buildClaim(w claimWindow, document string) domain.Claim {
	claim := domain.Claim{Number: w.number}

	rawDate := ""
	dateLoc := claimDate.FindStringIndex(w.text)
	if dateLoc != nil {
		rawDate = w.text[dateLoc[0]:dateLoc[1]]
		if d, ok := canonicalDate(rawDate); ok {
			claim.Date = d
		}
	}

	if m := atFault.FindStringSubmatch(w.text); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil {
			claim.Fault = faultLabel(pct)
		}
	}

	if dateLoc != nil {
		raw := companyLine(w.text[dateLoc[1]:])
		claim.Company = cleanCompany(raw)
		claim.ThirdPartyDriver, claim.Company = thirdPartyDriver(raw, claim.Company)
	}

	if v, ok := firstPartyRule(w.number, rawDate).Find(w.text, document); ok {
		claim.FirstPartyDriver = v
	}

	detail, _ := claimDetailSegment(w.number).Find(document)

	if loss, expense, ok := claimFinancials(document, w.number); ok {
		claim.Loss = loss
		claim.Expense = expense
		claim.Total = sumMoney(loss, expense)
	}

	claim.KOLItems = kolItems(w.text)
	if len(claim.KOLItems) == 0 && detail != "" {
		claim.KOLItems = kolItems(detail)
	}

	claim.Status = defaultClaimStatus
	if v, ok := (Rule{
		{Pattern: claimStatus, Group: 1, Scope: ScopeWindow},
		{Pattern: claimStatus, Group: 1, Scope: ScopeDocument},
	}).Find(w.text, detail); ok {
		claim.Status = v
	}

	return claim
}

// faultLabel renders an at-fault percentage
func faultLabel(pct int) string {
	switch pct {
	case 0:
		return "No"
	case 100:
		return "Yes"
	default:
		return fmt.Sprintf("%d%%", pct)
	}
}

// companyLine is the first line of text between the loss date and the
// at-fault token.
func companyLine(afterDate string) string {
	if loc := atFaultLabel.FindStringIndex(afterDate); loc != nil {
		afterDate = afterDate[:loc[0]]
	}
	return firstLine(strings.TrimSpace(afterDate))
}

func cleanCompany(raw string) string {
	s := asteriskNote.ReplaceAllString(raw, "")
	s = parenNote.ReplaceAllString(s, "")
	return strings.Trim(collapseSpaces(s), " -:")
}

// thirdPartyDriver reads a "*THIRD PARTY*" annotation. A captured name is
// removed from the company; without a name the company (or a placeholder)
// stands in for the driver.
func thirdPartyDriver(raw, company string) (driver, cleanedCompany string) {
	m := thirdParty.FindStringSubmatch(raw)
	if m == nil {
		return "", company
	}
	if name := collapseSpaces(m[1]); name != "" {
		return name, strings.Trim(collapseSpaces(strings.Replace(company, name, "", 1)), " -:,")
	}
	if company != "" {
		return company, company
	}
	return "Third Party", company
}

// firstPartyRule searches the claim window, then the whole document for the
// claim's detail block keyed by number and loss date.
func firstPartyRule(number int, rawDate string) Rule {
	clean := func(s string) string {
		return strings.TrimSpace(driverTail.ReplaceAllString(firstLine(s), ""))
	}

	r := Rule{{
		Pattern: regexp.MustCompile(`(?i)First\s+Party\s+Driver\s*:\s*` + partyName),
		Group:   1,
		Scope:   ScopeWindow,
		Clean:   clean,
	}}
	if rawDate != "" {
		r = append(r, Probe{
			Pattern: regexp.MustCompile(fmt.Sprintf(
				`(?is)Claim\s*#[:\s]*%d\s+Date\s+of\s+Loss\s+%s.*?First\s+Party\s+Driver\s*:\s*`+partyName,
				number, regexp.QuoteMeta(rawDate))),
			Group: 1,
			Scope: ScopeDocument,
			Clean: clean,
		})
	}
	return r
}

// claimDetailSegment is the expanded detail block for one claim, from its
// "Claim #N" heading to the next claim heading or the convictions section.
func claimDetailSegment(number int) Segment {
	return Segment{
		Name:         "claim-detail",
		Start:        regexp.MustCompile(fmt.Sprintf(`(?i)Claim\s*#\s*%d\b`, number)),
		IncludeStart: true,
		End:          claimHeadings,
	}
}

// claimFinancials reads the claim's printed loss and expense. Both must be
// well-formed numbers.
func claimFinancials(document string, number int) (loss, expense string, ok bool) {
	re := regexp.MustCompile(fmt.Sprintf(
		`(?is)Claim #%d\s+Date of Loss\s+\d{4}-\d{2}-\d{2}.*?Total Loss:\s*\$\s*([\d,\.]+).*?Total Expense:\s*\$\s*([\d,\.]+)`,
		number))
	m := re.FindStringSubmatch(document)
	if m == nil {
		return "", "", false
	}

	loss, expense = stripThousands(m[1]), stripThousands(m[2])
	if !isAmount(loss) || !isAmount(expense) {
		return "", "", false
	}
	return loss, expense, true
}

func isAmount(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// sumMoney adds two amounts and formats with two decimals. The report's own
// total line, if any, is never used.
func sumMoney(a, b string) string {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return ""
	}
	return strconv.FormatFloat(x+y, 'f', 2, 64)
}

func kolItems(text string) []domain.KOLItem {
	var items []domain.KOLItem
	for _, m := range kolLine.FindAllStringSubmatch(text, -1) {
		items = append(items, domain.KOLItem{
			Code:        "KOL" + m[1],
			Description: collapseSpaces(m[2]),
			Loss:        stripThousands(m[3]),
			Expense:     stripThousands(m[4]),
		})
	}
	return items
}
