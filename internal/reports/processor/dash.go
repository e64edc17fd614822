package processor

import (
	"context"
	"regexp"
	"time"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
)

// licence numbers always carry at least one digit, which keeps words such as
// "Status" in "License Status:" from being read as a number
const licenceValue = `([A-Z0-9][A-Z0-9\-]*\d[A-Z0-9\-]*)`

const slashDate = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`

var dashRules = struct {
	reportDate, address, license, expiry, issue, class, status, points, conditions, phone, continuous Rule
	email                                                                                           *regexp.Regexp
}{
	reportDate: dateRule(`(?i)Report\s*Date:\s*(\d{4}\s*-\s*\d{1,2}\s*-\s*\d{1,2})`),
	address: rule(
		`(?i)Address:\s*(.+?)\s+Number of`,
		`(?i)Address:\s*([^\n]+)`,
	),
	license: rule(
		`(?i:DLN):\s*`+licenceValue,
		`(?i:License\s*(?:Number|#|No\.?)?)[:\s]+`+licenceValue,
		`(?i:DL\s*(?:Number|#)?)[:\s]+`+licenceValue,
	),
	expiry: dateRule(
		`(?i)Expir(?:y|ation)\s*Date[:\s]+`+slashDate,
		`(?i)Exp\.?\s*Date[:\s]+`+slashDate,
		`(?i)Valid\s*(?:Through|Until)[:\s]+`+slashDate,
	),
	issue: dateRule(
		`(?i)Report\s*Date[:\s]+(\d{4}-\d{2}-\d{2})`,
		`(?i)Issue\s*Date[:\s]+(\d{4}-\d{2}-\d{2})`,
		`(?i)Issue\s*Date[:\s]+`+slashDate,
		`(?i)Issued[:\s]+(\d{4}-\d{2}-\d{2})`,
		`(?i)Issued[:\s]+`+slashDate,
		`(?i)Renewal\s*Date[:\s]+(\d{4}-\d{2}-\d{2})`,
		`(?i)Renewal\s*Date[:\s]+`+slashDate,
	),
	class: rule(
		`(?i:Class)[:\s]+([A-Z0-9]+)\b`,
		`(?i:License\s*Class)[:\s]+([A-Z0-9]+)\b`,
	),
	status: rule(
		`(?i)Status[:\s]+(Valid|Active|Suspended|Revoked|Expired)\b`,
		`(?i)License\s*Status[:\s]+(Valid|Active|Suspended|Revoked|Expired)\b`,
	),
	points: rule(
		`(?i)(?:Demerit\s*)?Points?[:\s]+(\d+)`,
		`(?i)Point\s*Balance[:\s]+(\d+)`,
		`(?i)Current\s*Points[:\s]+(\d+)`,
	),
	conditions: rule(`(?i)Conditions?[:\s]+([^\n]+)`).withClean(cleanConditions),
	phone: rule(
		`(?i)Phone[:\s]+(\+?[\d\-\(\)\s]+)`,
		`(?i)Tel[:\s]+(\+?[\d\-\(\)\s]+)`,
		`(?i)Mobile[:\s]+(\+?[\d\-\(\)\s]+)`,
	).withClean(func(s string) string {
		// the class spans line breaks; a phone number does not
		return firstLine(s)
	}),
	continuous: rule(`(?i)Years\s+of\s+Continuous\s+Insurance:\s*(\d+)`),
	email:      regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

// DashProcessor assembles records from Driver Abstract/Summary History reports.
// Name and date of birth are never taken from this report type; they come
// from the MVR only.
type DashProcessor struct {
	log *logger.Logger
}

func NewDashProcessor(log *logger.Logger) *DashProcessor {
	if log == nil {
		log = logger.Nop()
	}
	return &DashProcessor{log: log.WithComponent("dash-processor")}
}

func (p *DashProcessor) Name() string {
	return "dash"
}

func (p *DashProcessor) CanProcess(reportType domain.ReportType) bool {
	return reportType == domain.ReportTypeDASH
}

func (p *DashProcessor) Process(ctx context.Context, text string, reportType domain.ReportType) (*domain.ReportRecord, error) {
	if err := checkInput(ctx, text); err != nil {
		return nil, err
	}
	start := time.Now()
	rec := &domain.ReportRecord{ReportType: domain.ReportTypeDASH}

	if d, ok := dashRules.reportDate.FindIn(text); ok {
		rec.ReportDate = d
		rec.IssueDate = d
	}
	if d, ok := dashRules.issue.FindIn(text); ok {
		rec.IssueDate = d
	}
	rec.Address, _ = dashRules.address.FindIn(text)
	rec.LicenseNumber, _ = dashRules.license.FindIn(text)
	rec.ExpiryDate, _ = dashRules.expiry.FindIn(text)
	rec.LicenseClass, _ = dashRules.class.FindIn(text)
	if s, ok := dashRules.status.FindIn(text); ok {
		rec.LicenseStatus = normalizeLicenseStatus(s)
	}
	rec.DemeritPoints = intField(dashRules.points, text)
	rec.Conditions, _ = dashRules.conditions.FindIn(text)
	rec.Email = dashRules.email.FindString(text)
	rec.Phone, _ = dashRules.phone.FindIn(text)
	rec.YearsContinuousInsurance = intField(dashRules.continuous, text)

	policy1, hasPolicy1 := Policy1Segment.Find(text)
	applyVehicles(rec, policy1)
	if hasPolicy1 {
		dates := DerivePolicyDates(text, policy1)
		rec.AllPolicies = dates.Policies
		rec.FirstInsuranceDate = dates.FirstInsuranceDate
		rec.RenewalDate = dates.RenewalDate
		rec.PolicyStartDate = dates.PolicyStartDate
		rec.PolicyEndDate = dates.PolicyEndDate
	}

	claims := ExtractClaims(text)
	rec.Claims = claims.Claims
	rec.ClaimsCount = domain.NewCount(len(claims.Claims))
	for _, w := range claims.Warnings {
		rec.Warn(w)
	}

	p.log.Debug().
		Bool("policy1", hasPolicy1).
		Int("vehicles", len(rec.Policy1Vehicles)).
		Int("policies", len(rec.AllPolicies)).
		Int("claims", len(rec.Claims)).
		Dur("duration", time.Since(start)).
		Msg("dash report assembled")

	return rec, nil
}
