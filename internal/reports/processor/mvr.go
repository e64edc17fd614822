package processor

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
)

var (
	mvrName    = regexp.MustCompile(`(?i)Name\s*:\s*([^\n]+)`)
	mvrNameEnd = regexp.MustCompile(`(?i)\s+(?:Birth|Gender|Address|Height|Demerit)`)
)

var mvrRules = struct {
	license, expiry, dob, issue, status, class, points, conditions Rule
}{
	license: rule(
		`(?i:Licence Number):\s*`+licenceValue,
		`(?i:License\s*(?:Number|#|No\.?)?)[:\s]+`+licenceValue,
		`(?i:DL\s*(?:Number|#|No\.?)?)[:\s]+`+licenceValue,
		`(?i:Driver'?s?\s*License)[:\s]+`+licenceValue,
	),
	// licence expiry only; a policy renewal date never comes from an MVR
	expiry: dateRule(
		`(?i)Expiry Date:\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`(?i)Expir(?:y|ation)\s*Date[:\s]+`+slashDate,
		`(?i)Exp\.?\s*Date[:\s]+`+slashDate,
		`(?i)Valid\s*(?:Through|Until)[:\s]+`+slashDate,
	),
	dob: dateRule(
		`(?i)Birth Date:\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`(?i)(?:Date\s*of\s*)?Birth\s*Date[:\s]+`+slashDate,
		`(?i)DOB[:\s]+`+slashDate,
		`(?i)Born[:\s]+`+slashDate,
	),
	issue: dateRule(
		`(?i)Issue Date:\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`(?i)Issue\s*Date[:\s]+`+slashDate,
		`(?i)Issued[:\s]+`+slashDate,
	),
	status: rule(
		`(?i)Status:\s*(LICENCED|LICENSED|VALID|ACTIVE|SUSPENDED|REVOKED|EXPIRED)\b`,
		`(?i)Status[:\s]+(Valid|Suspended|Revoked|Expired)\b`,
		`(?i)License\s*Status[:\s]+(Valid|Suspended|Revoked|Expired)\b`,
	),
	// "Class: G***" pads the class with asterisks
	class: rule(
		`(?i:Class):\s*([A-Z0-9*]+)`,
		`(?i:Class)[:\s]+([A-Z0-9]+)\b`,
		`(?i:License\s*Class)[:\s]+([A-Z0-9]+)\b`,
		`\b(?i:Type)[:\s]+([A-Z0-9]{1,3})\b`,
	).withClean(func(s string) string {
		return strings.ReplaceAll(s, "*", "")
	}),
	points: rule(
		`(?i)Demerit Points:\s*(\d+)`,
		`(?i)(?:Demerit\s*)?Points?[:\s]+(\d+)`,
		`(?i)Point\s*Balance[:\s]+(\d+)`,
		`(?i)Total\s*Points[:\s]+(\d+)`,
	),
	conditions: rule(
		`(?i)Conditions:\s*([^\n]+)`,
		`(?i)Conditions?[:\s]+([^\n]+)`,
	).withClean(cleanConditions),
}

// MVRProcessor assembles records from Motor Vehicle Record reports. It is the
// only source of the driver's name and date of birth.
type MVRProcessor struct {
	log *logger.Logger
}

func NewMVRProcessor(log *logger.Logger) *MVRProcessor {
	if log == nil {
		log = logger.Nop()
	}
	return &MVRProcessor{log: log.WithComponent("mvr-processor")}
}

func (p *MVRProcessor) Name() string {
	return "mvr"
}

func (p *MVRProcessor) CanProcess(reportType domain.ReportType) bool {
	return reportType == domain.ReportTypeMVR
}

func (p *MVRProcessor) Process(ctx context.Context, text string, reportType domain.ReportType) (*domain.ReportRecord, error) {
	if err := checkInput(ctx, text); err != nil {
		return nil, err
	}
	start := time.Now()
	rec := &domain.ReportRecord{ReportType: domain.ReportTypeMVR}

	rec.Name = driverName(text)
	rec.LicenseNumber, _ = mvrRules.license.FindIn(text)
	rec.ExpiryDate, _ = mvrRules.expiry.FindIn(text)
	rec.DOB, _ = mvrRules.dob.FindIn(text)
	rec.IssueDate, _ = mvrRules.issue.FindIn(text)
	if s, ok := mvrRules.status.FindIn(text); ok {
		rec.LicenseStatus = normalizeLicenseStatus(s)
	}
	rec.LicenseClass, _ = mvrRules.class.FindIn(text)
	rec.DemeritPoints = intField(mvrRules.points, text)
	rec.Conditions, _ = mvrRules.conditions.FindIn(text)

	policy1, _ := Policy1Segment.Find(text)
	applyVehicles(rec, policy1)

	conv := ExtractConvictions(text)
	rec.ConvictionsCount = domain.NewCount(conv.Count)
	rec.Convictions = conv.Convictions
	for _, w := range conv.Warnings {
		rec.Warn(w)
	}

	p.log.Debug().
		Bool("name", rec.Name != "").
		Int("vehicles", len(rec.Policy1Vehicles)).
		Int("convictions", conv.Count).
		Int("convictions_extracted", len(conv.Convictions)).
		Dur("duration", time.Since(start)).
		Msg("mvr report assembled")

	return rec, nil
}

// driverName reads "Name: LAST,FIRST,MIDDLE Birth Date: ..." and returns
// "FIRST LAST MIDDLE". Names without commas are returned as printed.
func driverName(text string) string {
	m := mvrName.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	raw := m[1]
	if loc := mvrNameEnd.FindStringIndex(raw); loc != nil {
		raw = raw[:loc[0]]
	}
	raw = strings.TrimSpace(raw)

	parts := strings.Split(raw, ",")
	if len(parts) < 2 {
		return raw
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	name := parts[1] + " " + parts[0]
	if len(parts) > 2 && parts[2] != "" {
		name += " " + parts[2]
	}
	return strings.TrimSpace(name)
}
