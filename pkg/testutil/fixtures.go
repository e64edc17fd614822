package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
)

// DashReportText is a DASH report as it comes out of text extraction. The
// policy listing is in [#2, #1, #3] order and Policy #1 opens with a
// role-label vehicle line that carries a VIN.
const DashReportText = `DASH Driver Report
Report Date: 2025-01-05
Name: SMITH, JANE
DLN: S1234-56789-01234
Address: 201-1480 Eglinton Ave W ,Toronto,ON M6C2G5 Number of Vehicles: 2
Email: jane.smith@example.com
Phone: (416) 555-0199
Years of Continuous Insurance: 9
Policies
#2 2024-08-08 to 2025-08-08 Intact Insurance Active
#1 2025-08-08 to 2026-08-08 Intact Insurance Active
#3 2016-08-08 to 2017-08-08 Aviva Canada Cancelled
Claims
#1 2021-03-15 INTACT INSURANCE (Auto) At-Fault: 0%
#2 2019-07-02 AVIVA CANADA *THIRD PARTY* DOE, JOHN At-Fault: 100%
#3 2017-11-20 ECONOMICAL At-Fault: 50%
Previous Inquiries
Policy #1
Expiry Date: 2026-08-01
Vehicle #1: Principal Operator SMITH, JANE 1HGBH41JXMN109186
Vehicle #1: 2019 HONDA - CIVIC LX - 2HGFC2F59KH123456
Vehicle #2: 2021 TOYOTA - RAV4
JTMBFREV5MD012345
Policy #2
Vehicle #1: 2015 FORD - FOCUS - 1FADP3F20FL123456
Claim #1 Date of Loss 2021-03-15
First Party Driver: SMITH, JANE DLN S1234
KOL16 - Other Property Damage to insured vehicle: $7,794.00 (Loss); $0.00 (Expense);
Total Loss: $7,794.00 Total Expense: $0.00
Claim Status: Open
Claim #2 Date of Loss 2019-07-02
Total Loss: $1,250.50 Total Expense: $120.00
Claim #3 Date of Loss 2017-11-20
`

// MVRReportText is an MVR report listing two convictions, one of them
// printed twice.
const MVRReportText = `MINISTRY OF TRANSPORTATION DRIVER RECORD
Name: DOE,JOHN,ALEXANDER Birth Date: 03/02/1980
Licence Number: D1234-56789-80302
Gender: M Height: 180
Address: 55 KING ST W TORONTO ON M5K1A1
Expiry Date: 03/02/2030
Issue Date: 16/11/2001
Status: LICENCED
Class: G***
Demerit Points: 00
Conditions: */N
***Number of Convictions: 2 ***
DATE CONVICTIONS, DISCHARGES AND OTHER ACTIONS
01/15/2023 SPEEDING 20 KM/H OVER Fine: $280
06/30/2023 FAIL TO STOP AT RED LIGHT
01/15/2023 SPEEDING 20 KM/H OVER Fine: $280

*** END OF REPORT ***
`

// CleanMVRReportText is an MVR report with no convictions.
const CleanMVRReportText = `MINISTRY OF TRANSPORTATION DRIVER RECORD
Name: LEE,ANNA Birth Date: 07/21/1992
Licence Number: L5555-44444-92721
Expiry Date: 07/21/2027
Status: SUSPENDED
Class: G2
***Number of Convictions: 0 ***
*** END OF REPORT ***
`

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// ParseResult creates a parse result fixture with a small DASH record
func (f *FixtureFactory) ParseResult(opts ...func(*domain.ParseResult)) *domain.ParseResult {
	seq := f.nextSeq()
	points := 0

	result := &domain.ParseResult{
		ReportID:         uuid.New().String(),
		ReportType:       domain.ReportTypeDASH,
		FileName:         fmt.Sprintf("report-%d.pdf", seq),
		Processor:        "dash",
		ExtractionMethod: "pdf-rows",
		Pages:            1,
		Record: &domain.ReportRecord{
			ReportType:      domain.ReportTypeDASH,
			LicenseNumber:   fmt.Sprintf("S1234-56789-%05d", seq),
			DemeritPoints:   &points,
			ReportDate:      "01/05/2025",
			Policy1Vehicles: []domain.Vehicle{},
			VIN:             domain.NoVehicle,
			ClaimsCount:     domain.NewCount(0),
		},
		ProcessingTimeMs: 12,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}

	for _, opt := range opts {
		opt(result)
	}

	return result
}

// WithReportType sets the report type on both the result and its record
func WithReportType(t domain.ReportType) func(*domain.ParseResult) {
	return func(r *domain.ParseResult) {
		r.ReportType = t
		r.Processor = string(t)
		r.Record.ReportType = t
	}
}

// WithLicenseNumber sets the record's licence number
func WithLicenseNumber(n string) func(*domain.ParseResult) {
	return func(r *domain.ParseResult) {
		r.Record.LicenseNumber = n
	}
}

// WithWarnings sets the record's warnings
func WithWarnings(w ...string) func(*domain.ParseResult) {
	return func(r *domain.ParseResult) {
		r.Record.Warnings = w
	}
}

// BuildPDF renders each element of pages as one PDF page, one text line per
// string, using an uncompressed content stream and a standard font.
func BuildPDF(pages ...[]string) []byte {
	streams := make([]string, len(pages))
	for i, lines := range pages {
		streams[i] = contentStream(lines)
	}
	return BuildPDFFromStreams(streams...)
}

// BuildPDFFromStreams renders each raw content stream as one page. The font
// resource /F1 is Helvetica.
func BuildPDFFromStreams(streams ...string) []byte {
	var b strings.Builder
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")

	kids := make([]string, len(streams))
	for i := range streams {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(streams)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, stream := range streams {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return []byte(b.String())
}

// contentStream places every line with an absolute text matrix; row-based
// readers group text by the matrix y offset.
func contentStream(lines []string) string {
	var s strings.Builder
	s.WriteString("BT\n/F1 10 Tf\n")
	for i, line := range lines {
		fmt.Fprintf(&s, "1 0 0 1 50 %d Tm\n(%s) Tj\n", 750-14*i, escapePDFString(line))
	}
	s.WriteString("ET")
	return s.String()
}

// Lines splits a text fixture into the line slice BuildPDF expects
func Lines(text string) []string {
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}

func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}
