package domain

import (
	"strconv"
	"strings"
	"time"
)

// ReportType identifies which report family a document belongs to
type ReportType string

const (
	// ReportTypeDASH is the Driver Abstract/Summary History report.
	ReportTypeDASH ReportType = "dash"
	// ReportTypeMVR is the Motor Vehicle Record report.
	ReportTypeMVR ReportType = "mvr"
)

// Valid reports whether t is a known report type
func (t ReportType) Valid() bool {
	return t == ReportTypeDASH || t == ReportTypeMVR
}

// LicenseStatus is the normalised licence standing
type LicenseStatus string

const (
	LicenseValid     LicenseStatus = "Valid"
	LicenseSuspended LicenseStatus = "Suspended"
	LicenseRevoked   LicenseStatus = "Revoked"
	LicenseExpired   LicenseStatus = "Expired"
	LicenseUnknown   LicenseStatus = "unknown"
)

// NoVehicle fills the single-vehicle view when Policy #1 lists no vehicle
const NoVehicle = "-"

// Count is a tally carried on the wire as a decimal string ("0", "3"), the
// form downstream quoting tools already consume.
type Count int

// NewCount returns a pointer to n as a Count
func NewCount(n int) *Count {
	c := Count(n)
	return &c
}

// Int returns the count as an int; nil counts as zero
func (c *Count) Int() int {
	if c == nil {
		return 0
	}
	return int(*c)
}

func (c Count) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.Itoa(int(c)))), nil
}

func (c *Count) UnmarshalJSON(b []byte) error {
	n, err := strconv.Atoi(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*c = Count(n)
	return nil
}

// Policy is one entry of the policy listing, in document order
type Policy struct {
	Number    int    `json:"number"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Vehicle is a vehicle listed under Policy #1
type Vehicle struct {
	VehicleNumber string `json:"vehicle_number"`
	VIN           string `json:"vin"`
	YearMakeModel string `json:"year_make_model"`
}

// KOLItem is an itemised loss-detail line of a claim
type KOLItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Loss        string `json:"loss"`
	Expense     string `json:"expense"`
}

// Claim is a single claim from the claims section. Money values are decimal
// strings with thousands separators removed; Total is only set when both Loss
// and Expense are known.
type Claim struct {
	Number           int       `json:"number"`
	Date             string    `json:"date,omitempty"`
	Company          string    `json:"company"`
	Fault            string    `json:"fault,omitempty"`
	Status           string    `json:"status"`
	FirstPartyDriver string    `json:"firstPartyDriver,omitempty"`
	ThirdPartyDriver string    `json:"thirdPartyDriver,omitempty"`
	Loss             string    `json:"loss,omitempty"`
	Expense          string    `json:"expense,omitempty"`
	Total            string    `json:"total,omitempty"`
	KOLItems         []KOLItem `json:"kolItems,omitempty"`
}

// Conviction is one conviction line from an MVR
type Conviction struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// ReportRecord is the normalised output of a parse. Every field is optional;
// an absent value means the report did not yield it.
type ReportRecord struct {
	ReportType ReportType `json:"report_type"`

	// identity
	Name          string        `json:"name,omitempty"`
	LicenseNumber string        `json:"license_number,omitempty"`
	DOB           string        `json:"dob,omitempty"`
	LicenseClass  string        `json:"license_class,omitempty"`
	LicenseStatus LicenseStatus `json:"license_status,omitempty"`
	DemeritPoints *int          `json:"demerit_points,omitempty"`
	Conditions    string        `json:"conditions,omitempty"`
	Address       string        `json:"address,omitempty"`
	Email         string        `json:"email,omitempty"`
	Phone         string        `json:"phone,omitempty"`

	// dates, all MM/DD/YYYY
	IssueDate          string `json:"issue_date,omitempty"`
	ExpiryDate         string `json:"expiry_date,omitempty"`
	ReportDate         string `json:"report_date,omitempty"`
	RenewalDate        string `json:"renewal_date,omitempty"`
	PolicyStartDate    string `json:"policy_start_date,omitempty"`
	PolicyEndDate      string `json:"policy_end_date,omitempty"`
	FirstInsuranceDate string `json:"first_insurance_date,omitempty"`

	YearsContinuousInsurance *int      `json:"years_continuous_insurance,omitempty"`
	AllPolicies              []Policy  `json:"all_policies,omitempty"`
	Policy1Vehicles          []Vehicle `json:"policy1_vehicles"`
	VIN                      string    `json:"vin,omitempty"`
	VehicleYearMakeModel     string    `json:"vehicle_year_make_model,omitempty"`
	ExtractedFromPolicy      string    `json:"extracted_from_policy,omitempty"`

	Claims           []Claim      `json:"claims,omitempty"`
	ClaimsCount      *Count       `json:"claims_count,omitempty"`
	ConvictionsCount *Count       `json:"convictions_count,omitempty"`
	Convictions      []Conviction `json:"convictions,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// Warn records a partial-extraction notice
func (r *ReportRecord) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// ParseResult is what the service returns for one upload
type ParseResult struct {
	ReportID         string        `json:"report_id"`
	ReportType       ReportType    `json:"report_type"`
	FileName         string        `json:"file_name"`
	Processor        string        `json:"processor"`
	ExtractionMethod string        `json:"extraction_method"`
	Pages            int           `json:"pages"`
	Record           *ReportRecord `json:"record"`
	RawText          string        `json:"raw_text,omitempty"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	CreatedAt        time.Time     `json:"created_at"`
}

// StoredReport is a persisted parse result
type StoredReport struct {
	ID            string        `db:"id" json:"id"`
	ReportType    ReportType    `db:"report_type" json:"report_type"`
	FileName      string        `db:"file_name" json:"file_name"`
	LicenseNumber *string       `db:"license_number" json:"license_number,omitempty"`
	Record        *ReportRecord `db:"-" json:"record"`
	Warnings      []string      `db:"-" json:"warnings,omitempty"`
	ProcessingMs  int           `db:"processing_ms" json:"processing_ms"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
