package processor

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
)

// ErrEmptyText is returned when a processor is handed no text at all
var ErrEmptyText = errors.New("report text is empty")

// Processor turns the page text of one report into a ReportRecord.
// Implementations hold no mutable state and are safe for concurrent use.
type Processor interface {
	// CanProcess returns true if this processor handles the given report type
	CanProcess(reportType domain.ReportType) bool

	// Process extracts a record from the concatenated page text. Missing
	// fields are left absent; an error means the whole document failed.
	Process(ctx context.Context, text string, reportType domain.ReportType) (*domain.ReportRecord, error)

	// Name returns the processor name for logging
	Name() string
}

// Registry holds all registered processors and dispatches to the right one
type Registry struct {
	processors []Processor
}

// NewRegistry creates a new processor registry
func NewRegistry(processors ...Processor) *Registry {
	return &Registry{processors: processors}
}

// DefaultRegistry wires the DASH and MVR assemblers
func DefaultRegistry(log *logger.Logger) *Registry {
	return NewRegistry(NewDashProcessor(log), NewMVRProcessor(log))
}

// FindProcessors returns every processor for the report type in registration
// order, so a caller can fall back to the next one when a processor fails.
func (r *Registry) FindProcessors(reportType domain.ReportType) []Processor {
	var result []Processor
	for _, p := range r.processors {
		if p.CanProcess(reportType) {
			result = append(result, p)
		}
	}
	return result
}

func checkInput(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}

// applyVehicles scopes vehicles to Policy #1 and fills the single-vehicle view
func applyVehicles(rec *domain.ReportRecord, policy1 string) {
	rec.Policy1Vehicles = ExtractVehicles(policy1)
	if len(rec.Policy1Vehicles) == 0 {
		rec.Policy1Vehicles = []domain.Vehicle{}
		rec.VIN = domain.NoVehicle
		rec.VehicleYearMakeModel = domain.NoVehicle
	} else {
		rec.VIN = rec.Policy1Vehicles[0].VIN
		rec.VehicleYearMakeModel = rec.Policy1Vehicles[0].YearMakeModel
	}
	rec.ExtractedFromPolicy = "1"
}

// normalizeLicenseStatus maps the wording vendors use onto LicenseStatus
func normalizeLicenseStatus(s string) domain.LicenseStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LICENCED", "LICENSED", "ACTIVE", "VALID":
		return domain.LicenseValid
	case "SUSPENDED":
		return domain.LicenseSuspended
	case "REVOKED":
		return domain.LicenseRevoked
	case "EXPIRED":
		return domain.LicenseExpired
	default:
		return domain.LicenseUnknown
	}
}

var conditionPlaceholders = map[string]bool{"*/N": true, "*": true, "N": true, "None": true, "NONE": true}

func cleanConditions(s string) string {
	if conditionPlaceholders[s] {
		return ""
	}
	return s
}

func intField(r Rule, text string) *int {
	v, ok := r.FindIn(text)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
