package messaging

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event types
const (
	EventReportParsed      = "report.parsed"
	EventReportParseFailed = "report.parse_failed"
)

// Exchange names
const (
	ExchangeReportEvents = "report.events"
)

// Event is the envelope every published message is wrapped in
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into v
func (e *Event) UnmarshalData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// ReportParsedEvent is published after a report has been parsed successfully.
// It carries summary counts only; consumers fetch the record by ReportID.
type ReportParsedEvent struct {
	ReportID      string   `json:"report_id"`
	ReportType    string   `json:"report_type"`
	FileName      string   `json:"file_name"`
	LicenseNumber string   `json:"license_number,omitempty"`
	Vehicles      int      `json:"vehicles"`
	Claims        int      `json:"claims"`
	Convictions   int      `json:"convictions"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ReportParseFailedEvent is published when an upload could not be parsed
type ReportParseFailedEvent struct {
	ReportType string `json:"report_type"`
	FileName   string `json:"file_name"`
	Error      string `json:"error"`
}
