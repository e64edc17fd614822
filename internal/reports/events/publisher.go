package events

import (
	"context"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
	"github.com/quoteflow/quoteflow-backend/pkg/messaging"
)

// Publisher is the subset of messaging.Publisher the report events need
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// ReportEventPublisher publishes report parse outcomes. A nil publisher turns
// every call into a no-op, which is how the service runs without a broker.
type ReportEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewReportEventPublisher creates a new report event publisher
func NewReportEventPublisher(publisher Publisher, log *logger.Logger) *ReportEventPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// NewRabbitPublisher wires the report exchange on an open broker connection
func NewRabbitPublisher(rmq *messaging.RabbitMQ, exchange string, log *logger.Logger) (*ReportEventPublisher, error) {
	if exchange == "" {
		exchange = messaging.ExchangeReportEvents
	}
	publisher, err := messaging.NewPublisher(rmq, exchange, "report-service", log)
	if err != nil {
		return nil, err
	}
	return NewReportEventPublisher(publisher, log), nil
}

// PublishParsed publishes a report parsed event
func (p *ReportEventPublisher) PublishParsed(ctx context.Context, result *domain.ParseResult) {
	if p == nil || p.publisher == nil || result == nil || result.Record == nil {
		return
	}
	rec := result.Record

	data := messaging.ReportParsedEvent{
		ReportID:      result.ReportID,
		ReportType:    string(result.ReportType),
		FileName:      result.FileName,
		LicenseNumber: rec.LicenseNumber,
		Vehicles:      len(rec.Policy1Vehicles),
		Claims:        len(rec.Claims),
		Convictions:   rec.ConvictionsCount.Int(),
		Warnings:      rec.Warnings,
	}

	if err := p.publisher.Publish(ctx, messaging.EventReportParsed, data); err != nil {
		p.logger.Error().Err(err).Str("report_id", result.ReportID).Msg("failed to publish report parsed event")
	}
}

// PublishFailed publishes a report parse failed event
func (p *ReportEventPublisher) PublishFailed(ctx context.Context, reportType domain.ReportType, fileName string, cause error) {
	if p == nil || p.publisher == nil {
		return
	}

	data := messaging.ReportParseFailedEvent{
		ReportType: string(reportType),
		FileName:   fileName,
	}
	if cause != nil {
		data.Error = cause.Error()
	}

	if err := p.publisher.Publish(ctx, messaging.EventReportParseFailed, data); err != nil {
		p.logger.Error().Err(err).Str("file_name", fileName).Msg("failed to publish report parse failed event")
	}
}
