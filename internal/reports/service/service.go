package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/internal/reports/events"
	"github.com/quoteflow/quoteflow-backend/internal/reports/processor"
	"github.com/quoteflow/quoteflow-backend/internal/reports/storage"
	"github.com/quoteflow/quoteflow-backend/internal/reports/textextract"
	"github.com/quoteflow/quoteflow-backend/pkg/errors"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
)

// Repository persists parse results. It is optional: a service without one
// serves lookups from the TTL store only.
type Repository interface {
	Create(ctx context.Context, result *domain.ParseResult) (*domain.StoredReport, error)
	GetByID(ctx context.Context, id string) (*domain.StoredReport, error)
	ListByLicenseNumber(ctx context.Context, licenseNumber string, limit int) ([]*domain.StoredReport, error)
}

// Service orchestrates report parsing: extract text → dispatch → store
type Service struct {
	chain      *textextract.Chain
	registry   *processor.Registry
	store      *storage.ResultStore
	repo       Repository
	events     *events.ReportEventPublisher
	log        *logger.Logger
	rawPreview int
}

// NewService creates a new report parsing service. repo and publisher may be
// nil. rawPreview caps how many bytes of extracted text are kept on a result;
// zero keeps none.
func NewService(
	chain *textextract.Chain,
	registry *processor.Registry,
	store *storage.ResultStore,
	repo Repository,
	publisher *events.ReportEventPublisher,
	log *logger.Logger,
	rawPreview int,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		chain:      chain,
		registry:   registry,
		store:      store,
		repo:       repo,
		events:     publisher,
		log:        log.WithComponent("report-service"),
		rawPreview: rawPreview,
	}
}

// Parse extracts a record from an uploaded report. The upload buffer is
// zeroed before Parse returns, whatever the outcome.
func (s *Service) Parse(ctx context.Context, data []byte, reportType domain.ReportType, fileName string) (*domain.ParseResult, error) {
	defer storage.ZeroBytes(data)
	start := time.Now()

	if !reportType.Valid() {
		return nil, errors.UnsupportedFile(fmt.Sprintf("unsupported report type: %q", reportType))
	}

	// Find all processors for this report type (supports fallback)
	processors := s.registry.FindProcessors(reportType)
	if len(processors) == 0 {
		return nil, errors.UnsupportedFile(fmt.Sprintf("no processor available for report type: %s", reportType))
	}

	log := s.log.WithReportType(string(reportType))

	doc, err := s.chain.Extract(ctx, data)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		log.Warn().Err(err).Str("file_name", fileName).Msg("text extraction failed")
		s.events.PublishFailed(ctx, reportType, fileName, err)
		return nil, errors.UnprocessableDocument(err)
	}

	// Try processors in order; if one fails, fall through to the next
	var (
		record  *domain.ReportRecord
		used    processor.Processor
		lastErr error
	)
	for _, proc := range processors {
		record, lastErr = proc.Process(ctx, doc.Text, reportType)
		if lastErr == nil {
			used = proc
			break
		}
		if isContextErr(lastErr) {
			return nil, lastErr
		}
		log.Warn().Err(lastErr).Str("processor", proc.Name()).Msg("processor failed, trying next")
	}
	if lastErr != nil {
		log.Error().Err(lastErr).Str("file_name", fileName).Msg("all processors failed")
		s.events.PublishFailed(ctx, reportType, fileName, lastErr)
		return nil, errors.UnprocessableDocument(lastErr)
	}

	result := &domain.ParseResult{
		ReportID:         uuid.NewString(),
		ReportType:       reportType,
		FileName:         fileName,
		Processor:        used.Name(),
		ExtractionMethod: doc.Method,
		Pages:            doc.Pages,
		Record:           record,
		RawText:          preview(doc.Text, s.rawPreview),
		CreatedAt:        time.Now().UTC(),
	}
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	s.store.Store(result)

	if s.repo != nil {
		if _, err := s.repo.Create(ctx, result); err != nil {
			log.Error().Err(err).Str("report_id", result.ReportID).Msg("failed to persist parsed report")
		}
	}

	s.events.PublishParsed(ctx, result)

	log.Info().
		Str("report_id", result.ReportID).
		Str("processor", result.Processor).
		Str("extraction_method", result.ExtractionMethod).
		Int("pages", result.Pages).
		Int("warnings", len(record.Warnings)).
		Int64("duration_ms", result.ProcessingTimeMs).
		Msg("report parsed")

	return result, nil
}

// Get returns a recent result from the TTL store, falling back to the
// repository for results that have expired or were parsed by another replica.
func (s *Service) Get(ctx context.Context, reportID string) (*domain.ParseResult, error) {
	if result := s.store.Get(reportID); result != nil {
		return result, nil
	}
	if s.repo == nil {
		return nil, errors.NotFound("report")
	}

	stored, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return fromStored(stored), nil
}

// ListByLicenseNumber returns persisted reports for a licence, newest first
func (s *Service) ListByLicenseNumber(ctx context.Context, licenseNumber string, limit int) ([]*domain.StoredReport, error) {
	if s.repo == nil {
		return nil, errors.Unavailable("report persistence is disabled")
	}
	return s.repo.ListByLicenseNumber(ctx, licenseNumber, limit)
}

func fromStored(stored *domain.StoredReport) *domain.ParseResult {
	return &domain.ParseResult{
		ReportID:         stored.ID,
		ReportType:       stored.ReportType,
		FileName:         stored.FileName,
		Record:           stored.Record,
		ProcessingTimeMs: int64(stored.ProcessingMs),
		CreatedAt:        stored.CreatedAt,
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// preview truncates text to at most n bytes without splitting a rune
func preview(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}
