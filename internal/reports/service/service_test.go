package service_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/internal/reports/events"
	"github.com/quoteflow/quoteflow-backend/internal/reports/processor"
	"github.com/quoteflow/quoteflow-backend/internal/reports/service"
	"github.com/quoteflow/quoteflow-backend/internal/reports/storage"
	"github.com/quoteflow/quoteflow-backend/internal/reports/textextract"
	"github.com/quoteflow/quoteflow-backend/pkg/errors"
	"github.com/quoteflow/quoteflow-backend/pkg/messaging"
	"github.com/quoteflow/quoteflow-backend/pkg/testutil"
)

type fakeRepo struct {
	mu        sync.Mutex
	created   []*domain.ParseResult
	stored    map[string]*domain.StoredReport
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stored: make(map[string]*domain.StoredReport)}
}

func (r *fakeRepo) Create(ctx context.Context, result *domain.ParseResult) (*domain.StoredReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, result)
	return &domain.StoredReport{ID: result.ReportID, ReportType: result.ReportType, Record: result.Record}, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.StoredReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stored[id]; ok {
		return s, nil
	}
	return nil, errors.NotFound("report")
}

func (r *fakeRepo) ListByLicenseNumber(ctx context.Context, licenseNumber string, limit int) ([]*domain.StoredReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StoredReport
	for _, s := range r.stored {
		if s.LicenseNumber != nil && *s.LicenseNumber == licenseNumber {
			out = append(out, s)
		}
	}
	return out, nil
}

type failingProcessor struct{}

func (failingProcessor) CanProcess(domain.ReportType) bool { return true }
func (failingProcessor) Name() string                     { return "failing" }
func (failingProcessor) Process(context.Context, string, domain.ReportType) (*domain.ReportRecord, error) {
	return nil, stderrors.New("layout not recognised")
}

type fixture struct {
	svc       *service.Service
	store     *storage.ResultStore
	repo      *fakeRepo
	publisher *testutil.MockPublisher
}

func newFixture(t *testing.T, registry *processor.Registry, withRepo bool) *fixture {
	t.Helper()

	store := storage.NewResultStore(time.Minute)
	t.Cleanup(store.Close)

	publisher := testutil.NewMockPublisher()
	f := &fixture{store: store, publisher: publisher}

	var repo service.Repository
	if withRepo {
		f.repo = newFakeRepo()
		repo = f.repo
	}
	if registry == nil {
		registry = processor.DefaultRegistry(nil)
	}

	f.svc = service.NewService(
		textextract.DefaultChain(20, nil),
		registry,
		store,
		repo,
		events.NewReportEventPublisher(publisher, nil),
		nil,
		64,
	)
	return f
}

func TestService_Parse(t *testing.T) {
	f := newFixture(t, nil, true)
	data := []byte(testutil.DashReportText)

	result, err := f.svc.Parse(context.Background(), data, domain.ReportTypeDASH, "dash.txt")
	require.NoError(t, err)

	assert.NotEmpty(t, result.ReportID)
	assert.Equal(t, domain.ReportTypeDASH, result.ReportType)
	assert.Equal(t, "dash.txt", result.FileName)
	assert.Equal(t, "dash", result.Processor)
	assert.Equal(t, "text", result.ExtractionMethod)
	assert.Equal(t, 1, result.Pages)
	assert.LessOrEqual(t, len(result.RawText), 64)
	assert.NotEmpty(t, result.RawText)

	require.NotNil(t, result.Record)
	assert.Equal(t, "S1234-56789-01234", result.Record.LicenseNumber)
	assert.Len(t, result.Record.Claims, 3)

	assert.Same(t, result, f.store.Get(result.ReportID))
	require.Len(t, f.repo.created, 1)
	assert.Equal(t, result.ReportID, f.repo.created[0].ReportID)

	published := f.publisher.Events(messaging.EventReportParsed)
	require.Len(t, published, 1)
	assert.Equal(t, 3, published[0].Payload.(messaging.ReportParsedEvent).Claims)

	for _, b := range data {
		require.Zero(t, b, "upload buffer must be zeroed")
	}
}

func TestService_Parse_PDF(t *testing.T) {
	f := newFixture(t, nil, false)
	pdf := testutil.BuildPDF(testutil.Lines(testutil.MVRReportText))

	result, err := f.svc.Parse(context.Background(), pdf, domain.ReportTypeMVR, "mvr.pdf")
	require.NoError(t, err)

	assert.Equal(t, "mvr", result.Processor)
	assert.Equal(t, "pdf-rows", result.ExtractionMethod)
	assert.Equal(t, "D1234-56789-80302", result.Record.LicenseNumber)
}

func TestService_Parse_Errors(t *testing.T) {
	t.Run("unknown report type", func(t *testing.T) {
		f := newFixture(t, nil, false)

		_, err := f.svc.Parse(context.Background(), []byte(testutil.DashReportText), domain.ReportType("cv"), "x.txt")
		assert.ErrorIs(t, err, errors.ErrUnsupportedFile)
		f.publisher.AssertNoEventsPublished(t)
	})

	t.Run("unreadable document", func(t *testing.T) {
		f := newFixture(t, nil, false)
		data := []byte{0x00, 0x01, 0x02, 0xff}

		_, err := f.svc.Parse(context.Background(), data, domain.ReportTypeDASH, "blob.bin")
		assert.ErrorIs(t, err, errors.ErrUnreadableDocument)
		assert.ErrorIs(t, err, textextract.ErrUnsupportedFormat)

		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 400, appErr.StatusCode)

		failed := f.publisher.Events(messaging.EventReportParseFailed)
		require.Len(t, failed, 1)
		assert.Equal(t, "blob.bin", failed[0].Payload.(messaging.ReportParseFailedEvent).FileName)
		assert.Equal(t, []byte{0, 0, 0, 0}, data)
	})

	t.Run("too little text", func(t *testing.T) {
		f := newFixture(t, nil, false)

		_, err := f.svc.Parse(context.Background(), []byte("DASH"), domain.ReportTypeDASH, "short.txt")
		assert.ErrorIs(t, err, textextract.ErrNoText)
		assert.Len(t, f.publisher.Events(messaging.EventReportParseFailed), 1)
	})

	t.Run("all processors fail", func(t *testing.T) {
		f := newFixture(t, processor.NewRegistry(failingProcessor{}), false)

		_, err := f.svc.Parse(context.Background(), []byte(testutil.DashReportText), domain.ReportTypeDASH, "dash.txt")
		assert.ErrorIs(t, err, errors.ErrUnreadableDocument)
		assert.Len(t, f.publisher.Events(messaging.EventReportParseFailed), 1)
		assert.Zero(t, f.store.Len())
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture(t, nil, false)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.svc.Parse(ctx, []byte(testutil.DashReportText), domain.ReportTypeDASH, "dash.txt")
		assert.ErrorIs(t, err, context.Canceled)
		f.publisher.AssertNoEventsPublished(t)
	})
}

func TestService_Parse_FallsBackToNextProcessor(t *testing.T) {
	registry := processor.NewRegistry(failingProcessor{}, processor.NewDashProcessor(nil))
	f := newFixture(t, registry, false)

	result, err := f.svc.Parse(context.Background(), []byte(testutil.DashReportText), domain.ReportTypeDASH, "dash.txt")
	require.NoError(t, err)
	assert.Equal(t, "dash", result.Processor)
}

func TestService_Parse_PersistFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, nil, true)
	f.repo.createErr = errors.Internal("database is down")

	result, err := f.svc.Parse(context.Background(), []byte(testutil.MVRReportText), domain.ReportTypeMVR, "mvr.txt")
	require.NoError(t, err)
	assert.NotNil(t, f.store.Get(result.ReportID))
	f.publisher.AssertEventPublished(t, messaging.EventReportParsed)
}

func TestService_Get(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()

	parsed, err := f.svc.Parse(ctx, []byte(testutil.MVRReportText), domain.ReportTypeMVR, "mvr.txt")
	require.NoError(t, err)

	t.Run("from store", func(t *testing.T) {
		got, err := f.svc.Get(ctx, parsed.ReportID)
		require.NoError(t, err)
		assert.Same(t, parsed, got)
	})

	t.Run("from repository", func(t *testing.T) {
		license := "D1234-56789-80302"
		f.repo.stored["5b0f1c5e-1f53-4d8e-9d8a-6f0b8f3e2a11"] = &domain.StoredReport{
			ID:            "5b0f1c5e-1f53-4d8e-9d8a-6f0b8f3e2a11",
			ReportType:    domain.ReportTypeMVR,
			FileName:      "old.pdf",
			LicenseNumber: &license,
			Record:        &domain.ReportRecord{ReportType: domain.ReportTypeMVR, LicenseNumber: license},
			ProcessingMs:  40,
		}

		got, err := f.svc.Get(ctx, "5b0f1c5e-1f53-4d8e-9d8a-6f0b8f3e2a11")
		require.NoError(t, err)
		assert.Equal(t, "old.pdf", got.FileName)
		assert.Equal(t, int64(40), got.ProcessingTimeMs)
		assert.Equal(t, license, got.Record.LicenseNumber)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.svc.Get(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("not found without repository", func(t *testing.T) {
		bare := newFixture(t, nil, false)
		_, err := bare.svc.Get(ctx, parsed.ReportID)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestService_ListByLicenseNumber(t *testing.T) {
	t.Run("persistence disabled", func(t *testing.T) {
		f := newFixture(t, nil, false)
		_, err := f.svc.ListByLicenseNumber(context.Background(), "D1234-56789-80302", 20)
		assert.ErrorIs(t, err, errors.ErrUnavailable)
	})

	t.Run("delegates to repository", func(t *testing.T) {
		f := newFixture(t, nil, true)
		license := "D1234-56789-80302"
		f.repo.stored["a"] = &domain.StoredReport{ID: "a", LicenseNumber: &license}

		reports, err := f.svc.ListByLicenseNumber(context.Background(), license, 20)
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, "a", reports[0].ID)
	})
}
