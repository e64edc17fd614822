package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/internal/reports/events"
	"github.com/quoteflow/quoteflow-backend/pkg/messaging"
	"github.com/quoteflow/quoteflow-backend/pkg/testutil"
)

func TestReportEventPublisher_PublishParsed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewReportEventPublisher(mock, nil)

	result := testutil.NewFixtureFactory().ParseResult(
		testutil.WithReportType(domain.ReportTypeMVR),
		testutil.WithWarnings("convictions: report lists 3, extracted 2"),
	)
	result.Record.ConvictionsCount = domain.NewCount(3)

	p.PublishParsed(context.Background(), result)

	published := mock.Events(messaging.EventReportParsed)
	require.Len(t, published, 1)

	data, ok := published[0].Payload.(messaging.ReportParsedEvent)
	require.True(t, ok)
	assert.Equal(t, result.ReportID, data.ReportID)
	assert.Equal(t, "mvr", data.ReportType)
	assert.Equal(t, result.Record.LicenseNumber, data.LicenseNumber)
	assert.Equal(t, 3, data.Convictions)
	assert.Equal(t, 0, data.Vehicles)
	assert.Equal(t, []string{"convictions: report lists 3, extracted 2"}, data.Warnings)
}

func TestReportEventPublisher_PublishFailed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewReportEventPublisher(mock, nil)

	p.PublishFailed(context.Background(), domain.ReportTypeDASH, "scan.pdf", errors.New("no extractable text"))

	published := mock.Events(messaging.EventReportParseFailed)
	require.Len(t, published, 1)
	assert.Equal(t, messaging.ReportParseFailedEvent{
		ReportType: "dash",
		FileName:   "scan.pdf",
		Error:      "no extractable text",
	}, published[0].Payload)
}

func TestReportEventPublisher_BrokerErrorsAreSwallowed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = errors.New("channel closed")
	p := events.NewReportEventPublisher(mock, nil)

	assert.NotPanics(t, func() {
		p.PublishParsed(context.Background(), testutil.NewFixtureFactory().ParseResult())
		p.PublishFailed(context.Background(), domain.ReportTypeDASH, "x.pdf", nil)
	})
	mock.AssertNoEventsPublished(t)
}

func TestReportEventPublisher_Disabled(t *testing.T) {
	var nilPublisher *events.ReportEventPublisher
	disabled := events.NewReportEventPublisher(nil, nil)

	assert.NotPanics(t, func() {
		nilPublisher.PublishParsed(context.Background(), testutil.NewFixtureFactory().ParseResult())
		disabled.PublishFailed(context.Background(), domain.ReportTypeMVR, "x.pdf", errors.New("boom"))
	})
}
