package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/internal/reports/repository"
	"github.com/quoteflow/quoteflow-backend/pkg/database"
	"github.com/quoteflow/quoteflow-backend/pkg/errors"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
	"github.com/quoteflow/quoteflow-backend/pkg/testutil"
)

func TestReportRepository_Postgres(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := testutil.DefaultTestContext(t)

	container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	conn, err := container.Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	repo := repository.NewReportRepository(database.Wrap(conn, logger.Nop()))
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.Migrate(ctx), "migrations are idempotent")

	factory := testutil.NewFixtureFactory()
	license := "S1234-56789-01234"

	older := factory.ParseResult(testutil.WithLicenseNumber(license))
	_, err = repo.Create(ctx, older)
	require.NoError(t, err)

	newer := factory.ParseResult(
		testutil.WithLicenseNumber(license),
		testutil.WithWarnings("claim #2: no financial detail found"),
	)
	_, err = repo.Create(ctx, newer)
	require.NoError(t, err)

	other := factory.ParseResult(testutil.WithReportType(domain.ReportTypeMVR), testutil.WithLicenseNumber("D0000-00000-00000"))
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, newer.ReportID)
		require.NoError(t, err)
		assert.Equal(t, domain.ReportTypeDASH, got.ReportType)
		assert.Equal(t, newer.Record.ReportDate, got.Record.ReportDate)
		assert.Equal(t, []string{"claim #2: no financial detail found"}, got.Warnings)
		assert.Equal(t, 0, got.Record.ClaimsCount.Int())
	})

	t.Run("list newest first", func(t *testing.T) {
		reports, err := repo.ListByLicenseNumber(ctx, license, 10)
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, newer.ReportID, reports[0].ID)
		assert.Equal(t, older.ReportID, reports[1].ID)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := repo.Create(ctx, older)
		assert.ErrorIs(t, err, errors.ErrConflict)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, errors.ErrBadRequest)
	})
}
