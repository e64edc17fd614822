package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/lib/pq"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/pkg/database"
	"github.com/quoteflow/quoteflow-backend/pkg/errors"
)

// Schema creates the parsed_reports table
const Schema = `
	CREATE TABLE IF NOT EXISTS parsed_reports (
		id UUID PRIMARY KEY,
		report_type TEXT NOT NULL CONSTRAINT report_type_valid CHECK (report_type IN ('dash', 'mvr')),
		file_name TEXT NOT NULL,
		license_number TEXT,
		record JSONB NOT NULL,
		warnings TEXT[] NOT NULL DEFAULT '{}',
		processing_ms INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

const licenseIndex = `
	CREATE INDEX IF NOT EXISTS parsed_reports_license_idx
		ON parsed_reports (license_number, created_at DESC)`

const selectColumns = `id, report_type, file_name, license_number, record, warnings, processing_ms, created_at`

// reportRow is the scan target for parsed_reports
type reportRow struct {
	domain.StoredReport
	RecordJSON  []byte         `db:"record"`
	WarningList pq.StringArray `db:"warnings"`
}

func (row *reportRow) toDomain() (*domain.StoredReport, error) {
	report := row.StoredReport
	report.Record = &domain.ReportRecord{}
	if err := json.Unmarshal(row.RecordJSON, report.Record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", report.ID, err)
	}
	report.Warnings = []string(row.WarningList)
	return &report, nil
}

// ReportRepository persists parsed report records
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Migrate creates the table and its indexes if they do not exist
func (r *ReportRepository) Migrate(ctx context.Context) error {
	return r.db.Migrate(ctx, Schema, licenseIndex)
}

// Create stores a parse result and returns the persisted row
func (r *ReportRepository) Create(ctx context.Context, result *domain.ParseResult) (*domain.StoredReport, error) {
	if result.Record == nil {
		return nil, errors.BadRequest("parse result has no record")
	}

	recordJSON, err := json.Marshal(result.Record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	warnings := result.Record.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	report := &domain.StoredReport{
		ID:           result.ReportID,
		ReportType:   result.ReportType,
		FileName:     result.FileName,
		Record:       result.Record,
		Warnings:     result.Record.Warnings,
		ProcessingMs: int(result.ProcessingTimeMs),
	}
	if n := result.Record.LicenseNumber; n != "" {
		report.LicenseNumber = &n
	}

	query := `
		INSERT INTO parsed_reports (id, report_type, file_name, license_number, record, warnings, processing_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		report.ID,
		string(report.ReportType),
		report.FileName,
		report.LicenseNumber,
		string(recordJSON),
		pq.Array(warnings),
		report.ProcessingMs,
	).Scan(&report.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, fmt.Errorf("insert parsed report: %w", err)
	}

	return report, nil
}

// GetByID returns a persisted report
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.StoredReport, error) {
	query := `SELECT ` + selectColumns + ` FROM parsed_reports WHERE id = $1`

	var row reportRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("report")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, fmt.Errorf("get parsed report: %w", err)
	}

	return row.toDomain()
}

// ListByLicenseNumber returns the newest reports for a licence number
func (r *ReportRepository) ListByLicenseNumber(ctx context.Context, licenseNumber string, limit int) ([]*domain.StoredReport, error) {
	query := `SELECT ` + selectColumns + `
		FROM parsed_reports
		WHERE license_number = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, query, licenseNumber, limit); err != nil {
		return nil, fmt.Errorf("list parsed reports: %w", err)
	}

	reports := make([]*domain.StoredReport, 0, len(rows))
	for i := range rows {
		report, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
