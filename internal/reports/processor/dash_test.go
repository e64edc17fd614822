package processor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/internal/reports/processor"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
	"github.com/quoteflow/quoteflow-backend/pkg/testutil"
)

func TestDashProcessor_Process(t *testing.T) {
	p := processor.NewDashProcessor(logger.Nop())

	rec, err := p.Process(context.Background(), testutil.DashReportText, domain.ReportTypeDASH)
	require.NoError(t, err)

	assert.Equal(t, domain.ReportTypeDASH, rec.ReportType)
	assert.Equal(t, "S1234-56789-01234", rec.LicenseNumber)
	assert.Equal(t, "01/05/2025", rec.ReportDate)
	assert.Equal(t, "01/05/2025", rec.IssueDate)
	assert.Equal(t, "201-1480 Eglinton Ave W ,Toronto,ON M6C2G5", rec.Address)
	assert.Equal(t, "jane.smith@example.com", rec.Email)
	assert.Equal(t, "(416) 555-0199", rec.Phone)
	require.NotNil(t, rec.YearsContinuousInsurance)
	assert.Equal(t, 9, *rec.YearsContinuousInsurance)

	// identity fields only come from an MVR
	assert.Empty(t, rec.Name)
	assert.Empty(t, rec.DOB)

	assert.Equal(t, "08/08/2024", rec.FirstInsuranceDate)
	assert.Equal(t, "08/01/2026", rec.RenewalDate, "Policy #1 expiry wins over the listing")
	assert.Equal(t, "08/08/2025", rec.PolicyEndDate)
	assert.Equal(t, "08/08/2016", rec.PolicyStartDate)
	require.Len(t, rec.AllPolicies, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{rec.AllPolicies[0].Number, rec.AllPolicies[1].Number, rec.AllPolicies[2].Number})

	require.Len(t, rec.Policy1Vehicles, 2)
	assert.Equal(t, "2HGFC2F59KH123456", rec.VIN)
	assert.Equal(t, "2019 HONDA - CIVIC LX", rec.VehicleYearMakeModel)
	assert.Equal(t, "1", rec.ExtractedFromPolicy)

	require.Len(t, rec.Claims, 3)
	assert.Equal(t, 3, rec.ClaimsCount.Int())
	assert.Equal(t, []string{"claim #3: no financial detail found"}, rec.Warnings)

	assert.Nil(t, rec.ConvictionsCount)
	assert.Empty(t, rec.Convictions)
}

func TestDashProcessor_WithoutPolicy1(t *testing.T) {
	p := processor.NewDashProcessor(nil)
	text := "DASH Driver Report\nDLN: A1234-00000-00000\n" + outOfOrderListing

	rec, err := p.Process(context.Background(), text, domain.ReportTypeDASH)
	require.NoError(t, err)

	assert.Equal(t, []domain.Vehicle{}, rec.Policy1Vehicles)
	assert.Equal(t, domain.NoVehicle, rec.VIN)
	assert.Equal(t, domain.NoVehicle, rec.VehicleYearMakeModel)
	assert.Empty(t, rec.AllPolicies)
	assert.Empty(t, rec.RenewalDate)
	assert.Empty(t, rec.FirstInsuranceDate)
	assert.Empty(t, rec.PolicyStartDate)
	assert.Empty(t, rec.PolicyEndDate)
	assert.Equal(t, 0, rec.ClaimsCount.Int())
}

func TestDashProcessor_Idempotent(t *testing.T) {
	p := processor.NewDashProcessor(nil)
	ctx := context.Background()

	first, err := p.Process(ctx, testutil.DashReportText, domain.ReportTypeDASH)
	require.NoError(t, err)
	second, err := p.Process(ctx, testutil.DashReportText, domain.ReportTypeDASH)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDashProcessor_LicenseStatusLabel(t *testing.T) {
	p := processor.NewDashProcessor(nil)
	text := "License Status: Active\nLicense Number: B4455-12345-67890\nClass: G\nDemerit Points: 3\n"

	rec, err := p.Process(context.Background(), text, domain.ReportTypeDASH)
	require.NoError(t, err)

	assert.Equal(t, "B4455-12345-67890", rec.LicenseNumber)
	assert.Equal(t, domain.LicenseValid, rec.LicenseStatus)
	assert.Equal(t, "G", rec.LicenseClass)
	assert.Equal(t, testutil.PtrInt(3), rec.DemeritPoints)
}

func TestDashProcessor_NumericClass(t *testing.T) {
	p := processor.NewDashProcessor(nil)

	tests := []struct {
		text     string
		expected string
	}{
		{text: "License Number: B4455-12345-67890\nClass: 5\n", expected: "5"},
		{text: "License Number: B4455-12345-67890\nLicense Class 1\n", expected: "1"},
		{text: "Class: AZ\n", expected: "AZ"},
	}

	for _, tt := range tests {
		rec, err := p.Process(context.Background(), tt.text, domain.ReportTypeDASH)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, rec.LicenseClass, tt.text)
	}
}

func TestDashProcessor_Errors(t *testing.T) {
	p := processor.NewDashProcessor(nil)

	_, err := p.Process(context.Background(), "   \n", domain.ReportTypeDASH)
	assert.ErrorIs(t, err, processor.ErrEmptyText)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Process(ctx, testutil.DashReportText, domain.ReportTypeDASH)
	assert.ErrorIs(t, err, context.Canceled)
}
