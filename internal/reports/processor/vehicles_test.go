package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/internal/reports/processor"
	"github.com/quoteflow/quoteflow-backend/pkg/testutil"
)

func TestExtractVehicles_Policy1(t *testing.T) {
	segment, ok := processor.Policy1Segment.Find(testutil.DashReportText)
	require.True(t, ok)

	vehicles := processor.ExtractVehicles(segment)

	assert.Equal(t, []domain.Vehicle{
		{VehicleNumber: "1", VIN: "2HGFC2F59KH123456", YearMakeModel: "2019 HONDA - CIVIC LX"},
		{VehicleNumber: "2", VIN: "JTMBFREV5MD012345", YearMakeModel: "2021 TOYOTA - RAV4"},
	}, vehicles)
}

func TestExtractVehicles_SkipsRoleLabels(t *testing.T) {
	segment := "Policy #1\n" +
		"Vehicle #1: Principal Operator SMITH, JANE 1HGBH41JXMN109186\n" +
		"Vehicle #2: Named Insured DOE, JOHN JTMBFREV5MD012345\n"

	assert.Empty(t, processor.ExtractVehicles(segment))
}

func TestExtractVehicles_Layouts(t *testing.T) {
	tests := []struct {
		name     string
		segment  string
		expected []domain.Vehicle
	}{
		{
			name:    "vin on same line",
			segment: "Vehicle #1: 2019 HONDA - CIVIC LX - 2HGFC2F59KH123456\n",
			expected: []domain.Vehicle{
				{VehicleNumber: "1", VIN: "2HGFC2F59KH123456", YearMakeModel: "2019 HONDA - CIVIC LX"},
			},
		},
		{
			name:    "vin on next line",
			segment: "Vehicle #1: 2021 TOYOTA - RAV4\n  JTMBFREV5MD012345\n",
			expected: []domain.Vehicle{
				{VehicleNumber: "1", VIN: "JTMBFREV5MD012345", YearMakeModel: "2021 TOYOTA - RAV4"},
			},
		},
		{
			name:    "vin embedded in a longer line",
			segment: "Vehicle #1: 2018 MAZDA CX-5 JM3KFBDM5J0123456 Listed\n",
			expected: []domain.Vehicle{
				{VehicleNumber: "1", VIN: "JM3KFBDM5J0123456", YearMakeModel: "2018 MAZDA CX-5"},
			},
		},
		{
			name:    "vin glued to the model",
			segment: "Vehicle #1: 2019 TOYOTA COROLLA2T1BURHE0JC123456\n",
			expected: []domain.Vehicle{
				{VehicleNumber: "1", VIN: "2T1BURHE0JC123456", YearMakeModel: "2019 TOYOTA COROLLA"},
			},
		},
		{
			name:     "block without a vin",
			segment:  "Vehicle #3: 2010 KIA - RIO\n",
			expected: nil,
		},
		{
			name:     "description too short",
			segment:  "Vehicle #1: X 2HGFC2F59KH123456\n",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, processor.ExtractVehicles(tt.segment))
		})
	}
}
