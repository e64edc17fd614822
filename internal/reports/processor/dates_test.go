package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quoteflow/quoteflow-backend/internal/reports/processor"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"03/02/2030", "03/02/2030"},
		{"3/2/2030", "03/02/2030"},
		{"03-02-2030", "03/02/2030"},
		{"03/02/30", "03/02/2030"},
		{"03/02/80", "03/02/1980"},
		{"16/11/2001", "11/16/2001"},
		{"16-11-2001", "11/16/2001"},
		{"2025-08-08", "08/08/2025"},
		{"2024/12/28", "12/28/2024"},
		{"2025-1-5", "01/05/2025"},
		{"31/31/2020", "31/31/2020"},
		{"not a date", "not a date"},
		{"", ""},
		{"0000-00-00", "0000-00-00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, processor.NormalizeDate(tt.in))
		})
	}
}

func TestNormalizeDate_Idempotent(t *testing.T) {
	inputs := []string{
		"1/2/2020", "12-25-1999", "25/12/1999", "1999-12-25", "2001/02/03", "07-04-76", "29/02/2024",
	}

	for _, in := range inputs {
		once := processor.NormalizeDate(in)
		assert.Equal(t, once, processor.NormalizeDate(once), "input %q", in)
	}
}

func TestNormalizeDate_AmbiguousPrefersMonthFirst(t *testing.T) {
	assert.Equal(t, "01/02/2020", processor.NormalizeDate("01/02/2020"))
	// day-first is only used once month-first fails calendar parsing
	assert.Equal(t, "02/13/2020", processor.NormalizeDate("13/02/2020"))
}
