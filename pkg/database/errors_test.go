package database_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/quoteflow-backend/pkg/database"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantStatus int
		wantCode   string
	}{
		{"not a pq error", errors.New("boom"), true, 0, ""},
		{"unique on pkey", &pq.Error{Code: "23505", Constraint: "parsed_reports_pkey"}, false, http.StatusConflict, "CONFLICT"},
		{"wrapped check", fmt.Errorf("insert: %w", &pq.Error{Code: "23514", Constraint: "parsed_reports_report_type_valid"}), false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not null", &pq.Error{Code: "23502", Column: "report_type"}, false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad uuid", &pq.Error{Code: "22P02"}, false, http.StatusBadRequest, "BAD_REQUEST"},
		{"unmapped code", &pq.Error{Code: "40001"}, true, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := database.MapPQError(tt.err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}
