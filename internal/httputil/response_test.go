package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, "missing auth token", CodeUnauthorized, http.StatusUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing auth token", body.Error)
	assert.Equal(t, CodeUnauthorized, body.Code)
	assert.Nil(t, body.Details)
}

func TestRespondValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondValidationError(rec, "Validation failed", []FieldError{
		{Field: "collegeId", Message: "This field is required"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeValidationError, body.Code)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "collegeId", body.Details[0].Field)
}

func TestRespondJSONOmitsEmptyDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, "Internal server error", http.StatusInternalServerError)

	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
