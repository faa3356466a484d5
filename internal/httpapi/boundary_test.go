package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice.app/internal/apperr"
	"backoffice.app/internal/audit"
	"backoffice.app/internal/validate"
)

type countingErrors map[string]int

func (c countingErrors) ErrorRendered(code string) { c[code]++ }

func TestResolveDomainErrorVerbatim(t *testing.T) {
	b := NewBoundary(nil, true, nil)
	details := []validate.FieldError{{Field: "email", Errors: []string{"email must be an email"}}}
	err := fmt.Errorf("handler: %w", apperr.Validation("Validation failed", details))

	body := b.Resolve(err)
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
	assert.Equal(t, "ValidationError", body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.ErrorCode)
	assert.Equal(t, "Validation failed", body.Message)
	assert.Equal(t, details, body.Details)
	_, perr := time.Parse(time.RFC3339, body.Timestamp)
	assert.NoError(t, perr)
}

func TestResolveEmptyDetailsIsObject(t *testing.T) {
	body := NewBoundary(nil, true, nil).Resolve(apperr.NotFound(""))
	assert.Equal(t, "Resource not found", body.Message)
	assert.Equal(t, map[string]any{}, body.Details)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"details":{}`)
}

func TestResolveTransportErrors(t *testing.T) {
	b := NewBoundary(nil, true, nil)

	body := b.Resolve(&StatusError{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"})
	assert.Equal(t, 405, body.StatusCode)
	assert.Equal(t, "METHOD_NOT_ALLOWED", body.ErrorCode)
	assert.Equal(t, "MethodNotAllowedError", body.Error)

	body = b.Resolve(&StatusError{Status: http.StatusNotFound, Message: "Cannot GET /x"})
	assert.Equal(t, "RESOURCE_NOT_FOUND", body.ErrorCode)
	assert.Equal(t, "Cannot GET /x", body.Message)

	body = b.Resolve(fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 10}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, body.StatusCode)
	assert.Equal(t, "REQUEST_ENTITY_TOO_LARGE", body.ErrorCode)
}

func TestResolveUnknownErrorHidesDiagnosticsInProduction(t *testing.T) {
	cause := errors.New("pq: connection refused")

	prod := NewBoundary(nil, true, nil).Resolve(cause)
	assert.Equal(t, 500, prod.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", prod.ErrorCode)
	assert.Equal(t, "Internal server error", prod.Message)
	assert.Equal(t, map[string]any{}, prod.Details)

	dev := NewBoundary(nil, false, nil).Resolve(cause)
	assert.Equal(t, map[string]any{"message": "pq: connection refused"}, dev.Details)
}

func TestRenderAddsPathRequestIDAndCounts(t *testing.T) {
	counter := countingErrors{}
	b := NewBoundary(nil, true, counter)

	req := httptest.NewRequest(http.MethodGet, "/admin/42?x=1", nil)
	req = req.WithContext(audit.WithRequestID(req.Context(), "rid-1"))
	rr := httptest.NewRecorder()
	b.Render(rr, req, apperr.Conflict("username already in use"))

	require.Equal(t, http.StatusConflict, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json"))
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "/admin/42?x=1", body.Path)
	assert.Equal(t, "rid-1", body.RequestID)
	assert.Equal(t, 1, counter["CONFLICT"])
}

func TestRenderEveryKindHasDistinctCode(t *testing.T) {
	b := NewBoundary(nil, true, nil)
	seen := map[string]bool{}
	for _, kind := range []apperr.Kind{
		apperr.KindNotFound, apperr.KindValidation, apperr.KindUnauthorized, apperr.KindForbidden,
		apperr.KindConflict, apperr.KindRateLimit, apperr.KindServiceUnavailable, apperr.KindInternal,
	} {
		body := b.Resolve(apperr.New(kind, ""))
		assert.Equal(t, kind.Status(), body.StatusCode)
		assert.False(t, seen[body.ErrorCode], "duplicate code %s", body.ErrorCode)
		seen[body.ErrorCode] = true
	}
}
