package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"backoffice.app/internal/apperr"
	"backoffice.app/internal/audit"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrorBody is the single wire shape for every error response.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	ErrorCode  string `json:"errorCode"`
	Message    string `json:"message"`
	Details    any    `json:"details"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	RequestID  string `json:"requestId,omitempty"`
}

// ErrorCounter is notified of every rendered error code.
type ErrorCounter interface {
	ErrorRendered(code string)
}

// Boundary turns any error into an ErrorBody response. It is the only place
// errors are serialized.
type Boundary struct {
	logger     *slog.Logger
	production bool
	counter    ErrorCounter
	now        func() time.Time
}

func NewBoundary(logger *slog.Logger, production bool, counter ErrorCounter) *Boundary {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Boundary{
		logger:     logger,
		production: production,
		counter:    counter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Resolve classifies err. Domain errors pass through untouched, transport
// errors keep their status, everything else becomes Internal.
func (b *Boundary) Resolve(err error) ErrorBody {
	var (
		ae *apperr.Error
		se *StatusError
		me *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ae):
		return ErrorBody{
			StatusCode: ae.Status(),
			Error:      ae.Name(),
			ErrorCode:  ae.Code(),
			Message:    ae.Message(),
			Details:    detailsOrEmpty(ae.Details()),
			Timestamp:  ae.Timestamp().UTC().Format(timestampLayout),
		}
	case errors.As(err, &se):
		return b.transport(se.Status, se.Message)
	case errors.As(err, &me):
		return b.transport(http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		body := ErrorBody{
			StatusCode: apperr.KindInternal.Status(),
			Error:      apperr.KindInternal.Name(),
			ErrorCode:  apperr.KindInternal.Code(),
			Message:    "Internal server error",
			Details:    map[string]any{},
			Timestamp:  b.now().Format(timestampLayout),
		}
		if !b.production && err != nil {
			details := map[string]any{"message": err.Error()}
			var pe *panicError
			if errors.As(err, &pe) {
				details["stack"] = string(pe.stack)
			}
			body.Details = details
		}
		return body
	}
}

func (b *Boundary) transport(status int, message string) ErrorBody {
	body := ErrorBody{
		StatusCode: status,
		Message:    message,
		Details:    map[string]any{},
		Timestamp:  b.now().Format(timestampLayout),
	}
	if kind, ok := apperr.KindForStatus(status); ok {
		body.Error = kind.Name()
		body.ErrorCode = kind.Code()
	} else {
		text := http.StatusText(status)
		body.Error = strings.ReplaceAll(text, " ", "") + "Error"
		body.ErrorCode = strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
	}
	if message == "" {
		body.Message = http.StatusText(status)
	}
	return body
}

// Render writes the error response and logs server-side failures.
func (b *Boundary) Render(w http.ResponseWriter, r *http.Request, err error) {
	body := b.Resolve(err)
	body.Path = r.URL.RequestURI()
	body.RequestID = audit.RequestIDFromContext(r.Context())

	if body.StatusCode >= http.StatusInternalServerError {
		attrs := []any{
			slog.Int("status", body.StatusCode),
			slog.String("error_code", body.ErrorCode),
			slog.String("method", r.Method),
			slog.String("path", body.Path),
			slog.String("request_id", body.RequestID),
			slog.Any("error", err),
		}
		var pe *panicError
		if errors.As(err, &pe) {
			attrs = append(attrs, slog.String("stack", string(pe.stack)))
		}
		b.logger.ErrorContext(r.Context(), "request failed", attrs...)
	}
	if b.counter != nil {
		b.counter.ErrorRendered(body.ErrorCode)
	}
	writeJSON(w, body.StatusCode, body)
}

func detailsOrEmpty(d any) any {
	if d == nil {
		return map[string]any{}
	}
	return d
}
