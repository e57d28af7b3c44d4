package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

var statusCodes = map[ErrorCategory]int{
	CategoryValidation: http.StatusBadRequest,
	CategoryConfig:     http.StatusBadRequest,
	CategoryNotFound:   http.StatusNotFound,
	CategoryTransform:  http.StatusUnprocessableEntity,
	CategoryListener:   http.StatusServiceUnavailable,
	CategoryWatch:      http.StatusServiceUnavailable,
}

// HTTPErrorAdapter writes classified errors as JSON responses.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON error body.
type HTTPErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	File    string `json:"file,omitempty"`
	Details Fields `json:"details,omitempty"`
}

// StatusCodeFor maps err's category to a status; anything else is a 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if ce, ok := AsClassified(err); ok {
		if code, ok := statusCodes[ce.category]; ok {
			return code
		}
	}
	return http.StatusInternalServerError
}

func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	ce, ok := AsClassified(err)
	if !ok {
		if err == nil {
			return HTTPErrorResponse{}
		}
		return HTTPErrorResponse{Error: err.Error()}
	}
	resp := HTTPErrorResponse{Error: ce.Error(), Code: string(ce.category), File: ce.file}
	if len(ce.fields) > 0 {
		resp.Details = ce.Fields()
	}
	return resp
}

// WriteErrorResponse writes err as JSON with its mapped status and logs it.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := a.StatusCodeFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(a.FormatErrorResponse(err)); err != nil {
		a.logger.Debug("Error response write failed", slog.String("error", err.Error()))
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	attrs := []slog.Attr{slog.Int("status", status), slog.String("path", r.URL.Path)}
	if ce, ok := AsClassified(err); ok {
		attrs = append(attrs, ce.LogAttrs()...)
	}
	a.logger.LogAttrs(r.Context(), level, "Request failed", attrs...)
}
