package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"arheritage/internal/app"
	"arheritage/internal/apperr"
	"arheritage/internal/contributions"
	"arheritage/internal/logging"
	"arheritage/internal/scan"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 32 << 20

	msgInternal   = "Something went wrong. Please try again."
	msgBadRequest = "The request could not be read."
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scan.ErrCaptureIgnored),
		errors.Is(err, scan.ErrInvalidTransition),
		errors.Is(err, app.ErrInvalidNavigation),
		errors.Is(err, contributions.ErrInvalidStep):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrParse), errors.Is(err, apperr.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := logging.WithContext(r.Context(), s.logger)
	resp := ErrorResponse{Kind: apperr.Kind(err)}
	switch status {
	case http.StatusInternalServerError:
		resp.Error = msgInternal
		logging.ErrorWithContext(logger, "request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the daemon log for the underlying failure"),
		)
	case http.StatusConflict:
		resp.Error = err.Error()
		resp.Kind = "conflict"
	default:
		resp.Error = apperr.UserMessage(err, err.Error())
		logger.Debug("request rejected",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	writeJSON(w, s.logger, status, resp)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Wrap(apperr.ErrValidation, "decode request", msgBadRequest, err)
	}
	return nil
}

// readUpload returns the uploaded file from a multipart form field or a raw
// body. ok is false when the request carries no file.
func readUpload(w http.ResponseWriter, r *http.Request, field string) (name, mimeType string, data []byte, ok bool, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		file, header, ferr := r.FormFile(field)
		if ferr != nil {
			if errors.Is(ferr, http.ErrMissingFile) {
				return "", "", nil, false, nil
			}
			return "", "", nil, false, apperr.Wrap(apperr.ErrValidation, "read upload", msgBadRequest, ferr)
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			return "", "", nil, false, apperr.Wrap(apperr.ErrValidation, "read upload", msgBadRequest, err)
		}
		return header.Filename, header.Header.Get("Content-Type"), data, len(data) > 0, nil
	case contentType == "" || strings.HasPrefix(contentType, "application/json"):
		return "", "", nil, false, nil
	default:
		data, err = io.ReadAll(r.Body)
		if err != nil {
			return "", "", nil, false, apperr.Wrap(apperr.ErrValidation, "read upload", msgBadRequest, err)
		}
		name = r.Header.Get("X-File-Name")
		if name == "" {
			name = "upload"
		}
		return name, contentType, data, len(data) > 0, nil
	}
}
