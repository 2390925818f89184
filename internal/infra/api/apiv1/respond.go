package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"

	"workforce-billing/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps domain errors to HTTP status codes and client-safe messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrAlreadyActivated):
		return http.StatusBadRequest, domain.ErrAlreadyActivated.Error()
	case errors.Is(err, domain.ErrSignatureMismatch):
		return http.StatusBadRequest, "Payment verification failed"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "Already exists"
	case errors.Is(err, domain.ErrPaymentConflict):
		return http.StatusConflict, domain.ErrPaymentConflict.Error()
	case errors.Is(err, domain.ErrSweepInProgress):
		return http.StatusConflict, domain.ErrSweepInProgress.Error()
	case errors.Is(err, domain.ErrGateway):
		return http.StatusBadGateway, "Payment gateway unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	s.logFailure(r, status, err)
	writeError(w, status, msg)
}

func (s *Server) logFailure(r *http.Request, status int, err error) {
	l := s.logger(r)
	ev := l.Warn()
	if status >= http.StatusInternalServerError {
		ev = l.Error()
	}
	ev.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return domain.ErrInvalidArgument
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}
