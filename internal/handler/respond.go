package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orgdesk/internal/account"
	"orgdesk/internal/auth"
)

const maxBodyBytes = 1 << 20

var errMissingID = errors.New("missing ID")

// validationResponse is the 422 body: {"errors":[{"field":...,"message":...}]}.
type validationResponse struct {
	Errors []account.FieldError `json:"errors"`
}

// decodeJSON reads a JSON request body into v. An empty body leaves v at
// its zero value so field validation can report what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// parseID extracts a UUID path value.
func parseID(r *http.Request, name string) (uuid.UUID, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return uuid.Nil, errMissingID
	}
	return uuid.Parse(idStr)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	auth.WriteJSONError(w, http.StatusBadRequest, "Bad request", message)
}

// writeError maps account workflow errors to HTTP responses. Anything
// unrecognised is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		verr *account.ValidationError
		nf   *account.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		auth.WriteJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: verr.Fields})
	case errors.Is(err, account.ErrAuthentication):
		auth.WriteJSONError(w, http.StatusUnauthorized, "Bad request", "Authentication failed")
	case errors.Is(err, account.ErrTooManyAttempts):
		w.Header().Set("Retry-After", "900")
		auth.WriteJSONError(w, http.StatusTooManyRequests, "Too many requests", "Too many failed login attempts")
	case errors.As(err, &nf):
		auth.WriteJSONError(w, http.StatusNotFound, "Not found", capitalize(nf.Error()))
	case errors.Is(err, account.ErrForbidden):
		auth.WriteForbidden(w, "You are not a member of this organisation")
	default:
		logger.Error("request failed", zap.Error(err))
		auth.WriteInternalError(w)
	}
}

// outcome labels an error for the auth events metric.
func outcome(err error) string {
	var (
		verr *account.ValidationError
		nf   *account.NotFoundError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, account.ErrAuthentication):
		return "unauthenticated"
	case errors.Is(err, account.ErrTooManyAttempts):
		return "locked"
	case errors.As(err, &nf):
		return "not_found"
	case errors.Is(err, account.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
