package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/arena"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/payment"
)

// authenticate resolves the caller and writes a 401 when it cannot.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (id.AccountID, bool) {
	if s.auth == nil {
		s.writeError(w, arena.ErrUnauthenticated)
		return id.AccountID{}, false
	}
	accountID, err := s.auth(r)
	if err != nil || accountID.IsNil() {
		s.writeError(w, arena.ErrUnauthenticated)
		return id.AccountID{}, false
	}
	return accountID, true
}

func (s *Server) tournamentID(w http.ResponseWriter, r *http.Request) (id.TournamentID, bool) {
	tournamentID, err := id.ParseTournamentID(chi.URLParam(r, "tournamentID"))
	if err != nil {
		s.writeError(w, arena.ErrTournamentNotFound)
		return id.TournamentID{}, false
	}
	return tournamentID, true
}

// writeError maps engine errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve arena.ValidationError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, arena.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, arena.ErrForbidden):
		status = http.StatusForbidden
	case arena.IsNotFound(err):
		status = http.StatusNotFound
	case arena.IsInvalidState(err),
		errors.Is(err, arena.ErrInsufficientCredits),
		errors.Is(err, arena.ErrInvalidInput),
		errors.Is(err, arena.ErrInvalidAmount),
		errors.Is(err, arena.ErrInvalidEvent),
		errors.Is(err, payment.ErrMalformedEvent),
		errors.As(err, &ve):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}

// decodeJSON decodes the body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
