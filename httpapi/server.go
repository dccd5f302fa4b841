// Package httpapi exposes the engine over HTTP. The handlers own nothing but
// decoding, auth resolution, and status mapping; all semantics live in the
// engine.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/arena"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	"github.com/xraph/arena/payment"
	"github.com/xraph/arena/tournament"
)

// AuthFunc resolves the authenticated account from a request. Implementations
// typically read a session cookie or bearer token. Returning
// arena.ErrUnauthenticated produces a 401.
type AuthFunc func(r *http.Request) (id.AccountID, error)

// Server wires HTTP handlers around an Engine.
type Server struct {
	engine *arena.Engine
	auth   AuthFunc
	logger *slog.Logger
}

// NewServer creates the router. The webhook route is unauthenticated by
// design: payloads reaching it have been verified upstream against the
// provider secret.
func NewServer(engine *arena.Engine, auth AuthFunc, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{engine: engine, auth: auth, logger: logger}

	r := chi.NewRouter()

	r.Get("/health", srv.handleHealth)
	r.Get("/balance", srv.handleBalance)
	r.Get("/transactions", srv.handleTransactions)

	r.Route("/tournaments", func(r chi.Router) {
		r.Post("/", srv.handleCreateTournament)
		r.Get("/", srv.handleListTournaments)
		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", srv.handleGetTournament)
			r.Delete("/", srv.handleDeleteTournament)
			r.Post("/broadcast", srv.handleStartBroadcast)
			r.Delete("/broadcast", srv.handleEndBroadcast)
			r.Get("/broadcast", srv.handleActiveSession)
			r.Get("/capabilities", srv.handleCapabilities)
			r.Route("/collaborators", func(r chi.Router) {
				r.Get("/", srv.handleListCollaborators)
				r.Post("/", srv.handleInviteCollaborator)
				r.Post("/accept", srv.handleAcceptInvite)
				r.Delete("/{accountID}", srv.handleRevokeCollaborator)
			})
		})
	})

	r.Post("/sessions/{sessionID}/heartbeat", srv.handleHeartbeat)
	r.Get("/packs", srv.handleListPacks)
	r.Post("/webhooks/payment", srv.handlePaymentWebhook)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ──────────────────────────────────────────────────
// Ledger handlers
// ──────────────────────────────────────────────────

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	balance, err := s.engine.Balance(r.Context(), accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	opts := credit.ListOpts{
		Kind:   credit.Kind(r.URL.Query().Get("kind")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	txns, err := s.engine.Transactions(r.Context(), accountID, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

// ──────────────────────────────────────────────────
// Tournament handlers
// ──────────────────────────────────────────────────

func (s *Server) handleCreateTournament(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := s.engine.CreateTournament(r.Context(), accountID, req.Title, req.Description)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTournaments(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	opts := tournament.ListOpts{
		Status: tournament.Status(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	list, err := s.engine.ListTournaments(r.Context(), accountID, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tournaments": list})
}

func (s *Server) handleGetTournament(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}

	t, err := s.engine.GetTournament(r.Context(), tournamentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTournament(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}

	if err := s.engine.DeleteTournament(r.Context(), accountID, tournamentID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}

	caps, err := s.engine.Capabilities(r.Context(), tournamentID, accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, caps)
}

// ──────────────────────────────────────────────────
// Broadcast handlers
// ──────────────────────────────────────────────────

func (s *Server) handleStartBroadcast(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}

	res, err := s.engine.StartBroadcast(r.Context(), accountID, tournamentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":        res.Session.ID,
		"stream_key":        res.Session.StreamKey,
		"credits_remaining": res.CreditsRemaining,
	})
}

func (s *Server) handleEndBroadcast(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}

	sess, err := s.engine.EndBroadcast(r.Context(), accountID, tournamentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}

	sess, err := s.engine.ActiveSession(r.Context(), tournamentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, arena.ErrSessionNotFound)
		return
	}

	var req struct {
		ViewerCount int `json:"viewer_count"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.engine.Heartbeat(r.Context(), sessionID, req.ViewerCount); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ──────────────────────────────────────────────────
// Collaboration handlers
// ──────────────────────────────────────────────────

func (s *Server) handleInviteCollaborator(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}

	var req struct {
		AccountID string `json:"account_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	invitee, err := id.ParseAccountID(req.AccountID)
	if err != nil {
		s.writeError(w, arena.ErrInvalidInput)
		return
	}

	c, err := s.engine.InviteCollaborator(r.Context(), accountID, tournamentID, invitee)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}

	c, err := s.engine.AcceptInvite(r.Context(), accountID, tournamentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRevokeCollaborator(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}
	target, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		s.writeError(w, arena.ErrCollaborationNotFound)
		return
	}

	if err := s.engine.RevokeCollaborator(r.Context(), accountID, tournamentID, target); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCollaborators(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	tournamentID, ok := s.tournamentID(w, r)
	if !ok {
		return
	}

	list, err := s.engine.ListCollaborators(r.Context(), accountID, tournamentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collaborators": list})
}

// ──────────────────────────────────────────────────
// Pack and webhook handlers
// ──────────────────────────────────────────────────

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	status := pack.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = pack.StatusActive
	}
	list, err := s.engine.ListPacks(r.Context(), pack.ListOpts{
		Status: status,
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packs": list})
}

// handlePaymentWebhook acknowledges with 200 for applied purchases,
// duplicates, and event types the ledger ignores. Permanently invalid
// events get 400 so the provider stops retrying; retryable failures get
// 500 so it redelivers.
func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, arena.ErrInvalidInput)
		return
	}

	evt, err := payment.ParseConfirmedPurchase(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if evt == nil {
		// Not a purchase event; acknowledge and drop.
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := s.engine.HandleConfirmedPurchase(r.Context(), evt); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
