package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/arena"
	"github.com/xraph/arena/httpapi"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	"github.com/xraph/arena/store/memory"
	"github.com/xraph/arena/types"
)

// headerAuth authenticates via an X-Account-ID header. Test-only.
func headerAuth(r *http.Request) (id.AccountID, error) {
	raw := r.Header.Get("X-Account-ID")
	if raw == "" {
		return id.AccountID{}, arena.ErrUnauthenticated
	}
	return id.ParseAccountID(raw)
}

type testServer struct {
	engine *arena.Engine
	mux    http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	engine := arena.New(memory.New(), arena.WithLogger(slog.New(slog.DiscardHandler)))
	mux := httpapi.NewServer(engine, headerAuth, slog.New(slog.DiscardHandler))
	return &testServer{engine: engine, mux: mux}
}

func (ts *testServer) do(t *testing.T, method, path string, actor id.AccountID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if !actor.IsNil() {
		req.Header.Set("X-Account-ID", actor.String())
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/balance"},
		{http.MethodGet, "/transactions"},
		{http.MethodPost, "/tournaments"},
		{http.MethodGet, "/tournaments"},
	} {
		rec := ts.do(t, route.method, route.path, id.AccountID{}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}

	// Health needs no auth.
	rec := ts.do(t, http.MethodGet, "/health", id.AccountID{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBalanceEndpoint(t *testing.T) {
	ts := newTestServer(t)
	acct := id.NewAccountID()

	rec := ts.do(t, http.MethodGet, "/balance", acct, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Balance int64 `json:"balance"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, int64(0), body.Balance)

	_, err := ts.engine.Credit(context.Background(), acct, 7, "", "")
	require.NoError(t, err)

	rec = ts.do(t, http.MethodGet, "/balance", acct, nil)
	decodeBody(t, rec, &body)
	require.Equal(t, int64(7), body.Balance)
}

func TestTournamentEndpoints(t *testing.T) {
	ts := newTestServer(t)
	owner := id.NewAccountID()

	rec := ts.do(t, http.MethodPost, "/tournaments", owner, map[string]string{
		"title": "Friday Finals",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, rec, &created)
	require.Equal(t, "idle", created.Status)

	// Empty title is a validation failure.
	rec = ts.do(t, http.MethodPost, "/tournaments", owner, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/tournaments", bytes.NewBufferString("{not json"))
	req.Header.Set("X-Account-ID", owner.String())
	raw := httptest.NewRecorder()
	ts.mux.ServeHTTP(raw, req)
	require.Equal(t, http.StatusBadRequest, raw.Code)

	rec = ts.do(t, http.MethodGet, "/tournaments/"+created.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Garbage and unknown ids both map to 404.
	rec = ts.do(t, http.MethodGet, "/tournaments/not-an-id", owner, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodGet, "/tournaments/"+id.NewTournamentID().String(), owner, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBroadcastEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	owner := id.NewAccountID()
	stranger := id.NewAccountID()

	_, err := ts.engine.Credit(ctx, owner, 5, "", "")
	require.NoError(t, err)
	tour, err := ts.engine.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)
	base := "/tournaments/" + tour.ID.String()

	// Strangers may not start.
	rec := ts.do(t, http.MethodPost, base+"/broadcast", stranger, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/broadcast", owner, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var started struct {
		SessionID        string `json:"session_id"`
		StreamKey        string `json:"stream_key"`
		CreditsRemaining int64  `json:"credits_remaining"`
	}
	decodeBody(t, rec, &started)
	require.NotEmpty(t, started.SessionID)
	require.NotEmpty(t, started.StreamKey)
	require.Equal(t, int64(4), started.CreditsRemaining)

	// Double start reports the tournament as live.
	rec = ts.do(t, http.MethodPost, base+"/broadcast", owner, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, base+"/broadcast", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/sessions/"+started.SessionID+"/heartbeat", owner, map[string]int{
		"viewer_count": 12,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, base+"/broadcast", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// No active session once ended.
	rec = ts.do(t, http.MethodGet, base+"/broadcast", owner, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsufficientCreditsMapping(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	owner := id.NewAccountID()

	tour, err := ts.engine.CreateTournament(ctx, owner, "Broke Bracket", "")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/tournaments/"+tour.ID.String()+"/broadcast", owner, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollaboratorEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	owner := id.NewAccountID()
	invitee := id.NewAccountID()

	tour, err := ts.engine.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)
	base := "/tournaments/" + tour.ID.String() + "/collaborators"

	rec := ts.do(t, http.MethodPost, base, owner, map[string]string{
		"account_id": invitee.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Non-owners may not invite.
	rec = ts.do(t, http.MethodPost, base, invitee, map[string]string{
		"account_id": id.NewAccountID().String(),
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/accept", invitee, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, base, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Collaborators []json.RawMessage `json:"collaborators"`
	}
	decodeBody(t, rec, &listed)
	require.Len(t, listed.Collaborators, 1)

	rec = ts.do(t, http.MethodDelete, base+"/"+invitee.String(), owner, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, base, invitee, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPacksEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	starter := &pack.Pack{Slug: "starter", Name: "Starter", Credits: 10, Price: types.USD(499)}
	require.NoError(t, ts.engine.CreatePack(ctx, starter))
	archived := &pack.Pack{Slug: "legacy", Name: "Legacy", Credits: 5, Price: types.USD(299)}
	require.NoError(t, ts.engine.CreatePack(ctx, archived))
	require.NoError(t, ts.engine.ArchivePack(ctx, archived.ID))

	// Unauthenticated catalog browsing, active packs only by default.
	rec := ts.do(t, http.MethodGet, "/packs", id.AccountID{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Packs []struct {
			Slug string `json:"slug"`
		} `json:"packs"`
	}
	decodeBody(t, rec, &listed)
	require.Len(t, listed.Packs, 1)
	require.Equal(t, "starter", listed.Packs[0].Slug)
}

func TestPaymentWebhook(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	acct := id.NewAccountID()

	require.NoError(t, ts.engine.CreatePack(ctx, &pack.Pack{
		Slug: "starter", Name: "Starter", Credits: 10, Price: types.USD(499),
	}))

	payload := func(eventID string) string {
		return fmt.Sprintf(`{
			"type": "purchase.completed",
			"id": %q,
			"data": {"account_id": %q, "pack_slug": "starter", "provider": "stripe"}
		}`, eventID, acct.String())
	}

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		ts.mux.ServeHTTP(rec, req)
		return rec
	}

	rec := post(payload("evt_1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var ack struct {
		Received bool `json:"received"`
	}
	decodeBody(t, rec, &ack)
	require.True(t, ack.Received)

	// Redelivery still acknowledges with 200.
	rec = post(payload("evt_1"))
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &ack)
	require.True(t, ack.Received)

	balance, err := ts.engine.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)

	// Ignored event types acknowledge without touching the ledger.
	rec = post(`{"type": "invoice.created", "id": "evt_2", "data": {}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Malformed payloads and permanently invalid events get 400.
	rec = post(`{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(fmt.Sprintf(`{
		"type": "purchase.completed",
		"id": "evt_3",
		"data": {"account_id": %q, "pack_slug": "no-such-pack", "provider": "stripe"}
	}`, acct.String()))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	balance, err = ts.engine.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)
}
