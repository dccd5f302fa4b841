package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
)

type recordingHook struct {
	name             string
	balanceChanges   int
	debitsDeclined   int
	lastBalance      int64
	balanceChangeErr error
}

func (h *recordingHook) Name() string { return h.name }

func (h *recordingHook) OnBalanceChanged(_ context.Context, _ *credit.Transaction, newBalance int64) error {
	h.balanceChanges++
	h.lastBalance = newBalance
	return h.balanceChangeErr
}

func (h *recordingHook) OnDebitDeclined(_ context.Context, _ id.AccountID, _ int64, _ string) error {
	h.debitsDeclined++
	return nil
}

type nameOnlyHook struct{ name string }

func (h *nameOnlyHook) Name() string { return h.name }

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	h := &recordingHook{name: "recorder"}
	if err := r.Register(h); err != nil {
		t.Fatal(err)
	}

	if err := r.Register(&recordingHook{name: "recorder"}); err == nil {
		t.Error("Expected duplicate registration error")
	}

	if got := r.Count(); got != 1 {
		t.Errorf("Count: got %d, want 1", got)
	}
	if r.Get("recorder") != h {
		t.Error("Get returned wrong hook")
	}
	if r.Get("missing") != nil {
		t.Error("Get for unknown name should return nil")
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	h := &recordingHook{name: "recorder"}
	plain := &nameOnlyHook{name: "plain"}
	if err := r.Register(h); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(plain); err != nil {
		t.Fatal(err)
	}

	txn := &credit.Transaction{ID: id.NewTransactionID(), AccountID: id.NewAccountID(), Delta: 5}
	r.EmitBalanceChanged(ctx, txn, 5)
	r.EmitBalanceChanged(ctx, txn, 10)
	r.EmitDebitDeclined(ctx, txn.AccountID, 3, "ref")

	if h.balanceChanges != 2 {
		t.Errorf("balanceChanges: got %d, want 2", h.balanceChanges)
	}
	if h.lastBalance != 10 {
		t.Errorf("lastBalance: got %d, want 10", h.lastBalance)
	}
	if h.debitsDeclined != 1 {
		t.Errorf("debitsDeclined: got %d, want 1", h.debitsDeclined)
	}
}

func TestRegistryHookErrorDoesNotBlockOthers(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	failing := &recordingHook{name: "failing", balanceChangeErr: errors.New("sink down")}
	healthy := &recordingHook{name: "healthy"}
	if err := r.Register(failing); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(healthy); err != nil {
		t.Fatal(err)
	}

	txn := &credit.Transaction{ID: id.NewTransactionID(), AccountID: id.NewAccountID(), Delta: 1}
	r.EmitBalanceChanged(ctx, txn, 1)

	if healthy.balanceChanges != 1 {
		t.Errorf("healthy hook not called after failing hook: got %d calls", healthy.balanceChanges)
	}
}
