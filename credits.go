package arena

import (
	"context"
	"errors"

	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/types"
)

// ──────────────────────────────────────────────────
// Credit Ledger
// ──────────────────────────────────────────────────

// Credit grants credits to an account. Reference, when non-empty, makes the
// grant idempotent: a second grant with the same reference is rejected with
// ErrDuplicateReference and no balance change.
func (e *Engine) Credit(ctx context.Context, accountID id.AccountID, amount int64, reference, description string) (*credit.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return e.apply(ctx, accountID, amount, credit.KindPurchase, reference, description)
}

// Debit consumes credits from an account. It fails with
// ErrInsufficientCredits when the balance cannot cover the amount, leaving
// the ledger untouched.
func (e *Engine) Debit(ctx context.Context, accountID id.AccountID, amount int64, reference, description string) (*credit.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return e.apply(ctx, accountID, -amount, credit.KindConsumption, reference, description)
}

// Adjust applies an operator-initiated grant. Adjustments only add credits;
// corrections that remove them go through Debit so the insufficiency check
// still holds.
func (e *Engine) Adjust(ctx context.Context, accountID id.AccountID, amount int64, reference, description string) (*credit.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return e.apply(ctx, accountID, amount, credit.KindAdjustment, reference, description)
}

// apply builds the transaction and hands it to the store, which owns the
// atomicity of precondition check, insert, and balance update.
func (e *Engine) apply(ctx context.Context, accountID id.AccountID, delta int64, kind credit.Kind, reference, description string) (*credit.Transaction, error) {
	if accountID.IsNil() {
		return nil, ErrAccountNotFound
	}
	if delta == 0 {
		return nil, ErrInvalidAmount
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	txn := &credit.Transaction{
		Entity:      types.NewEntity(),
		ID:          id.NewTransactionID(),
		AccountID:   accountID,
		Delta:       delta,
		Kind:        kind,
		Reference:   reference,
		Description: description,
	}

	newBalance, err := e.store.ApplyTransaction(ctx, txn)
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			e.hooks.EmitDebitDeclined(ctx, accountID, txn.Amount(), reference)
		}
		return nil, err
	}

	e.logger.Debug("transaction applied",
		"transaction_id", txn.ID,
		"account_id", accountID,
		"delta", delta,
		"kind", kind,
		"new_balance", newBalance,
	)
	e.hooks.EmitBalanceChanged(ctx, txn, newBalance)

	return txn, nil
}

// Balance returns the account's current credit balance. Unknown accounts
// report a balance of zero rather than an error.
func (e *Engine) Balance(ctx context.Context, accountID id.AccountID) (int64, error) {
	if accountID.IsNil() {
		return 0, ErrAccountNotFound
	}
	balance, err := e.store.GetBalance(ctx, accountID)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

// Transactions returns the account's transaction history, newest first.
func (e *Engine) Transactions(ctx context.Context, accountID id.AccountID, opts credit.ListOpts) ([]*credit.Transaction, error) {
	if accountID.IsNil() {
		return nil, ErrAccountNotFound
	}
	return e.store.ListTransactions(ctx, accountID, opts)
}
