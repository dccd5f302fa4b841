// Package credit defines the prepaid ledger entities: accounts and the
// immutable transaction log that is the sole source of balance changes.
package credit

import (
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/types"
)

// Kind classifies a ledger transaction.
type Kind string

const (
	// KindPurchase credits an account from a confirmed provider payment.
	KindPurchase Kind = "purchase"
	// KindConsumption debits an account for a broadcast start.
	KindConsumption Kind = "consumption"
	// KindAdjustment is an operator-initiated grant or correction.
	KindAdjustment Kind = "adjustment"
)

// Valid reports whether k is a known transaction kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPurchase, KindConsumption, KindAdjustment:
		return true
	}
	return false
}

// Account holds a user's prepaid credit balance. Accounts are created
// implicitly on first grant or first balance query and are never deleted.
// The balance is never mutated directly — only through applied transactions.
type Account struct {
	types.Entity
	ID      id.AccountID `json:"id"`
	Balance int64        `json:"balance"`
}

// Transaction is an immutable record of a single balance change.
// Delta is signed: positive for credits, negative for debits.
//
// When Reference is non-empty, the pair (Kind, Reference) is unique across
// the ledger; a second transaction carrying the same pair is rejected by the
// store without side effects. This is what makes provider redelivery and
// broadcast-start replays safe.
type Transaction struct {
	types.Entity
	ID          id.TransactionID `json:"id"`
	AccountID   id.AccountID     `json:"account_id"`
	Delta       int64            `json:"delta"`
	Kind        Kind             `json:"kind"`
	Reference   string           `json:"reference,omitempty"`
	Description string           `json:"description,omitempty"`
}

// Amount returns the absolute credit amount moved by the transaction.
func (t *Transaction) Amount() int64 {
	if t.Delta < 0 {
		return -t.Delta
	}
	return t.Delta
}

// IsDebit reports whether the transaction removed credits.
func (t *Transaction) IsDebit() bool { return t.Delta < 0 }

// ListOpts filters transaction history queries.
type ListOpts struct {
	Kind   Kind
	Limit  int
	Offset int
}
