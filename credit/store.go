package credit

import (
	"context"

	"github.com/xraph/arena/id"
)

// Store is the ledger fragment of the unified store interface.
//
// Apply is the only write path into the ledger. It must execute as a single
// atomic unit: verify the balance precondition, insert the transaction row,
// and update the account balance — all or nothing.
type Store interface {
	Apply(ctx context.Context, txn *Transaction) (newBalance int64, err error)
	GetAccount(ctx context.Context, accountID id.AccountID) (*Account, error)
	GetBalance(ctx context.Context, accountID id.AccountID) (int64, error)
	ListTransactions(ctx context.Context, accountID id.AccountID, opts ListOpts) ([]*Transaction, error)
}
