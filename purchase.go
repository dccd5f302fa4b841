package arena

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	"github.com/xraph/arena/payment"
	"github.com/xraph/arena/types"
)

// ──────────────────────────────────────────────────
// Pack Catalog
// ──────────────────────────────────────────────────

// CreatePack adds a credit pack to the catalog.
func (e *Engine) CreatePack(ctx context.Context, p *pack.Pack) error {
	if p.Slug == "" {
		return ValidationError{Field: "slug", Message: "must not be empty"}
	}
	if p.Credits <= 0 {
		return ValidationError{Field: "credits", Message: "must be positive"}
	}
	if p.ID == (id.PackID{}) {
		p.ID = id.NewPackID()
	}
	p.Entity = types.NewEntity()
	if p.Status == "" {
		p.Status = pack.StatusActive
	}
	return e.store.CreatePack(ctx, p)
}

// GetPack retrieves a pack by ID.
func (e *Engine) GetPack(ctx context.Context, packID id.PackID) (*pack.Pack, error) {
	return e.store.GetPack(ctx, packID)
}

// GetPackBySlug retrieves a pack by slug.
func (e *Engine) GetPackBySlug(ctx context.Context, slug string) (*pack.Pack, error) {
	return e.store.GetPackBySlug(ctx, slug)
}

// ListPacks lists packs in the catalog.
func (e *Engine) ListPacks(ctx context.Context, opts pack.ListOpts) ([]*pack.Pack, error) {
	return e.store.ListPacks(ctx, opts)
}

// UpdatePack updates a pack's catalog entry.
func (e *Engine) UpdatePack(ctx context.Context, p *pack.Pack) error {
	p.Touch()
	return e.store.UpdatePack(ctx, p)
}

// ArchivePack retires a pack from sale. Archived packs still resolve for
// late-arriving purchase confirmations.
func (e *Engine) ArchivePack(ctx context.Context, packID id.PackID) error {
	return e.store.ArchivePack(ctx, packID)
}

// ──────────────────────────────────────────────────
// Payment Reconciliation
// ──────────────────────────────────────────────────

// HandleConfirmedPurchase credits an account for a provider-verified
// purchase, exactly once per provider event.
//
// Error contract: ErrInvalidEvent means the event can never be applied and
// should be acknowledged so the provider stops retrying. Retryable store
// failures propagate unwrapped so the caller signals the provider to
// redeliver. Redelivery of an already-applied event returns nil.
func (e *Engine) HandleConfirmedPurchase(ctx context.Context, evt *payment.ConfirmedPurchase) error {
	if evt == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	if err := evt.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	p, err := e.resolvePack(ctx, evt)
	if err != nil {
		return err
	}

	txn := &credit.Transaction{
		Entity:      types.NewEntity(),
		ID:          id.NewTransactionID(),
		AccountID:   evt.AccountID,
		Delta:       p.Credits,
		Kind:        credit.KindPurchase,
		Reference:   evt.EventID,
		Description: "purchase: " + p.Name,
	}

	newBalance, err := e.store.ApplyTransaction(ctx, txn)
	if err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			// Provider redelivery. The first application already credited
			// the account; absorb and acknowledge.
			e.logger.Debug("duplicate purchase delivery absorbed",
				"event_id", evt.EventID,
				"account_id", evt.AccountID,
			)
			e.hooks.EmitDuplicateDelivery(ctx, evt)
			return nil
		}
		return err
	}

	e.logger.Info("purchase applied",
		"event_id", evt.EventID,
		"account_id", evt.AccountID,
		"pack", p.Slug,
		"credits", p.Credits,
		"new_balance", newBalance,
	)
	e.hooks.EmitBalanceChanged(ctx, txn, newBalance)
	e.hooks.EmitPurchaseApplied(ctx, evt, txn)

	return nil
}

// resolvePack maps a purchase confirmation to a catalog pack, preferring the
// provider price id over the slug. An unresolvable pack is a permanently
// invalid event, not a retryable failure.
func (e *Engine) resolvePack(ctx context.Context, evt *payment.ConfirmedPurchase) (*pack.Pack, error) {
	if evt.PriceID != "" {
		p, err := e.store.GetPackByPriceID(ctx, evt.PriceID)
		if err == nil {
			return p, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	if evt.PackSlug != "" {
		p, err := e.store.GetPackBySlug(ctx, evt.PackSlug)
		if err == nil {
			return p, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: unknown pack (price_id=%q slug=%q)", ErrInvalidEvent, evt.PriceID, evt.PackSlug)
}
