// Package payment defines the provider-verified events consumed by the
// reconciliation path.
//
// Signature validation is an external concern: by the time a payload reaches
// this package it has already been authenticated against the provider's
// webhook secret. What remains is strict, typed decoding — malformed or
// incomplete events are rejected before they touch the ledger.
package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/arena/id"
)

// EventType classifies provider notifications. Only completed purchases
// reach the ledger; everything else is acknowledged and dropped.
type EventType string

const (
	EventPurchaseCompleted EventType = "purchase.completed"
)

// ErrMalformedEvent indicates a payload that could not be decoded into a
// well-formed provider event.
var ErrMalformedEvent = errors.New("payment: malformed event")

// ConfirmedPurchase is a provider-verified purchase confirmation.
//
// EventID is the provider's globally unique identifier for the notification
// and doubles as the ledger idempotency reference: redelivery of the same
// event credits the account exactly once.
type ConfirmedPurchase struct {
	Provider   string       `json:"provider"`
	EventID    string       `json:"event_id"`
	AccountID  id.AccountID `json:"account_id"`
	PackSlug   string       `json:"pack_slug,omitempty"`
	PriceID    string       `json:"price_id,omitempty"`
	ReceivedAt time.Time    `json:"received_at"`
}

// Validate reports whether the event carries everything the reconciliation
// path needs. It does not consult the store; unknown packs and accounts are
// detected later.
func (e *ConfirmedPurchase) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: missing event id", ErrMalformedEvent)
	}
	if e.AccountID.IsNil() {
		return fmt.Errorf("%w: missing account id", ErrMalformedEvent)
	}
	if e.PackSlug == "" && e.PriceID == "" {
		return fmt.Errorf("%w: neither pack slug nor price id present", ErrMalformedEvent)
	}
	return nil
}

// envelope is the wire shape of a provider notification.
type envelope struct {
	Type EventType       `json:"type"`
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// purchaseData is the payload of a purchase.completed notification.
type purchaseData struct {
	AccountID string `json:"account_id"`
	PackSlug  string `json:"pack_slug"`
	PriceID   string `json:"price_id"`
	Provider  string `json:"provider"`
}

// ParseConfirmedPurchase decodes a verified provider payload into a
// ConfirmedPurchase. It returns (nil, nil) for event types the ledger does
// not act on, and ErrMalformedEvent for payloads that cannot be decoded.
func ParseConfirmedPurchase(raw []byte) (*ConfirmedPurchase, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if env.Type != EventPurchaseCompleted {
		return nil, nil
	}
	if env.ID == "" {
		return nil, fmt.Errorf("%w: missing event id", ErrMalformedEvent)
	}

	var data purchaseData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	accountID, err := id.ParseAccountID(data.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad account id: %v", ErrMalformedEvent, err)
	}

	evt := &ConfirmedPurchase{
		Provider:   data.Provider,
		EventID:    env.ID,
		AccountID:  accountID,
		PackSlug:   data.PackSlug,
		PriceID:    data.PriceID,
		ReceivedAt: time.Now().UTC(),
	}
	if err := evt.Validate(); err != nil {
		return nil, err
	}
	return evt, nil
}
