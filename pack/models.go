// Package pack defines purchasable credit packages. Packs are the catalog
// entries that payment confirmations resolve against: a confirmed purchase
// names a pack, and the pack determines how many credits to grant.
package pack

import (
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/types"
)

// Status is the availability state of a pack.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Pack is a purchasable bundle of credits.
type Pack struct {
	types.Entity
	ID          id.PackID   `json:"id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Credits     int64       `json:"credits"`
	Price       types.Money `json:"price"`
	// ProviderPriceID is the payment provider's identifier for this pack's
	// checkout price. Confirmed purchases may reference it instead of the slug.
	ProviderPriceID string            `json:"provider_price_id,omitempty"`
	Status          Status            `json:"status"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// ListOpts filters pack listings.
type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
