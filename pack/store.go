package pack

import (
	"context"

	"github.com/xraph/arena/id"
)

// Store is the credit-pack fragment of the unified store interface.
type Store interface {
	CreatePack(ctx context.Context, p *Pack) error
	GetPack(ctx context.Context, packID id.PackID) (*Pack, error)
	GetPackBySlug(ctx context.Context, slug string) (*Pack, error)
	GetPackByPriceID(ctx context.Context, priceID string) (*Pack, error)
	ListPacks(ctx context.Context, opts ListOpts) ([]*Pack, error)
	UpdatePack(ctx context.Context, p *Pack) error
	ArchivePack(ctx context.Context, packID id.PackID) error
}
