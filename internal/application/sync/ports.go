package sync

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// MarketplacePublisher puerto de publicación de disponibilidad hacia canales
// externos. La implementación HTTP vive en infrastructure/marketplace.
type MarketplacePublisher interface {
	PublishStock(ctx context.Context, tenantID string, item stock.ItemRef, quantity decimal.Decimal) error
}
