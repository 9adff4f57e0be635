package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	appsync "github.com/jhoicas/stock-ledger-api/internal/application/sync"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

var _ appsync.MarketplacePublisher = (*HTTPPublisher)(nil)

// HTTPPublisher publica disponibilidad de stock en el conector de marketplaces
// vía HTTP. El conector resuelve a qué canales (MELI, Shopee, etc.) pertenece
// cada clave; este cliente solo reporta la cantidad publicable.
type HTTPPublisher struct {
	client *resty.Client
}

// stockPushBody payload del PUT de disponibilidad.
type stockPushBody struct {
	TenantID  string          `json:"tenant_id"`
	ProductID string          `json:"product_id,omitempty"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// NewHTTPPublisher construye el cliente. token puede ser vacío (conector interno).
func NewHTTPPublisher(baseURL, token string, timeout time.Duration) *HTTPPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HTTPPublisher{client: client}
}

// PublishStock envía la cantidad publicable de la clave. Cualquier status fuera
// de 2xx cuenta como fallo y el drenador programa el reintento.
func (p *HTTPPublisher) PublishStock(ctx context.Context, tenantID string, item stock.ItemRef, quantity decimal.Decimal) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(stockPushBody{
			TenantID:  tenantID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  quantity,
		}).
		Put("/v1/stock")
	if err != nil {
		return fmt.Errorf("push stock: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("push stock: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
