// services/marketplace_client.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// StockCheckResult is the upstream answer for a single product.
type StockCheckResult struct {
	Available bool `json:"available"`
	Stock     int  `json:"stock"`
}

// UpstreamProduct is one record of the supplier's full catalog export.
type UpstreamProduct struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Available  bool            `json:"available"`
	Stock      int             `json:"stock"`
	Categories []string        `json:"categories"`
	Genres     []string        `json:"genres"`
	Platforms  []string        `json:"platforms"`
}

// MarketplaceClient talks to the upstream supplier. All calls may fail with
// network, rate-limit or validation errors; callers wrap them in Retry.
type MarketplaceClient interface {
	CheckStock(ctx context.Context, productID string) (StockCheckResult, error)
	GetBulkPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error)
	FetchFullCatalog(ctx context.Context) ([]UpstreamProduct, error)
}

const catalogPageSize = 200

// RestyMarketplaceClient is the HTTP implementation.
type RestyMarketplaceClient struct {
	client *resty.Client
}

func NewMarketplaceClient(baseURL, apiKey string) *RestyMarketplaceClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("X-Api-Key", apiKey).
		SetHeader("Accept", "application/json")
	return &RestyMarketplaceClient{client: c}
}

func (m *RestyMarketplaceClient) CheckStock(ctx context.Context, productID string) (StockCheckResult, error) {
	var out StockCheckResult
	resp, err := m.client.R().
		SetContext(ctx).
		SetPathParam("id", productID).
		SetResult(&out).
		Get("/v1/products/{id}/stock")
	if err != nil {
		return out, fmt.Errorf("marketplace stock check for %s: %w", productID, err)
	}
	if resp.IsError() {
		return out, fmt.Errorf("marketplace stock check for %s returned %d: %s",
			productID, resp.StatusCode(), resp.String())
	}
	return out, nil
}

func (m *RestyMarketplaceClient) GetBulkPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error) {
	var out struct {
		Prices map[string]decimal.Decimal `json:"prices"`
	}
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"product_ids": productIDs}).
		SetResult(&out).
		Post("/v1/products/prices")
	if err != nil {
		return nil, fmt.Errorf("marketplace bulk price fetch: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("marketplace bulk price fetch returned %d: %s",
			resp.StatusCode(), resp.String())
	}
	return out.Prices, nil
}

// FetchFullCatalog pages through the supplier's export until an empty page.
func (m *RestyMarketplaceClient) FetchFullCatalog(ctx context.Context) ([]UpstreamProduct, error) {
	var all []UpstreamProduct
	for page := 1; ; page++ {
		var out struct {
			Products []UpstreamProduct `json:"products"`
		}
		resp, err := m.client.R().
			SetContext(ctx).
			SetQueryParam("page", fmt.Sprintf("%d", page)).
			SetQueryParam("page_size", fmt.Sprintf("%d", catalogPageSize)).
			SetResult(&out).
			Get("/v1/products")
		if err != nil {
			return nil, fmt.Errorf("marketplace catalog fetch page %d: %w", page, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("marketplace catalog fetch page %d returned %d: %s",
				page, resp.StatusCode(), resp.String())
		}
		if len(out.Products) == 0 {
			return all, nil
		}
		all = append(all, out.Products...)
		if len(out.Products) < catalogPageSize {
			return all, nil
		}
	}
}
