// services/payment_gateway.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// RefundResult is what the gateway reports back on a successful refund.
type RefundResult struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
}

// PaymentGateway reverses captured payments. Failures are recoverable: the
// cancellation workflow falls back to an immediate balance credit plus a
// pending-refund marker instead of failing the cancellation.
type PaymentGateway interface {
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal, reason string) (*RefundResult, error)
}

// RestyPaymentGateway is the HTTP implementation.
type RestyPaymentGateway struct {
	client *resty.Client
}

func NewPaymentGateway(baseURL, apiKey string) *RestyPaymentGateway {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetAuthToken(apiKey).
		SetHeader("Accept", "application/json")
	return &RestyPaymentGateway{client: c}
}

func (g *RestyPaymentGateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal, reason string) (*RefundResult, error) {
	var out RefundResult
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"transaction_id": transactionID,
			"amount":         amount,
			"reason":         reason,
		}).
		SetResult(&out).
		Post("/v1/refunds")
	if err != nil {
		return nil, fmt.Errorf("gateway refund for transaction %s: %w", transactionID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway refund for transaction %s returned %d: %s",
			transactionID, resp.StatusCode(), resp.String())
	}
	return &out, nil
}
