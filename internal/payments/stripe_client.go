package payments

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
	"github.com/stripe/stripe-go/v82/subscription"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/core"
)

// StripeClient implements core.PaymentClient over the Stripe API.
type StripeClient struct {
	logger *zap.Logger
}

// NewStripeClient configures the global Stripe key and returns the client.
func NewStripeClient(secretKey string, logger *zap.Logger) (*StripeClient, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	stripe.Key = secretKey
	return &StripeClient{logger: logger}, nil
}

// CreateCustomer creates a Stripe customer for an artisan account.
func (c *StripeClient) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe customer creation failed: %w", err)
	}
	return cust.ID, nil
}

// EnsureMonthlyPrice returns a monthly recurring price in EUR for the given
// amount, creating the product and price on first use and reusing an
// existing active price of the same amount afterwards.
func (c *StripeClient) EnsureMonthlyPrice(ctx context.Context, productName string, amountCents int64) (string, error) {
	prodID, err := c.ensureProduct(ctx, productName)
	if err != nil {
		return "", err
	}

	listParams := &stripe.PriceListParams{
		Product: stripe.String(prodID),
		Active:  stripe.Bool(true),
	}
	listParams.Context = ctx
	iter := price.List(listParams)
	for iter.Next() {
		p := iter.Price()
		if p.UnitAmount == amountCents && p.Recurring != nil && p.Recurring.Interval == stripe.PriceRecurringIntervalMonth {
			return p.ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("stripe price listing failed: %w", err)
	}

	createParams := &stripe.PriceParams{
		Product:    stripe.String(prodID),
		UnitAmount: stripe.Int64(amountCents),
		Currency:   stripe.String(string(stripe.CurrencyEUR)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		},
	}
	createParams.Context = ctx
	p, err := price.New(createParams)
	if err != nil {
		return "", fmt.Errorf("stripe price creation failed: %w", err)
	}
	return p.ID, nil
}

// ensureProduct finds the product by name or creates it.
func (c *StripeClient) ensureProduct(ctx context.Context, name string) (string, error) {
	listParams := &stripe.ProductListParams{Active: stripe.Bool(true)}
	listParams.Context = ctx
	iter := product.List(listParams)
	for iter.Next() {
		if iter.Product().Name == name {
			return iter.Product().ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("stripe product listing failed: %w", err)
	}

	createParams := &stripe.ProductParams{Name: stripe.String(name)}
	createParams.Context = ctx
	prod, err := product.New(createParams)
	if err != nil {
		return "", fmt.Errorf("stripe product creation failed: %w", err)
	}
	return prod.ID, nil
}

// CreateSubscription creates a subscription with payment collection
// deferred until a payment method is attached.
func (c *StripeClient) CreateSubscription(ctx context.Context, customerID, priceID string) (*core.PaymentSubscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.Context = ctx

	sub, err := subscription.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe subscription creation failed: %w", err)
	}
	return toPaymentSubscription(sub), nil
}

// GetSubscription retrieves the live subscription object.
func (c *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*core.PaymentSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe subscription retrieval failed: %w", err)
	}
	return toPaymentSubscription(sub), nil
}

// UpdateSubscriptionPrice swaps the subscription item's price, optionally
// creating prorations.
func (c *StripeClient) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, newPriceID string, prorate bool) (*core.PaymentSubscription, error) {
	prorationBehavior := "none"
	if prorate {
		prorationBehavior = "create_prorations"
	}
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(newPriceID),
			},
		},
		ProrationBehavior: stripe.String(prorationBehavior),
	}
	params.Context = ctx

	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe subscription update failed: %w", err)
	}
	return toPaymentSubscription(sub), nil
}

// CreateProratedInvoice issues and finalizes an immediate invoice picking
// up the customer's pending (proration) invoice items.
func (c *StripeClient) CreateProratedInvoice(ctx context.Context, customerID string) (string, error) {
	createParams := &stripe.InvoiceParams{
		Customer:    stripe.String(customerID),
		AutoAdvance: stripe.Bool(true),
	}
	createParams.Context = ctx
	inv, err := invoice.New(createParams)
	if err != nil {
		return "", fmt.Errorf("stripe invoice creation failed: %w", err)
	}

	finalizeParams := &stripe.InvoiceFinalizeInvoiceParams{}
	finalizeParams.Context = ctx
	finalized, err := invoice.FinalizeInvoice(inv.ID, finalizeParams)
	if err != nil {
		return "", fmt.Errorf("stripe invoice finalization failed: %w", err)
	}
	return finalized.ID, nil
}

// toPaymentSubscription maps the Stripe object onto the processor-neutral
// view. Period bounds live on the subscription item; absent fields map to
// zero so callers never trust them blindly.
func toPaymentSubscription(sub *stripe.Subscription) *core.PaymentSubscription {
	ps := &core.PaymentSubscription{
		ID:     sub.ID,
		Status: string(sub.Status),
	}
	if sub.Customer != nil {
		ps.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		ps.ItemID = item.ID
		ps.CurrentPeriodStart = item.CurrentPeriodStart
		ps.CurrentPeriodEnd = item.CurrentPeriodEnd
		if item.Price != nil {
			ps.PriceID = item.Price.ID
			ps.UnitAmountCents = item.Price.UnitAmount
		}
	}
	return ps
}
