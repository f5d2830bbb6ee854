package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"renoleads-backend-go/internal/db"
	"renoleads-backend-go/internal/models"
)

// Custom errors for the BillingService
var (
	ErrUnknownPlan         = errors.New("unknown subscription plan")
	ErrOnlyUpgradesAllowed = errors.New("only upgrades are allowed")
	ErrSubscriptionBlocked = errors.New("subscription status requires external resolution")
	ErrPlanChangeFailed    = errors.New("subscription plan change failed")
)

// discardableStatuses are processor-side subscription states treated as
// dead: a plan change replaces the subscription instead of updating it.
var discardableStatuses = map[string]bool{
	models.SubStatusCanceled:          true,
	models.SubStatusIncomplete:        true,
	models.SubStatusIncompleteExpired: true,
}

// billingService implements the BillingService interface.
type billingService struct {
	artisanRepo      db.ArtisanRepository
	subscriptionRepo db.SubscriptionRepository
	payments         PaymentClient
	logger           *zap.Logger
}

// NewBillingService creates a new BillingService instance.
func NewBillingService(ar db.ArtisanRepository, sr db.SubscriptionRepository, pay PaymentClient, logger *zap.Logger) BillingService {
	return &billingService{
		artisanRepo:      ar,
		subscriptionRepo: sr,
		payments:         pay,
		logger:           logger,
	}
}

// UpgradeSubscription moves an artisan to a more expensive billing plan.
// The artisan identity always comes from the verified bearer token. The
// sequence Stripe-write-then-local-write is not atomic; a failure between
// the two leaves a processor-side object to be reconciled out-of-band.
func (s *billingService) UpgradeSubscription(ctx context.Context, artisanID string, req models.UpgradeSubscriptionRequest) (*models.Subscription, error) {
	price, ok := PlanPrice(req.Plan)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownPlan, req.Plan)
	}

	artisan, err := s.artisanRepo.GetByID(ctx, artisanID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrArtisanNotFound, artisanID)
		}
		return nil, fmt.Errorf("%w: %v", ErrPlanChangeFailed, err)
	}

	// Self-heal a missing Stripe customer before anything else.
	customerID := artisan.StripeCustomerID
	if customerID == "" {
		customerID, err = s.payments.CreateCustomer(ctx, artisan.Email, artisan.FirstName+" "+artisan.LastName, map[string]string{
			"artisanId": artisanID,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: customer creation: %v", ErrPlanChangeFailed, err)
		}
		if err := s.artisanRepo.UpdateFields(ctx, artisanID, map[string]interface{}{
			"stripeCustomerId": customerID,
		}); err != nil {
			return nil, fmt.Errorf("%w: customer linkage: %v", ErrPlanChangeFailed, err)
		}
		s.logger.Info("Created missing Stripe customer for artisan",
			zap.String("artisanId", artisanID))
	}

	if artisan.StripeSubscriptionID == "" {
		return s.createSubscription(ctx, artisan, customerID, req.Plan, price, false)
	}

	current, err := s.payments.GetSubscription(ctx, artisan.StripeSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription lookup: %v", ErrPlanChangeFailed, err)
	}

	if current.Status != models.SubStatusActive {
		if discardableStatuses[current.Status] {
			// Dead subscription: replace it. Reactivation also clears any
			// stale premium expiry.
			return s.createSubscription(ctx, artisan, customerID, req.Plan, price, true)
		}
		return nil, fmt.Errorf("%w: status '%s'", ErrSubscriptionBlocked, current.Status)
	}

	// Active subscription: upgrades only, judged on the processor's live
	// price object rather than the local mirror.
	requestedCents := planAmountCents(req.Plan)
	if requestedCents <= current.UnitAmountCents {
		return nil, fmt.Errorf("%w: current %d cents, requested %d cents", ErrOnlyUpgradesAllowed, current.UnitAmountCents, requestedCents)
	}

	priceID, err := s.payments.EnsureMonthlyPrice(ctx, stripeProductName, requestedCents)
	if err != nil {
		return nil, fmt.Errorf("%w: price setup: %v", ErrPlanChangeFailed, err)
	}

	updated, err := s.payments.UpdateSubscriptionPrice(ctx, current.ID, current.ItemID, priceID, req.Prorata)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription update: %v", ErrPlanChangeFailed, err)
	}

	if req.Prorata {
		invoiceID, err := s.payments.CreateProratedInvoice(ctx, customerID)
		if err != nil {
			return nil, fmt.Errorf("%w: prorated invoice: %v", ErrPlanChangeFailed, err)
		}
		s.logger.Info("Issued prorated invoice for plan upgrade",
			zap.String("artisanId", artisan.ID), zap.String("invoiceId", invoiceID))
	}

	if err := s.persistPlanChange(ctx, artisan.ID, req.Plan, price, updated, false); err != nil {
		return nil, err
	}
	return s.mirrorSubscription(ctx, artisan.ID, req.Plan, price, priceID, updated)
}

// createSubscription provisions a brand-new Stripe subscription at the
// target plan and persists it, used both for first subscriptions and for
// replacing discardable ones.
func (s *billingService) createSubscription(ctx context.Context, artisan *models.Artisan, customerID, plan string, price float64, reactivation bool) (*models.Subscription, error) {
	priceID, err := s.payments.EnsureMonthlyPrice(ctx, stripeProductName, planAmountCents(plan))
	if err != nil {
		return nil, fmt.Errorf("%w: price setup: %v", ErrPlanChangeFailed, err)
	}
	paySub, err := s.payments.CreateSubscription(ctx, customerID, priceID)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription creation: %v", ErrPlanChangeFailed, err)
	}

	if err := s.persistPlanChange(ctx, artisan.ID, plan, price, paySub, reactivation); err != nil {
		return nil, err
	}
	return s.mirrorSubscription(ctx, artisan.ID, plan, price, priceID, paySub)
}

// persistPlanChange writes the plan, price, status, period and premium
// flags onto the artisan document in a single field update. Premium flags
// only ever change here, together with the billing change.
func (s *billingService) persistPlanChange(ctx context.Context, artisanID, plan string, price float64, paySub *PaymentSubscription, reactivation bool) error {
	fields := map[string]interface{}{
		"stripeSubscriptionId":     paySub.ID,
		"currentPlan":              plan,
		"monthlySubscriptionPrice": price,
		"subscriptionStatus":       paySub.Status,
	}
	if paySub.CurrentPeriodEnd > 0 {
		fields["currentPeriodEnd"] = time.Unix(paySub.CurrentPeriodEnd, 0).UTC()
	}

	if planHasPremiumFeatures(plan) {
		fields["premium.bannerEnabled"] = true
		fields["premium.badgeEnabled"] = true
		fields["premium.premiumSince"] = time.Now().UTC()
	} else {
		fields["premium.bannerEnabled"] = false
		fields["premium.badgeEnabled"] = false
	}
	if reactivation {
		// Clear a stale expiry left over from the discarded subscription.
		fields["premium.premiumExpiresAt"] = time.Time{}
	}

	if err := s.artisanRepo.UpdateFields(ctx, artisanID, fields); err != nil {
		return fmt.Errorf("%w: artisan update: %v", ErrPlanChangeFailed, err)
	}
	return nil
}

// mirrorSubscription rewrites the local Subscription document from the live
// processor response. Period fields are copied only when the processor
// returned them.
func (s *billingService) mirrorSubscription(ctx context.Context, artisanID, plan string, price float64, priceID string, paySub *PaymentSubscription) (*models.Subscription, error) {
	now := time.Now().UTC()
	mirror := &models.Subscription{
		ID:                   paySub.ID,
		ArtisanID:            artisanID,
		Plan:                 plan,
		MonthlyPrice:         price,
		Status:               paySub.Status,
		StripeSubscriptionID: paySub.ID,
		StripePriceID:        priceID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if paySub.CurrentPeriodStart > 0 {
		mirror.CurrentPeriodStart = time.Unix(paySub.CurrentPeriodStart, 0).UTC()
	}
	if paySub.CurrentPeriodEnd > 0 {
		mirror.CurrentPeriodEnd = time.Unix(paySub.CurrentPeriodEnd, 0).UTC()
	}
	if err := s.subscriptionRepo.Set(ctx, mirror); err != nil {
		return nil, fmt.Errorf("%w: subscription mirror: %v", ErrPlanChangeFailed, err)
	}
	return mirror, nil
}
