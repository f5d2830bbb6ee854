package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/models"
)

type billingFixture struct {
	artisans *fakeArtisanRepo
	subs     *fakeSubscriptionRepo
	payments *fakePaymentClient
	service  BillingService
}

func newBillingFixture() *billingFixture {
	fx := &billingFixture{
		artisans: newFakeArtisanRepo(),
		subs:     newFakeSubscriptionRepo(),
		payments: newFakePaymentClient(),
	}
	fx.service = NewBillingService(fx.artisans, fx.subs, fx.payments, zap.NewNop())
	return fx
}

// seedBilledArtisan provisions an artisan with an active Stripe
// subscription at the given plan.
func seedBilledArtisan(fx *billingFixture, id, plan string) *models.Artisan {
	ctx := context.Background()
	priceID, _ := fx.payments.EnsureMonthlyPrice(ctx, "product", planAmountCents(plan))
	customerID, _ := fx.payments.CreateCustomer(ctx, id+"@example.fr", id, nil)
	sub, _ := fx.payments.CreateSubscription(ctx, customerID, priceID)

	artisan := &models.Artisan{
		ID:                       id,
		Email:                    id + "@example.fr",
		StripeCustomerID:         customerID,
		StripeSubscriptionID:     sub.ID,
		CurrentPlan:              plan,
		MonthlySubscriptionPrice: planPrices[plan],
		SubscriptionStatus:       models.SubStatusActive,
	}
	fx.artisans.artisans[id] = artisan
	return artisan
}

func TestUpgradeSubscription_UnknownPlan(t *testing.T) {
	fx := newBillingFixture()
	seedBilledArtisan(fx, "a1", PlanEssentiel)

	_, err := fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: "platine"})
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestUpgradeSubscription_ActiveUpgrade(t *testing.T) {
	fx := newBillingFixture()
	artisan := seedBilledArtisan(fx, "a1", PlanEssentiel)

	sub, err := fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: PlanPro})
	assert.NoError(t, err)
	assert.Equal(t, PlanPro, sub.Plan)
	assert.Equal(t, 79.0, sub.MonthlyPrice)
	assert.Equal(t, models.SubStatusActive, sub.Status)
	assert.False(t, sub.CurrentPeriodEnd.IsZero())

	// Artisan document carries the new plan and the premium flags
	// together with the billing change.
	assert.Equal(t, PlanPro, artisan.CurrentPlan)
	assert.Equal(t, 79.0, artisan.MonthlySubscriptionPrice)
	assert.True(t, artisan.Premium.BannerEnabled)
	assert.True(t, artisan.Premium.BadgeEnabled)

	// Mirror document was rewritten.
	assert.Len(t, fx.subs.subscriptions, 1)
}

func TestUpgradeSubscription_RejectsDowngradeAndSamePlan(t *testing.T) {
	fx := newBillingFixture()
	seedBilledArtisan(fx, "a1", PlanPro)

	_, err := fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: PlanEssentiel})
	assert.ErrorIs(t, err, ErrOnlyUpgradesAllowed)

	_, err = fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: PlanPro})
	assert.ErrorIs(t, err, ErrOnlyUpgradesAllowed)
}

func TestUpgradeSubscription_PastDueIsBlocked(t *testing.T) {
	fx := newBillingFixture()
	artisan := seedBilledArtisan(fx, "a1", PlanEssentiel)
	fx.payments.subscriptions[artisan.StripeSubscriptionID].Status = models.SubStatusPastDue

	_, err := fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: PlanPro})
	assert.ErrorIs(t, err, ErrSubscriptionBlocked)
	assert.Contains(t, err.Error(), models.SubStatusPastDue)
}

func TestUpgradeSubscription_CanceledIsReplaced(t *testing.T) {
	fx := newBillingFixture()
	artisan := seedBilledArtisan(fx, "a1", PlanEssentiel)
	oldSubID := artisan.StripeSubscriptionID
	fx.payments.subscriptions[oldSubID].Status = models.SubStatusCanceled

	sub, err := fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: PlanPremium})
	assert.NoError(t, err)
	assert.NotEqual(t, oldSubID, sub.ID)
	assert.Equal(t, PlanPremium, sub.Plan)
	assert.Equal(t, PlanPremium, artisan.CurrentPlan)
}

func TestUpgradeSubscription_NoSubscriptionCreatesOne(t *testing.T) {
	fx := newBillingFixture()
	fx.artisans.artisans["a1"] = &models.Artisan{
		ID:               "a1",
		Email:            "a1@example.fr",
		StripeCustomerID: "cus_existing",
	}

	sub, err := fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: PlanPro})
	assert.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, PlanPro, sub.Plan)
	assert.Equal(t, sub.ID, fx.artisans.artisans["a1"].StripeSubscriptionID)
}

func TestUpgradeSubscription_SelfHealsMissingCustomer(t *testing.T) {
	fx := newBillingFixture()
	fx.artisans.artisans["a1"] = &models.Artisan{ID: "a1", Email: "a1@example.fr"}

	_, err := fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: PlanEssentiel})
	assert.NoError(t, err)
	assert.NotEmpty(t, fx.artisans.artisans["a1"].StripeCustomerID)
	assert.Len(t, fx.payments.customers, 1)
}

func TestUpgradeSubscription_ProrataIssuesInvoice(t *testing.T) {
	fx := newBillingFixture()
	seedBilledArtisan(fx, "a1", PlanEssentiel)

	_, err := fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: PlanPremium, Prorata: true})
	assert.NoError(t, err)
	assert.Len(t, fx.payments.invoices, 1)
}

func TestUpgradeSubscription_EssentielHasNoPremiumFeatures(t *testing.T) {
	fx := newBillingFixture()
	fx.artisans.artisans["a1"] = &models.Artisan{ID: "a1", Email: "a1@example.fr"}

	_, err := fx.service.UpgradeSubscription(context.Background(), "a1", models.UpgradeSubscriptionRequest{Plan: PlanEssentiel})
	assert.NoError(t, err)
	assert.False(t, fx.artisans.artisans["a1"].Premium.BannerEnabled)
	assert.False(t, fx.artisans.artisans["a1"].Premium.BadgeEnabled)
}
