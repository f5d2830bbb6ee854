package core

// Billing plans. Every artisan starts on Essentiel at conversion time; the
// upgrade endpoint only ever moves to a strictly more expensive plan.
const (
	PlanEssentiel = "essentiel"
	PlanPro       = "pro"
	PlanPremium   = "premium"
)

// stripeProductName is the single Stripe product all plan prices hang off.
const stripeProductName = "RenoLeads Abonnement Artisan"

// planPrices maps plan names to their monthly price in euros.
var planPrices = map[string]float64{
	PlanEssentiel: 49,
	PlanPro:       79,
	PlanPremium:   129,
}

// PlanPrice returns the monthly price in euros for a plan, and whether the
// plan exists.
func PlanPrice(plan string) (float64, bool) {
	p, ok := planPrices[plan]
	return p, ok
}

// planAmountCents converts a plan's euro price to Stripe cents.
func planAmountCents(plan string) int64 {
	return int64(planPrices[plan] * 100)
}

// planHasPremiumFeatures reports whether a plan unlocks the premium
// feature bundle (banner media, badges).
func planHasPremiumFeatures(plan string) bool {
	return plan == PlanPro || plan == PlanPremium
}
