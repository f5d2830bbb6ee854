package models

import "time"

// Stripe subscription statuses this code reacts to. The mirror document's
// status follows Stripe's state machine.
const (
	SubStatusActive            = "active"
	SubStatusIncomplete        = "incomplete"
	SubStatusIncompleteExpired = "incomplete_expired"
	SubStatusPastDue           = "past_due"
	SubStatusCanceled          = "canceled"
)

// Subscription is the local mirror of a Stripe subscription object, keyed
// by the Stripe subscription ID. It is eventually consistent with Stripe:
// every plan-change operation rewrites the mirrored fields from the live
// Stripe response.
type Subscription struct {
	ID                   string    `json:"id" firestore:"-"` // Stripe subscription ID
	ArtisanID            string    `json:"artisanId" firestore:"artisanId"`
	Plan                 string    `json:"plan" firestore:"plan"`
	MonthlyPrice         float64   `json:"monthlyPrice" firestore:"monthlyPrice"`
	Status               string    `json:"status" firestore:"status"`
	StripeSubscriptionID string    `json:"stripeSubscriptionId" firestore:"stripeSubscriptionId"`
	StripePriceID        string    `json:"stripePriceId,omitempty" firestore:"stripePriceId,omitempty"`
	CurrentPeriodStart   time.Time `json:"currentPeriodStart,omitempty" firestore:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd     time.Time `json:"currentPeriodEnd,omitempty" firestore:"currentPeriodEnd,omitempty"`
	CanceledAt           time.Time `json:"canceledAt,omitempty" firestore:"canceledAt,omitempty"`
	CancelReason         string    `json:"cancelReason,omitempty" firestore:"cancelReason,omitempty"`
	CreatedAt            time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt            time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
