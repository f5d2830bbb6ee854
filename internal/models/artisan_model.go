package models

import "time"

// AssignedLead is a back-reference from an artisan to an estimation it was
// assigned to. It is a weak reference for dashboard listing, not ownership;
// the estimation's assignments list stays authoritative.
type AssignedLead struct {
	EstimationID string    `json:"estimationId" firestore:"estimationId"`
	AssignedAt   time.Time `json:"assignedAt" firestore:"assignedAt"`
}

// PremiumFeatures bundles the feature flags gated by the paid tiers
// (banner media, badges). It is only ever written together with a billing
// plan change so premium capability never appears without payment.
type PremiumFeatures struct {
	BannerEnabled    bool      `json:"bannerEnabled" firestore:"bannerEnabled"`
	BadgeEnabled     bool      `json:"badgeEnabled" firestore:"badgeEnabled"`
	PremiumSince     time.Time `json:"premiumSince,omitempty" firestore:"premiumSince,omitempty"`
	PremiumExpiresAt time.Time `json:"premiumExpiresAt,omitempty" firestore:"premiumExpiresAt,omitempty"`
}

// Artisan is a professional account, created by the prospect conversion
// workflow. Document ID is the Firebase Auth UID.
type Artisan struct {
	ID          string   `json:"id" firestore:"-"`
	FirstName   string   `json:"firstName" firestore:"firstName"`
	LastName    string   `json:"lastName" firestore:"lastName"`
	CompanyName string   `json:"companyName,omitempty" firestore:"companyName,omitempty"`
	Email       string   `json:"email" firestore:"email"`
	Phone       string   `json:"phone,omitempty" firestore:"phone,omitempty"`
	Slug        string   `json:"slug" firestore:"slug"`
	Professions []string `json:"professions" firestore:"professions"`
	PostalCode  string   `json:"postalCode,omitempty" firestore:"postalCode,omitempty"`
	City        string   `json:"city,omitempty" firestore:"city,omitempty"`
	RadiusKm    int      `json:"radiusKm,omitempty" firestore:"radiusKm,omitempty"`
	Description string   `json:"description,omitempty" firestore:"description,omitempty"`

	// Subscription linkage, mirrored from Stripe and the subscriptions
	// collection for cheap dashboard reads.
	StripeCustomerID         string    `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId,omitempty"`
	StripeSubscriptionID     string    `json:"stripeSubscriptionId,omitempty" firestore:"stripeSubscriptionId,omitempty"`
	CurrentPlan              string    `json:"currentPlan" firestore:"currentPlan"`
	MonthlySubscriptionPrice float64   `json:"monthlySubscriptionPrice" firestore:"monthlySubscriptionPrice"`
	SubscriptionStatus       string    `json:"subscriptionStatus" firestore:"subscriptionStatus"`
	CurrentPeriodEnd         time.Time `json:"currentPeriodEnd,omitempty" firestore:"currentPeriodEnd,omitempty"`

	Premium PremiumFeatures `json:"premium" firestore:"premium"`

	// Aggregate review stats. Invariant: always equal to the aggregate of
	// the artisan's avis subcollection; recomputed on every review change.
	AverageRating float64 `json:"averageRating" firestore:"averageRating"`
	ReviewCount   int     `json:"reviewCount" firestore:"reviewCount"`

	// Lead counters and assignment back-references.
	LeadCountThisMonth int            `json:"leadCountThisMonth" firestore:"leadCountThisMonth"`
	TotalLeads         int            `json:"totalLeads" firestore:"totalLeads"`
	AssignedLeads      []AssignedLead `json:"assignedLeads,omitempty" firestore:"assignedLeads,omitempty"`

	// Traceability of the conversion that created this account.
	ConvertedAt             time.Time `json:"convertedAt,omitempty" firestore:"convertedAt,omitempty"`
	ConvertedFromProspectID string    `json:"convertedFromProspectId,omitempty" firestore:"convertedFromProspectId,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
