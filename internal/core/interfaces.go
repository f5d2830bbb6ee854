package core

import (
	"context"
	"errors"

	"renoleads-backend-go/internal/models"
)

// ConversionService turns funnel prospects into billable artisan accounts.
type ConversionService interface {
	// ConvertProspect runs the claim/provision/finalize workflow. Duplicate
	// and racing calls return success with AlreadyExists set instead of an
	// error, so retries are safe for the caller.
	ConvertProspect(ctx context.Context, prospectID string, req models.ConvertProspectRequest) (*models.ConvertProspectResponse, error)
}

// ProspectService handles the registration funnel before conversion.
type ProspectService interface {
	CreateProspect(ctx context.Context, req models.CreateProspectRequest) (*models.Prospect, error)
	AdvanceFunnel(ctx context.Context, prospectID, step string) error
}

// AssignmentService is the estimation/lead distribution engine: manual
// assignment and marketplace bookkeeping over the same estimation.
type AssignmentService interface {
	AssignArtisan(ctx context.Context, estimationID, artisanID string) ([]models.Assignment, error)
	RemoveAssignment(ctx context.Context, estimationID, artisanID string) ([]models.Assignment, error)
	UpdateAssignmentPrice(ctx context.Context, estimationID, artisanID string, price float64) ([]models.Assignment, error)

	// ResolveArtisanID resolves a session to an artisan document ID. The
	// verified auth UID is authoritative; hint and email lookup are
	// fallbacks for accounts whose artisan document is not keyed by UID.
	ResolveArtisanID(ctx context.Context, hint, email, uid string) (string, error)
}

// EstimationService is the simulator's server side: priced estimation
// records and their admin lifecycle.
type EstimationService interface {
	CreateEstimation(ctx context.Context, req models.CreateEstimationRequest) (*models.Estimation, error)
	SetStatus(ctx context.Context, estimationID, status string) error
	SetPublished(ctx context.Context, estimationID string, published bool) error
}

// BillingService orchestrates subscription plan changes against Stripe.
type BillingService interface {
	UpgradeSubscription(ctx context.Context, artisanID string, req models.UpgradeSubscriptionRequest) (*models.Subscription, error)
}

// ReviewService owns review mutations and keeps the parent artisan's
// aggregate stats in exact sync.
type ReviewService interface {
	CreateReview(ctx context.Context, artisanID string, req models.CreateReviewRequest) (*models.Review, error)
	ModerateReview(ctx context.Context, artisanID, reviewID, moderatorID string, req models.ModerateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, artisanID, reviewID string) error
	RecomputeStats(ctx context.Context, artisanID string) error
}

// PaymentSubscription is the processor-neutral view of a subscription
// object the billing code needs. Period bounds are unix seconds; zero means
// the processor response did not carry the field.
type PaymentSubscription struct {
	ID                 string
	CustomerID         string
	Status             string
	ItemID             string
	PriceID            string
	UnitAmountCents    int64
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
}

// PaymentClient abstracts the payment processor (Stripe in production).
type PaymentClient interface {
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error)
	// EnsureMonthlyPrice returns a recurring monthly price for the given
	// amount, reusing an existing price object when one is listed.
	EnsureMonthlyPrice(ctx context.Context, productName string, amountCents int64) (string, error)
	// CreateSubscription defers payment collection until a payment method
	// is attached.
	CreateSubscription(ctx context.Context, customerID, priceID string) (*PaymentSubscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*PaymentSubscription, error)
	UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, newPriceID string, prorate bool) (*PaymentSubscription, error)
	// CreateProratedInvoice issues and finalizes an immediate invoice
	// picking up pending proration items for the customer.
	CreateProratedInvoice(ctx context.Context, customerID string) (string, error)
}

// ErrIdentityUserNotFound is wrapped by IdentityClient implementations when
// no account exists for a lookup key, so services can branch on it without
// depending on the concrete provider.
var ErrIdentityUserNotFound = errors.New("identity user not found")

// IdentityUser is the identity-provider view of an account.
type IdentityUser struct {
	UID         string
	Email       string
	DisplayName string
}

// IdentityClient abstracts the identity provider (Firebase Auth in
// production).
type IdentityClient interface {
	CreateUser(ctx context.Context, email, password, displayName string) (*IdentityUser, error)
	// GetUserByEmail returns ErrIdentityUserNotFound when no account uses
	// the email.
	GetUserByEmail(ctx context.Context, email string) (*IdentityUser, error)
}

// Mailer sends transactional email. Sends are best-effort: callers log
// failures and never roll back committed data because of them.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, recipient, firstName, loginEmail, password string) error
}

// EventPublisher publishes best-effort domain events (lead.assigned,
// lead.priced, artisan.converted) for out-of-band consumers. A nil-safe
// no-op implementation is used when AMQP is not configured.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}
