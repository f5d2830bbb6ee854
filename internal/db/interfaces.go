package db

import (
	"context"
	"time"

	"renoleads-backend-go/internal/models"
)

// ClaimResult is the outcome of a prospect claim transaction.
type ClaimResult struct {
	// Claimed is true when this call won the lease and the conversion may
	// proceed. When false the prospect is already converted or another
	// conversion holds a fresh lease.
	Claimed bool
	// AlreadyConverted is true when the prospect reached the converted step
	// (or no longer exists because finalize deleted it).
	AlreadyConverted bool
	// ArtisanID carries the previously recorded artisan when the claim was
	// refused because a prior conversion finished.
	ArtisanID string
	Prospect  *models.Prospect
}

// ProspectRepository defines the interface for prospect storage operations.
// Claim and Finalize are the only two operations in the system backed by a
// true atomic transaction.
type ProspectRepository interface {
	Create(ctx context.Context, prospect *models.Prospect) (string, error)
	GetByID(ctx context.Context, prospectID string) (*models.Prospect, error)
	Update(ctx context.Context, prospect *models.Prospect) error
	SetFunnelStep(ctx context.Context, prospectID, step string) error

	// Claim atomically acquires the conversion lease on a prospect. A lease
	// older than maxLeaseAge is forcibly reclaimed. ownerToken identifies
	// the claimant for traceability.
	Claim(ctx context.Context, prospectID, ownerToken string, maxLeaseAge time.Duration) (*ClaimResult, error)

	// Release clears the lease after a failed conversion, recording the
	// failure reason so the prospect is not permanently stuck.
	Release(ctx context.Context, prospectID, reason string) error

	// RecordArtisan stamps the artisan created for this prospect so a
	// racing duplicate can report the same ID.
	RecordArtisan(ctx context.Context, prospectID, artisanID string) error

	// Finalize atomically stamps convertedAt on the new artisan and deletes
	// the prospect: either both happen or neither.
	Finalize(ctx context.Context, prospectID, artisanID string) error
}

// ArtisanRepository defines the interface for artisan storage operations.
type ArtisanRepository interface {
	Create(ctx context.Context, artisan *models.Artisan) error
	GetByID(ctx context.Context, artisanID string) (*models.Artisan, error)
	GetByEmail(ctx context.Context, email string) (*models.Artisan, error)
	Update(ctx context.Context, artisan *models.Artisan) error

	// UpdateFields writes only the named top-level fields, leaving every
	// other field untouched.
	UpdateFields(ctx context.Context, artisanID string, fields map[string]interface{}) error

	// AppendAssignedLead adds an estimation back-reference, deduplicated on
	// estimation ID; a duplicate append is a no-op.
	AppendAssignedLead(ctx context.Context, artisanID string, lead models.AssignedLead) error

	// RemoveAssignedLead removes the back-reference for an estimation; a
	// missing entry is a no-op.
	RemoveAssignedLead(ctx context.Context, artisanID, estimationID string) error
}

// EstimationRepository defines the interface for estimation storage
// operations. Assignment mutations are read-modify-write transactions keyed
// by estimation ID and deduplicated on artisan ID, which makes concurrent
// assign/unassign calls commutative.
type EstimationRepository interface {
	Create(ctx context.Context, estimation *models.Estimation) (string, error)
	GetByID(ctx context.Context, estimationID string) (*models.Estimation, error)

	AppendAssignment(ctx context.Context, estimationID string, assignment models.Assignment) (added bool, err error)
	RemoveAssignment(ctx context.Context, estimationID, artisanID string) (removed bool, err error)
	ReplaceAssignments(ctx context.Context, estimationID string, assignments []models.Assignment) error
	AppendMarketplacePurchase(ctx context.Context, estimationID string, purchase models.MarketplacePurchase) error

	// UpdateFields writes only the named top-level fields. Counter sync
	// goes through this so isPublished can never be touched as a side
	// effect.
	UpdateFields(ctx context.Context, estimationID string, fields map[string]interface{}) error

	SetStatus(ctx context.Context, estimationID, status string) error
	SetPublished(ctx context.Context, estimationID string, published bool) error
}

// SubscriptionRepository defines the interface for the local mirror of
// Stripe subscription objects.
type SubscriptionRepository interface {
	Set(ctx context.Context, subscription *models.Subscription) error
	GetByID(ctx context.Context, subscriptionID string) (*models.Subscription, error)
	UpdateFields(ctx context.Context, subscriptionID string, fields map[string]interface{}) error
}

// ReviewRepository defines the interface for the avis subcollection of an
// artisan.
type ReviewRepository interface {
	Create(ctx context.Context, artisanID string, review *models.Review) (string, error)
	GetByID(ctx context.Context, artisanID, reviewID string) (*models.Review, error)
	ListByArtisan(ctx context.Context, artisanID string) ([]*models.Review, error)
	Update(ctx context.Context, artisanID string, review *models.Review) error
	Delete(ctx context.Context, artisanID, reviewID string) error
}

// UserRepository defines the interface for user account documents.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error
}
