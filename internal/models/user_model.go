package models

import "time"

// User roles. Artisan accounts get RoleArtisan at conversion time; admin
// users are provisioned out-of-band.
const (
	RoleArtisan = "artisan"
	RoleAdmin   = "admin"
)

// User represents an authenticated account in the system. The document ID
// is the Firebase Auth UID.
type User struct {
	ID               string    `json:"id" firestore:"-"`
	Email            string    `json:"email" firestore:"email"`
	DisplayName      string    `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	Role             string    `json:"role" firestore:"role"`
	StripeCustomerID string    `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId,omitempty"`
	CreatedAt        time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt        time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
