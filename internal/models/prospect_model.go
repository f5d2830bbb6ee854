package models

import "time"

// Funnel steps a prospect moves through before conversion.
const (
	FunnelStep1     = "step1"
	FunnelStep2     = "step2"
	FunnelStep3     = "step3"
	FunnelCompleted = "completed"
	FunnelAbandoned = "abandoned"
	FunnelContacted = "contacted"
	FunnelConverted = "converted"
)

// Prospect is a funnel lead: a professional who started the signup form but
// has not yet been converted into a billable Artisan account.
type Prospect struct {
	ID         string  `json:"id" firestore:"-"` // Document ID, auto-generated
	FirstName  string  `json:"firstName" firestore:"firstName"`
	LastName   string  `json:"lastName" firestore:"lastName"`
	Email      string  `json:"email" firestore:"email"`
	Phone      string  `json:"phone,omitempty" firestore:"phone,omitempty"`
	PostalCode string  `json:"postalCode,omitempty" firestore:"postalCode,omitempty"`
	City       string  `json:"city,omitempty" firestore:"city,omitempty"`
	Latitude   float64 `json:"latitude,omitempty" firestore:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty" firestore:"longitude,omitempty"`
	Profession string  `json:"profession,omitempty" firestore:"profession,omitempty"`
	FunnelStep string  `json:"funnelStep" firestore:"funnelStep"`

	// Conversion lease. Processing + ProcessingOwner + ProcessingStartedAt
	// act as a mutual-exclusion lock: only one conversion may be in flight
	// per prospect, and a stale lease can be reclaimed after a maximum age.
	Processing          bool      `json:"processing" firestore:"processing"`
	ProcessingOwner     string    `json:"processingOwner,omitempty" firestore:"processingOwner,omitempty"`
	ProcessingStartedAt time.Time `json:"processingStartedAt,omitempty" firestore:"processingStartedAt,omitempty"`
	ProcessingError     string    `json:"processingError,omitempty" firestore:"processingError,omitempty"`
	ProcessingErrorAt   time.Time `json:"processingErrorAt,omitempty" firestore:"processingErrorAt,omitempty"`

	// Set once a conversion has produced an artisan, so a losing duplicate
	// request can report the winner's artisan ID.
	ConvertedArtisanID string `json:"convertedArtisanId,omitempty" firestore:"convertedArtisanId,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
