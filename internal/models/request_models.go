package models

// CreateProspectRequest is the public funnel-intake payload.
type CreateProspectRequest struct {
	FirstName  string  `json:"firstName" binding:"required"`
	LastName   string  `json:"lastName" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Phone      string  `json:"phone,omitempty"`
	PostalCode string  `json:"postalCode,omitempty"`
	City       string  `json:"city,omitempty"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	Profession string  `json:"profession,omitempty"`
}

// AdvanceFunnelRequest moves a prospect to another funnel step.
type AdvanceFunnelRequest struct {
	FunnelStep string `json:"funnelStep" binding:"required"`
}

// ConvertProspectRequest carries the personal/professional fields for the
// prospect-to-artisan conversion. ProspectID comes from the URL.
type ConvertProspectRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	City        string `json:"city,omitempty"`
	RadiusKm    int    `json:"radiusKm,omitempty"`
	Profession  string `json:"profession" binding:"required"`
	CompanyName string `json:"companyName,omitempty"`
}

// ConvertProspectResponse is the conversion outcome. AlreadyExists marks
// the idempotent no-op path (duplicate or racing request).
type ConvertProspectResponse struct {
	Success       bool   `json:"success"`
	ArtisanID     string `json:"artisanId,omitempty"`
	AlreadyExists bool   `json:"alreadyExists,omitempty"`
}

// CreateEstimationRequest is the simulator's contact-form submission.
type CreateEstimationRequest struct {
	SessionID  string      `json:"sessionId" binding:"required"`
	ClientInfo ClientInfo  `json:"clientInfo" binding:"required"`
	Location   Location    `json:"location" binding:"required"`
	Project    ProjectInfo `json:"project" binding:"required"`
}

// AssignArtisanRequest attaches an artisan to an estimation.
type AssignArtisanRequest struct {
	ArtisanID string `json:"artisanId" binding:"required"`
}

// UpdateAssignmentPriceRequest sets the admin price on an assignment.
type UpdateAssignmentPriceRequest struct {
	Price float64 `json:"price"`
}

// SetPublishedRequest toggles marketplace visibility. This is the only
// operation allowed to change isPublished.
type SetPublishedRequest struct {
	IsPublished bool `json:"isPublished"`
}

// UpgradeSubscriptionRequest asks for a billing-plan upgrade. The artisan
// identity is always resolved from the bearer token, never from the body.
type UpgradeSubscriptionRequest struct {
	Plan    string `json:"plan" binding:"required"`
	Prorata bool   `json:"prorata"`
}

// CreateReviewRequest is the public review-form payload.
type CreateReviewRequest struct {
	Rating      int    `json:"rating" binding:"required"`
	Comment     string `json:"comment,omitempty"`
	ClientName  string `json:"clientName" binding:"required"`
	ClientEmail string `json:"clientEmail,omitempty"`
}

// ModerateReviewRequest is the admin moderation payload. Pointers
// distinguish "leave unchanged" from explicit values.
type ModerateReviewRequest struct {
	Displayed       *bool   `json:"displayed,omitempty"`
	Rating          *int    `json:"rating,omitempty"`
	Comment         *string `json:"comment,omitempty"`
	ModerationNotes *string `json:"moderationNotes,omitempty"`
}
