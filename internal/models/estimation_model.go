package models

import "time"

// Estimation status values. Status, isPublished and assignments are three
// independent axes: changing one never implies a change to the others.
const (
	EstimationDraft     = "draft"
	EstimationCompleted = "completed"
	EstimationSent      = "sent"
	EstimationExpired   = "expired"
)

// ClientInfo is the homeowner's contact block on an estimation.
type ClientInfo struct {
	FirstName string `json:"firstName" firestore:"firstName"`
	LastName  string `json:"lastName" firestore:"lastName"`
	Email     string `json:"email" firestore:"email"`
	Phone     string `json:"phone,omitempty" firestore:"phone,omitempty"`
}

// Location is the project's location block.
type Location struct {
	PostalCode string  `json:"postalCode" firestore:"postalCode"`
	City       string  `json:"city,omitempty" firestore:"city,omitempty"`
	Latitude   float64 `json:"latitude,omitempty" firestore:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty" firestore:"longitude,omitempty"`
}

// ProjectInfo describes the renovation work requested via the simulator.
type ProjectInfo struct {
	Type       string            `json:"type" firestore:"type"`
	Prestation string            `json:"prestation" firestore:"prestation"`
	SurfaceM2  float64           `json:"surfaceM2,omitempty" firestore:"surfaceM2,omitempty"`
	Responses  map[string]string `json:"responses,omitempty" firestore:"responses,omitempty"`
}

// Pricing is the computed price band for an estimation.
type Pricing struct {
	LowEstimate    float64 `json:"lowEstimate" firestore:"lowEstimate"`
	MediumEstimate float64 `json:"mediumEstimate" firestore:"mediumEstimate"`
	HighEstimate   float64 `json:"highEstimate" firestore:"highEstimate"`
	Confidence     float64 `json:"confidence" firestore:"confidence"` // 0..1
}

// Assignment records a manual admin-driven distribution of an estimation to
// an artisan. At most one entry per artisan ID.
type Assignment struct {
	ArtisanID      string    `json:"artisanId" firestore:"artisanId"`
	ArtisanName    string    `json:"artisanName" firestore:"artisanName"`
	ArtisanCompany string    `json:"artisanCompany,omitempty" firestore:"artisanCompany,omitempty"`
	AssignedAt     time.Time `json:"assignedAt" firestore:"assignedAt"`
	Price          float64   `json:"price,omitempty" firestore:"price,omitempty"`
}

// MarketplacePurchase is one entry in the purchase ledger: either a
// self-service marketplace purchase or a synthetic entry recording an
// admin-set assignment price (ID prefixed "manual-assignment-").
type MarketplacePurchase struct {
	PurchaseID  string    `json:"purchaseId" firestore:"purchaseId"`
	ArtisanID   string    `json:"artisanId" firestore:"artisanId"`
	Price       float64   `json:"price" firestore:"price"`
	PurchasedAt time.Time `json:"purchasedAt" firestore:"purchasedAt"`
}

// Estimation is a priced project request produced by the quote simulator
// and distributed to artisans through manual assignment and the
// marketplace.
type Estimation struct {
	ID         string      `json:"id" firestore:"-"`
	SessionID  string      `json:"sessionId" firestore:"sessionId"`
	Status     string      `json:"status" firestore:"status"`
	ClientInfo ClientInfo  `json:"clientInfo" firestore:"clientInfo"`
	Location   Location    `json:"location" firestore:"location"`
	Project    ProjectInfo `json:"project" firestore:"project"`
	Pricing    Pricing     `json:"pricing" firestore:"pricing"`

	Assignments []Assignment `json:"assignments,omitempty" firestore:"assignments,omitempty"`

	// Marketplace channel. IsPublished is admin-controlled only; the
	// assignment operations adjust counters but never flip visibility.
	IsPublished          bool                  `json:"isPublished" firestore:"isPublished"`
	MarketplacePurchases []MarketplacePurchase `json:"marketplacePurchases,omitempty" firestore:"marketplacePurchases,omitempty"`
	AssignedCount        int                   `json:"assignedCount" firestore:"assignedCount"`
	PurchaseCount        int                   `json:"purchaseCount" firestore:"purchaseCount"`
	TotalRevenue         float64               `json:"totalRevenue" firestore:"totalRevenue"`

	Notes     string    `json:"notes,omitempty" firestore:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// AssignmentFor returns the assignment entry for the given artisan, if any.
func (e *Estimation) AssignmentFor(artisanID string) (Assignment, bool) {
	for _, a := range e.Assignments {
		if a.ArtisanID == artisanID {
			return a, true
		}
	}
	return Assignment{}, false
}
