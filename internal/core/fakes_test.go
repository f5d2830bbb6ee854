package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"renoleads-backend-go/internal/db"
	"renoleads-backend-go/internal/models"
)

// In-memory repository and client fakes. They mirror the Firestore
// repositories' contracts (dedup on append, field-path updates, lease
// semantics) closely enough to drive the services without a live backend.

type fakeProspectRepo struct {
	prospects map[string]*models.Prospect
	released  map[string]string // prospectID -> release reason
	finalized map[string]string // prospectID -> artisanID
	recorded  map[string]string // prospectID -> artisanID

	failFinalize error
}

func newFakeProspectRepo() *fakeProspectRepo {
	return &fakeProspectRepo{
		prospects: map[string]*models.Prospect{},
		released:  map[string]string{},
		finalized: map[string]string{},
		recorded:  map[string]string{},
	}
}

func (f *fakeProspectRepo) Create(_ context.Context, p *models.Prospect) (string, error) {
	if p.ID == "" {
		p.ID = fmt.Sprintf("prospect-%d", len(f.prospects)+1)
	}
	f.prospects[p.ID] = p
	return p.ID, nil
}

func (f *fakeProspectRepo) GetByID(_ context.Context, id string) (*models.Prospect, error) {
	p, ok := f.prospects[id]
	if !ok {
		return nil, fmt.Errorf("prospect '%s': %w", id, db.ErrNotFound)
	}
	return p, nil
}

func (f *fakeProspectRepo) Update(_ context.Context, p *models.Prospect) error {
	f.prospects[p.ID] = p
	return nil
}

func (f *fakeProspectRepo) SetFunnelStep(_ context.Context, id, step string) error {
	p, ok := f.prospects[id]
	if !ok {
		return fmt.Errorf("prospect '%s': %w", id, db.ErrNotFound)
	}
	p.FunnelStep = step
	return nil
}

func (f *fakeProspectRepo) Claim(_ context.Context, id, ownerToken string, maxLeaseAge time.Duration) (*db.ClaimResult, error) {
	p, ok := f.prospects[id]
	if !ok {
		return &db.ClaimResult{AlreadyConverted: true}, nil
	}
	if p.FunnelStep == models.FunnelConverted || p.ConvertedArtisanID != "" {
		return &db.ClaimResult{AlreadyConverted: true, ArtisanID: p.ConvertedArtisanID, Prospect: p}, nil
	}
	if p.Processing && time.Since(p.ProcessingStartedAt) < maxLeaseAge {
		return &db.ClaimResult{Prospect: p}, nil
	}
	p.Processing = true
	p.ProcessingOwner = ownerToken
	p.ProcessingStartedAt = time.Now().UTC()
	return &db.ClaimResult{Claimed: true, Prospect: p}, nil
}

func (f *fakeProspectRepo) Release(_ context.Context, id, reason string) error {
	f.released[id] = reason
	if p, ok := f.prospects[id]; ok {
		p.Processing = false
		p.ProcessingOwner = ""
		p.ProcessingError = reason
	}
	return nil
}

func (f *fakeProspectRepo) RecordArtisan(_ context.Context, id, artisanID string) error {
	f.recorded[id] = artisanID
	if p, ok := f.prospects[id]; ok {
		p.ConvertedArtisanID = artisanID
	}
	return nil
}

func (f *fakeProspectRepo) Finalize(_ context.Context, id, artisanID string) error {
	if f.failFinalize != nil {
		return f.failFinalize
	}
	f.finalized[id] = artisanID
	delete(f.prospects, id)
	return nil
}

type fakeArtisanRepo struct {
	artisans   map[string]*models.Artisan
	lastFields map[string]interface{}
}

func newFakeArtisanRepo() *fakeArtisanRepo {
	return &fakeArtisanRepo{artisans: map[string]*models.Artisan{}}
}

func (f *fakeArtisanRepo) Create(_ context.Context, a *models.Artisan) error {
	f.artisans[a.ID] = a
	return nil
}

func (f *fakeArtisanRepo) GetByID(_ context.Context, id string) (*models.Artisan, error) {
	a, ok := f.artisans[id]
	if !ok {
		return nil, fmt.Errorf("artisan '%s': %w", id, db.ErrNotFound)
	}
	return a, nil
}

func (f *fakeArtisanRepo) GetByEmail(_ context.Context, email string) (*models.Artisan, error) {
	for _, a := range f.artisans {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, fmt.Errorf("artisan with email '%s': %w", email, db.ErrNotFound)
}

func (f *fakeArtisanRepo) Update(_ context.Context, a *models.Artisan) error {
	f.artisans[a.ID] = a
	return nil
}

func (f *fakeArtisanRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	a, ok := f.artisans[id]
	if !ok {
		return fmt.Errorf("artisan '%s': %w", id, db.ErrNotFound)
	}
	f.lastFields = fields
	// Apply the fields the tests observe through the model.
	if v, ok := fields["averageRating"].(float64); ok {
		a.AverageRating = v
	}
	if v, ok := fields["reviewCount"].(int); ok {
		a.ReviewCount = v
	}
	if v, ok := fields["currentPlan"].(string); ok {
		a.CurrentPlan = v
	}
	if v, ok := fields["monthlySubscriptionPrice"].(float64); ok {
		a.MonthlySubscriptionPrice = v
	}
	if v, ok := fields["subscriptionStatus"].(string); ok {
		a.SubscriptionStatus = v
	}
	if v, ok := fields["stripeCustomerId"].(string); ok {
		a.StripeCustomerID = v
	}
	if v, ok := fields["stripeSubscriptionId"].(string); ok {
		a.StripeSubscriptionID = v
	}
	if v, ok := fields["premium.bannerEnabled"].(bool); ok {
		a.Premium.BannerEnabled = v
	}
	if v, ok := fields["premium.badgeEnabled"].(bool); ok {
		a.Premium.BadgeEnabled = v
	}
	return nil
}

func (f *fakeArtisanRepo) AppendAssignedLead(_ context.Context, id string, lead models.AssignedLead) error {
	a, ok := f.artisans[id]
	if !ok {
		return fmt.Errorf("artisan '%s': %w", id, db.ErrNotFound)
	}
	for _, l := range a.AssignedLeads {
		if l.EstimationID == lead.EstimationID {
			return nil
		}
	}
	a.AssignedLeads = append(a.AssignedLeads, lead)
	a.LeadCountThisMonth++
	a.TotalLeads++
	return nil
}

func (f *fakeArtisanRepo) RemoveAssignedLead(_ context.Context, id, estimationID string) error {
	a, ok := f.artisans[id]
	if !ok {
		return fmt.Errorf("artisan '%s': %w", id, db.ErrNotFound)
	}
	kept := a.AssignedLeads[:0:0]
	for _, l := range a.AssignedLeads {
		if l.EstimationID != estimationID {
			kept = append(kept, l)
		}
	}
	a.AssignedLeads = kept
	return nil
}

type fakeEstimationRepo struct {
	estimations   map[string]*models.Estimation
	updatedFields []map[string]interface{}
}

func newFakeEstimationRepo() *fakeEstimationRepo {
	return &fakeEstimationRepo{estimations: map[string]*models.Estimation{}}
}

func (f *fakeEstimationRepo) Create(_ context.Context, e *models.Estimation) (string, error) {
	if e.ID == "" {
		e.ID = fmt.Sprintf("estimation-%d", len(f.estimations)+1)
	}
	f.estimations[e.ID] = e
	return e.ID, nil
}

func (f *fakeEstimationRepo) GetByID(_ context.Context, id string) (*models.Estimation, error) {
	e, ok := f.estimations[id]
	if !ok {
		return nil, fmt.Errorf("estimation '%s': %w", id, db.ErrNotFound)
	}
	return e, nil
}

func (f *fakeEstimationRepo) AppendAssignment(_ context.Context, id string, assignment models.Assignment) (bool, error) {
	e, ok := f.estimations[id]
	if !ok {
		return false, fmt.Errorf("estimation '%s': %w", id, db.ErrNotFound)
	}
	for _, a := range e.Assignments {
		if a.ArtisanID == assignment.ArtisanID {
			return false, nil
		}
	}
	e.Assignments = append(e.Assignments, assignment)
	return true, nil
}

func (f *fakeEstimationRepo) RemoveAssignment(_ context.Context, id, artisanID string) (bool, error) {
	e, ok := f.estimations[id]
	if !ok {
		return false, fmt.Errorf("estimation '%s': %w", id, db.ErrNotFound)
	}
	kept := e.Assignments[:0:0]
	removed := false
	for _, a := range e.Assignments {
		if a.ArtisanID == artisanID {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	e.Assignments = kept
	return removed, nil
}

func (f *fakeEstimationRepo) ReplaceAssignments(_ context.Context, id string, assignments []models.Assignment) error {
	e, ok := f.estimations[id]
	if !ok {
		return fmt.Errorf("estimation '%s': %w", id, db.ErrNotFound)
	}
	e.Assignments = assignments
	return nil
}

func (f *fakeEstimationRepo) AppendMarketplacePurchase(_ context.Context, id string, purchase models.MarketplacePurchase) error {
	e, ok := f.estimations[id]
	if !ok {
		return fmt.Errorf("estimation '%s': %w", id, db.ErrNotFound)
	}
	e.MarketplacePurchases = append(e.MarketplacePurchases, purchase)
	return nil
}

func (f *fakeEstimationRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	e, ok := f.estimations[id]
	if !ok {
		return fmt.Errorf("estimation '%s': %w", id, db.ErrNotFound)
	}
	f.updatedFields = append(f.updatedFields, fields)
	if v, ok := fields["assignedCount"].(int); ok {
		e.AssignedCount = v
	}
	if v, ok := fields["purchaseCount"].(int); ok {
		e.PurchaseCount = v
	}
	if v, ok := fields["totalRevenue"].(float64); ok {
		e.TotalRevenue = v
	}
	return nil
}

func (f *fakeEstimationRepo) SetStatus(_ context.Context, id, status string) error {
	e, ok := f.estimations[id]
	if !ok {
		return fmt.Errorf("estimation '%s': %w", id, db.ErrNotFound)
	}
	e.Status = status
	return nil
}

func (f *fakeEstimationRepo) SetPublished(_ context.Context, id string, published bool) error {
	e, ok := f.estimations[id]
	if !ok {
		return fmt.Errorf("estimation '%s': %w", id, db.ErrNotFound)
	}
	e.IsPublished = published
	return nil
}

type fakeSubscriptionRepo struct {
	subscriptions map[string]*models.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subscriptions: map[string]*models.Subscription{}}
}

func (f *fakeSubscriptionRepo) Set(_ context.Context, s *models.Subscription) error {
	f.subscriptions[s.ID] = s
	return nil
}

func (f *fakeSubscriptionRepo) GetByID(_ context.Context, id string) (*models.Subscription, error) {
	s, ok := f.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("subscription '%s': %w", id, db.ErrNotFound)
	}
	return s, nil
}

func (f *fakeSubscriptionRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	if _, ok := f.subscriptions[id]; !ok {
		return fmt.Errorf("subscription '%s': %w", id, db.ErrNotFound)
	}
	return nil
}

type fakeReviewRepo struct {
	reviews map[string]map[string]*models.Review // artisanID -> reviewID -> review
	nextID  int
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[string]map[string]*models.Review{}}
}

func (f *fakeReviewRepo) Create(_ context.Context, artisanID string, r *models.Review) (string, error) {
	if f.reviews[artisanID] == nil {
		f.reviews[artisanID] = map[string]*models.Review{}
	}
	f.nextID++
	id := fmt.Sprintf("review-%d", f.nextID)
	r.ID = id
	f.reviews[artisanID][id] = r
	return id, nil
}

func (f *fakeReviewRepo) GetByID(_ context.Context, artisanID, reviewID string) (*models.Review, error) {
	r, ok := f.reviews[artisanID][reviewID]
	if !ok {
		return nil, fmt.Errorf("review '%s': %w", reviewID, db.ErrNotFound)
	}
	return r, nil
}

func (f *fakeReviewRepo) ListByArtisan(_ context.Context, artisanID string) ([]*models.Review, error) {
	var out []*models.Review
	for _, r := range f.reviews[artisanID] {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReviewRepo) Update(_ context.Context, artisanID string, r *models.Review) error {
	if _, ok := f.reviews[artisanID][r.ID]; !ok {
		return fmt.Errorf("review '%s': %w", r.ID, db.ErrNotFound)
	}
	f.reviews[artisanID][r.ID] = r
	return nil
}

func (f *fakeReviewRepo) Delete(_ context.Context, artisanID, reviewID string) error {
	delete(f.reviews[artisanID], reviewID)
	return nil
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user '%s': %w", id, db.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUserRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	if _, ok := f.users[id]; !ok {
		return fmt.Errorf("user '%s': %w", id, db.ErrNotFound)
	}
	return nil
}

type fakeIdentityClient struct {
	usersByEmail map[string]*IdentityUser
	nextUID      int
	failCreate   error
}

func newFakeIdentityClient() *fakeIdentityClient {
	return &fakeIdentityClient{usersByEmail: map[string]*IdentityUser{}}
}

func (f *fakeIdentityClient) CreateUser(_ context.Context, email, password, displayName string) (*IdentityUser, error) {
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	f.nextUID++
	u := &IdentityUser{UID: fmt.Sprintf("uid-%d", f.nextUID), Email: email, DisplayName: displayName}
	f.usersByEmail[email] = u
	return u, nil
}

func (f *fakeIdentityClient) GetUserByEmail(_ context.Context, email string) (*IdentityUser, error) {
	u, ok := f.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("email '%s': %w", email, ErrIdentityUserNotFound)
	}
	return u, nil
}

type fakePaymentClient struct {
	nextID        int
	customers     []string
	subscriptions map[string]*PaymentSubscription
	invoices      []string
	priceAmounts  map[string]int64 // priceID -> cents

	failCreateSubscription error
}

func newFakePaymentClient() *fakePaymentClient {
	return &fakePaymentClient{
		subscriptions: map[string]*PaymentSubscription{},
		priceAmounts:  map[string]int64{},
	}
}

func (f *fakePaymentClient) CreateCustomer(_ context.Context, email, name string, metadata map[string]string) (string, error) {
	f.nextID++
	id := fmt.Sprintf("cus_%d", f.nextID)
	f.customers = append(f.customers, id)
	return id, nil
}

func (f *fakePaymentClient) EnsureMonthlyPrice(_ context.Context, productName string, amountCents int64) (string, error) {
	id := fmt.Sprintf("price_%d", amountCents)
	f.priceAmounts[id] = amountCents
	return id, nil
}

func (f *fakePaymentClient) CreateSubscription(_ context.Context, customerID, priceID string) (*PaymentSubscription, error) {
	if f.failCreateSubscription != nil {
		return nil, f.failCreateSubscription
	}
	f.nextID++
	now := time.Now()
	sub := &PaymentSubscription{
		ID:                 fmt.Sprintf("sub_%d", f.nextID),
		CustomerID:         customerID,
		Status:             models.SubStatusActive,
		ItemID:             fmt.Sprintf("si_%d", f.nextID),
		PriceID:            priceID,
		UnitAmountCents:    f.priceAmounts[priceID],
		CurrentPeriodStart: now.Unix(),
		CurrentPeriodEnd:   now.Add(30 * 24 * time.Hour).Unix(),
	}
	f.subscriptions[sub.ID] = sub
	return sub, nil
}

func (f *fakePaymentClient) GetSubscription(_ context.Context, subscriptionID string) (*PaymentSubscription, error) {
	sub, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, errors.New("no such subscription: " + subscriptionID)
	}
	return sub, nil
}

func (f *fakePaymentClient) UpdateSubscriptionPrice(_ context.Context, subscriptionID, itemID, newPriceID string, prorate bool) (*PaymentSubscription, error) {
	sub, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, errors.New("no such subscription: " + subscriptionID)
	}
	sub.PriceID = newPriceID
	sub.UnitAmountCents = f.priceAmounts[newPriceID]
	return sub, nil
}

func (f *fakePaymentClient) CreateProratedInvoice(_ context.Context, customerID string) (string, error) {
	f.nextID++
	id := fmt.Sprintf("in_%d", f.nextID)
	f.invoices = append(f.invoices, id)
	return id, nil
}

type fakeMailer struct {
	sent     []string // recipient addresses
	failSend error
}

func (f *fakeMailer) SendWelcomeEmail(_ context.Context, recipient, firstName, loginEmail, password string) error {
	if f.failSend != nil {
		return f.failSend
	}
	f.sent = append(f.sent, recipient)
	return nil
}

type fakePublisher struct {
	published []string // routing keys
}

func (f *fakePublisher) Publish(_ context.Context, routingKey string, payload interface{}) error {
	f.published = append(f.published, routingKey)
	return nil
}

type fakeCache struct {
	deleted []string
}

func (f *fakeCache) Get(key string) (string, error) { return "", nil }

func (f *fakeCache) Set(key string, value interface{}, expiration time.Duration) error { return nil }

func (f *fakeCache) Delete(key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}
