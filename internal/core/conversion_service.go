package core

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/db"
	"renoleads-backend-go/internal/events"
	"renoleads-backend-go/internal/models"
)

// Custom errors for the ConversionService
var (
	ErrProspectNotFound      = errors.New("prospect not found")
	ErrMissingRequiredFields = errors.New("missing required fields for conversion")
	ErrConversionFailed      = errors.New("prospect conversion failed")
)

// conversionLeaseMaxAge bounds how long a conversion may hold the prospect
// lease. A lease older than this belongs to a crashed holder and is
// forcibly reclaimed by the next claim.
const conversionLeaseMaxAge = 15 * time.Minute

const generatedPasswordLength = 16

// conversionService implements the ConversionService interface.
type conversionService struct {
	prospectRepo     db.ProspectRepository
	artisanRepo      db.ArtisanRepository
	userRepo         db.UserRepository
	subscriptionRepo db.SubscriptionRepository
	identity         IdentityClient
	payments         PaymentClient
	mailer           Mailer
	publisher        EventPublisher
	logger           *zap.Logger
}

// NewConversionService creates a new ConversionService instance.
func NewConversionService(
	pr db.ProspectRepository,
	ar db.ArtisanRepository,
	ur db.UserRepository,
	sr db.SubscriptionRepository,
	idc IdentityClient,
	pay PaymentClient,
	m Mailer,
	pub EventPublisher,
	logger *zap.Logger,
) ConversionService {
	return &conversionService{
		prospectRepo:     pr,
		artisanRepo:      ar,
		userRepo:         ur,
		subscriptionRepo: sr,
		identity:         idc,
		payments:         pay,
		mailer:           m,
		publisher:        pub,
		logger:           logger,
	}
}

// ConvertProspect converts a funnel prospect into a billable artisan
// account exactly once, even under concurrent duplicate requests. The
// claim and finalize steps run in document-store transactions; everything
// between them is best-effort with lease release on failure.
func (s *conversionService) ConvertProspect(ctx context.Context, prospectID string, req models.ConvertProspectRequest) (*models.ConvertProspectResponse, error) {
	if prospectID == "" {
		return nil, fmt.Errorf("%w: prospectId", ErrMissingRequiredFields)
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Profession == "" {
		return nil, fmt.Errorf("%w: firstName, lastName, email and profession are required", ErrMissingRequiredFields)
	}

	// Step 1 — claim. Exactly one concurrent caller wins the lease; the
	// others short-circuit to an idempotent success.
	ownerToken := uuid.NewString()
	claim, err := s.prospectRepo.Claim(ctx, prospectID, ownerToken, conversionLeaseMaxAge)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: prospect '%s'", ErrProspectNotFound, prospectID)
		}
		return nil, fmt.Errorf("%w: claim: %v", ErrConversionFailed, err)
	}
	if claim.AlreadyConverted {
		return &models.ConvertProspectResponse{Success: true, AlreadyExists: true, ArtisanID: claim.ArtisanID}, nil
	}
	if !claim.Claimed {
		artisanID := ""
		if claim.Prospect != nil {
			artisanID = claim.Prospect.ConvertedArtisanID
		}
		s.logger.Info("Conversion already in flight for prospect, returning idempotent success",
			zap.String("prospectId", prospectID))
		return &models.ConvertProspectResponse{Success: true, AlreadyExists: true, ArtisanID: artisanID}, nil
	}

	resp, err := s.provisionAndFinalize(ctx, prospectID, req)
	if err != nil {
		// Compensate: release the lease so a future retry is not blocked,
		// recording why this attempt failed.
		if relErr := s.prospectRepo.Release(ctx, prospectID, err.Error()); relErr != nil {
			s.logger.Error("Failed to release prospect lease after conversion failure",
				zap.String("prospectId", prospectID), zap.Error(relErr))
		}
		return nil, err
	}
	return resp, nil
}

// provisionAndFinalize runs steps 2–5 of the workflow after a won claim.
func (s *conversionService) provisionAndFinalize(ctx context.Context, prospectID string, req models.ConvertProspectRequest) (*models.ConvertProspectResponse, error) {
	displayName := req.FirstName + " " + req.LastName

	// Step 2 — dedup check against the identity provider.
	uid := ""
	existing, err := s.identity.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if _, artErr := s.artisanRepo.GetByID(ctx, existing.UID); artErr == nil {
			// Account and artisan document both exist: nothing to create.
			if recErr := s.prospectRepo.RecordArtisan(ctx, prospectID, existing.UID); recErr != nil {
				s.logger.Warn("Failed to record existing artisan on prospect",
					zap.String("prospectId", prospectID), zap.Error(recErr))
			}
			if relErr := s.prospectRepo.Release(ctx, prospectID, "email already linked to artisan "+existing.UID); relErr != nil {
				s.logger.Warn("Failed to release prospect lease after dedup short-circuit",
					zap.String("prospectId", prospectID), zap.Error(relErr))
			}
			return &models.ConvertProspectResponse{Success: true, AlreadyExists: true, ArtisanID: existing.UID}, nil
		}
		// Account exists without an artisan document (earlier partial
		// failure): reuse the UID instead of failing on duplicate email.
		uid = existing.UID
	case errors.Is(err, ErrIdentityUserNotFound):
		// Normal path: fresh account below.
	default:
		return nil, fmt.Errorf("%w: identity lookup: %v", ErrConversionFailed, err)
	}

	// Step 3 — provisioning.
	password, err := generatePassword(generatedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("%w: password generation: %v", ErrConversionFailed, err)
	}

	if uid == "" {
		account, err := s.identity.CreateUser(ctx, req.Email, password, displayName)
		if err != nil {
			return nil, fmt.Errorf("%w: account creation: %v", ErrConversionFailed, err)
		}
		uid = account.UID
	}

	customerID, err := s.payments.CreateCustomer(ctx, req.Email, displayName, map[string]string{
		"artisanId":  uid,
		"prospectId": prospectID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: customer creation: %v", ErrConversionFailed, err)
	}

	priceID, err := s.payments.EnsureMonthlyPrice(ctx, stripeProductName, planAmountCents(PlanEssentiel))
	if err != nil {
		return nil, fmt.Errorf("%w: price setup: %v", ErrConversionFailed, err)
	}

	paySub, err := s.payments.CreateSubscription(ctx, customerID, priceID)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription creation: %v", ErrConversionFailed, err)
	}

	now := time.Now().UTC()
	monthlyPrice, _ := PlanPrice(PlanEssentiel)

	user := &models.User{
		ID:               uid,
		Email:            req.Email,
		DisplayName:      displayName,
		Role:             models.RoleArtisan,
		StripeCustomerID: customerID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: user document: %v", ErrConversionFailed, err)
	}

	artisan := &models.Artisan{
		ID:                       uid,
		FirstName:                req.FirstName,
		LastName:                 req.LastName,
		CompanyName:              req.CompanyName,
		Email:                    req.Email,
		Phone:                    req.Phone,
		Slug:                     makeSlug(req.FirstName, req.LastName, req.Profession, now),
		Professions:              []string{req.Profession},
		PostalCode:               req.PostalCode,
		City:                     req.City,
		RadiusKm:                 req.RadiusKm,
		StripeCustomerID:         customerID,
		StripeSubscriptionID:     paySub.ID,
		CurrentPlan:              PlanEssentiel,
		MonthlySubscriptionPrice: monthlyPrice,
		SubscriptionStatus:       models.SubStatusActive,
		CurrentPeriodEnd:         now.Add(30 * 24 * time.Hour),
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.artisanRepo.Create(ctx, artisan); err != nil {
		return nil, fmt.Errorf("%w: artisan document: %v", ErrConversionFailed, err)
	}

	mirror := &models.Subscription{
		ID:                   paySub.ID,
		ArtisanID:            uid,
		Plan:                 PlanEssentiel,
		MonthlyPrice:         monthlyPrice,
		Status:               paySub.Status,
		StripeSubscriptionID: paySub.ID,
		StripePriceID:        priceID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if paySub.CurrentPeriodStart > 0 {
		mirror.CurrentPeriodStart = time.Unix(paySub.CurrentPeriodStart, 0).UTC()
	}
	if paySub.CurrentPeriodEnd > 0 {
		mirror.CurrentPeriodEnd = time.Unix(paySub.CurrentPeriodEnd, 0).UTC()
	}
	if err := s.subscriptionRepo.Set(ctx, mirror); err != nil {
		return nil, fmt.Errorf("%w: subscription document: %v", ErrConversionFailed, err)
	}

	if err := s.prospectRepo.RecordArtisan(ctx, prospectID, uid); err != nil {
		// Non-fatal: finalize below deletes the prospect anyway; this only
		// helps a racing duplicate report the right ID.
		s.logger.Warn("Failed to record artisan on prospect before finalize",
			zap.String("prospectId", prospectID), zap.Error(err))
	}

	// Step 4 — finalize: stamp conversion and delete the prospect, atomically.
	if err := s.prospectRepo.Finalize(ctx, prospectID, uid); err != nil {
		return nil, fmt.Errorf("%w: finalize: %v", ErrConversionFailed, err)
	}

	// Step 5 — notify. Best-effort: data is committed, an email failure
	// must not fail the conversion.
	if err := s.mailer.SendWelcomeEmail(ctx, req.Email, req.FirstName, req.Email, password); err != nil {
		s.logger.Warn("Failed to send welcome email after conversion",
			zap.String("artisanId", uid), zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.ArtisanConverted, map[string]string{
		"artisanId":  uid,
		"prospectId": prospectID,
		"profession": req.Profession,
	}); err != nil {
		s.logger.Warn("Failed to publish artisan.converted event",
			zap.String("artisanId", uid), zap.Error(err))
	}

	return &models.ConvertProspectResponse{Success: true, ArtisanID: uid}, nil
}

const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!#%+"

// generatePassword returns a random password drawn from a fixed alphabet
// with ambiguous characters removed.
func generatePassword(length int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

var slugReplacer = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"à", "a", "â", "a", "ä", "a",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ç", "c", " ", "-", "'", "-",
)

// makeSlug derives a globally-unique URL slug from name, profession and a
// timestamp.
func makeSlug(firstName, lastName, profession string, at time.Time) string {
	raw := strings.ToLower(firstName + "-" + lastName + "-" + profession)
	raw = slugReplacer.Replace(raw)

	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return fmt.Sprintf("%s-%d", strings.Trim(b.String(), "-"), at.Unix())
}
