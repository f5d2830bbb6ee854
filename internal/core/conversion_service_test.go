package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/models"
)

type conversionFixture struct {
	prospects *fakeProspectRepo
	artisans  *fakeArtisanRepo
	users     *fakeUserRepo
	subs      *fakeSubscriptionRepo
	identity  *fakeIdentityClient
	payments  *fakePaymentClient
	mailer    *fakeMailer
	publisher *fakePublisher
	service   ConversionService
}

func newConversionFixture() *conversionFixture {
	fx := &conversionFixture{
		prospects: newFakeProspectRepo(),
		artisans:  newFakeArtisanRepo(),
		users:     newFakeUserRepo(),
		subs:      newFakeSubscriptionRepo(),
		identity:  newFakeIdentityClient(),
		payments:  newFakePaymentClient(),
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
	}
	fx.service = NewConversionService(
		fx.prospects, fx.artisans, fx.users, fx.subs,
		fx.identity, fx.payments, fx.mailer, fx.publisher,
		zap.NewNop(),
	)
	return fx
}

func seedProspect(fx *conversionFixture, id string) {
	fx.prospects.prospects[id] = &models.Prospect{
		ID:         id,
		FirstName:  "Jean",
		LastName:   "Dupont",
		Email:      "jean.dupont@example.fr",
		FunnelStep: models.FunnelCompleted,
	}
}

func convertRequest() models.ConvertProspectRequest {
	return models.ConvertProspectRequest{
		FirstName:  "Jean",
		LastName:   "Dupont",
		Email:      "jean.dupont@example.fr",
		Profession: "plomberie",
		City:       "Lyon",
		PostalCode: "69003",
	}
}

func TestConvertProspect_Success(t *testing.T) {
	fx := newConversionFixture()
	seedProspect(fx, "p1")

	resp, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.AlreadyExists)
	assert.NotEmpty(t, resp.ArtisanID)

	// Artisan, user and subscription mirror all exist.
	artisan, err := fx.artisans.GetByID(context.Background(), resp.ArtisanID)
	assert.NoError(t, err)
	assert.Equal(t, PlanEssentiel, artisan.CurrentPlan)
	assert.Equal(t, 49.0, artisan.MonthlySubscriptionPrice)
	assert.Equal(t, []string{"plomberie"}, artisan.Professions)
	assert.NotEmpty(t, artisan.StripeCustomerID)
	assert.NotEmpty(t, artisan.StripeSubscriptionID)

	user, err := fx.users.GetByID(context.Background(), resp.ArtisanID)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleArtisan, user.Role)

	assert.Len(t, fx.subs.subscriptions, 1)

	// The prospect is gone: finalized, not released.
	assert.Equal(t, resp.ArtisanID, fx.prospects.finalized["p1"])
	assert.Empty(t, fx.prospects.released)

	// Welcome email and event went out.
	assert.Equal(t, []string{"jean.dupont@example.fr"}, fx.mailer.sent)
	assert.Contains(t, fx.publisher.published, "artisan.converted")
}

func TestConvertProspect_SecondCallIsIdempotent(t *testing.T) {
	fx := newConversionFixture()
	seedProspect(fx, "p1")

	first, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.NoError(t, err)
	assert.NotEmpty(t, first.ArtisanID)

	// The prospect document is deleted by finalize; a duplicate request
	// must come back as success with alreadyExists.
	second, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.AlreadyExists)

	// No second artisan was provisioned.
	assert.Len(t, fx.artisans.artisans, 1)
}

func TestConvertProspect_FreshLeaseRefusesSecondClaim(t *testing.T) {
	fx := newConversionFixture()
	seedProspect(fx, "p1")
	fx.prospects.prospects["p1"].Processing = true
	fx.prospects.prospects["p1"].ProcessingOwner = "other-owner"
	fx.prospects.prospects["p1"].ProcessingStartedAt = time.Now().UTC().Add(-1 * time.Minute)

	resp, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.AlreadyExists)
	assert.Empty(t, fx.artisans.artisans)
}

func TestConvertProspect_StaleLeaseIsReclaimed(t *testing.T) {
	fx := newConversionFixture()
	seedProspect(fx, "p1")
	// A conversion crashed 20 minutes ago without cleanup.
	fx.prospects.prospects["p1"].Processing = true
	fx.prospects.prospects["p1"].ProcessingOwner = "crashed-owner"
	fx.prospects.prospects["p1"].ProcessingStartedAt = time.Now().UTC().Add(-20 * time.Minute)

	resp, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.NoError(t, err)
	assert.False(t, resp.AlreadyExists)
	assert.NotEmpty(t, resp.ArtisanID)
}

func TestConvertProspect_MissingFields(t *testing.T) {
	fx := newConversionFixture()
	seedProspect(fx, "p1")

	req := convertRequest()
	req.Profession = ""
	_, err := fx.service.ConvertProspect(context.Background(), "p1", req)
	assert.ErrorIs(t, err, ErrMissingRequiredFields)
}

func TestConvertProspect_ProvisioningFailureReleasesLease(t *testing.T) {
	fx := newConversionFixture()
	seedProspect(fx, "p1")
	fx.payments.failCreateSubscription = errors.New("stripe is down")

	_, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.ErrorIs(t, err, ErrConversionFailed)

	// The lease was released with the failure reason so a retry can run.
	reason, released := fx.prospects.released["p1"]
	assert.True(t, released)
	assert.Contains(t, reason, "stripe is down")
	assert.False(t, fx.prospects.prospects["p1"].Processing)

	// A retry after the failure succeeds.
	fx.payments.failCreateSubscription = nil
	resp, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.ArtisanID)
}

func TestConvertProspect_ExistingAccountWithArtisanShortCircuits(t *testing.T) {
	fx := newConversionFixture()
	seedProspect(fx, "p1")
	fx.identity.usersByEmail["jean.dupont@example.fr"] = &IdentityUser{UID: "uid-existing", Email: "jean.dupont@example.fr"}
	fx.artisans.artisans["uid-existing"] = &models.Artisan{ID: "uid-existing", Email: "jean.dupont@example.fr"}

	resp, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.NoError(t, err)
	assert.True(t, resp.AlreadyExists)
	assert.Equal(t, "uid-existing", resp.ArtisanID)

	// Nothing new was provisioned and the lease was released.
	assert.Empty(t, fx.payments.customers)
	assert.NotEmpty(t, fx.prospects.released["p1"])
}

func TestConvertProspect_ExistingAccountWithoutArtisanReusesUID(t *testing.T) {
	fx := newConversionFixture()
	seedProspect(fx, "p1")
	// An earlier partial failure left an auth account but no artisan doc.
	fx.identity.usersByEmail["jean.dupont@example.fr"] = &IdentityUser{UID: "uid-orphan", Email: "jean.dupont@example.fr"}

	resp, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.NoError(t, err)
	assert.False(t, resp.AlreadyExists)
	assert.Equal(t, "uid-orphan", resp.ArtisanID)
}

func TestConvertProspect_EmailFailureDoesNotFailConversion(t *testing.T) {
	fx := newConversionFixture()
	seedProspect(fx, "p1")
	fx.mailer.failSend = errors.New("smtp timeout")

	resp, err := fx.service.ConvertProspect(context.Background(), "p1", convertRequest())
	assert.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, fx.prospects.finalized["p1"])
}

func TestMakeSlug(t *testing.T) {
	at := time.Unix(1700000000, 0)
	slug := makeSlug("Jérôme", "Lefèvre", "électricité", at)
	assert.Equal(t, "jerome-lefevre-electricite-1700000000", slug)
}

func TestGeneratePassword(t *testing.T) {
	p1, err := generatePassword(16)
	assert.NoError(t, err)
	assert.Len(t, p1, 16)

	p2, err := generatePassword(16)
	assert.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}
