package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/models"
)

type assignmentFixture struct {
	estimations *fakeEstimationRepo
	artisans    *fakeArtisanRepo
	publisher   *fakePublisher
	service     AssignmentService
}

func newAssignmentFixture() *assignmentFixture {
	fx := &assignmentFixture{
		estimations: newFakeEstimationRepo(),
		artisans:    newFakeArtisanRepo(),
		publisher:   &fakePublisher{},
	}
	fx.service = NewAssignmentService(fx.estimations, fx.artisans, fx.publisher, zap.NewNop())
	return fx
}

func seedDistribution(fx *assignmentFixture) {
	fx.estimations.estimations["e1"] = &models.Estimation{
		ID:          "e1",
		Status:      models.EstimationCompleted,
		IsPublished: true,
	}
	fx.artisans.artisans["a1"] = &models.Artisan{
		ID:        "a1",
		FirstName: "Marc",
		LastName:  "Petit",
	}
}

func TestAssignArtisan_AddsAssignmentAndBackReference(t *testing.T) {
	fx := newAssignmentFixture()
	seedDistribution(fx)

	assignments, err := fx.service.AssignArtisan(context.Background(), "e1", "a1")
	assert.NoError(t, err)
	assert.Len(t, assignments, 1)
	assert.Equal(t, "a1", assignments[0].ArtisanID)
	assert.Equal(t, "Marc Petit", assignments[0].ArtisanName)

	artisan := fx.artisans.artisans["a1"]
	assert.Len(t, artisan.AssignedLeads, 1)
	assert.Equal(t, "e1", artisan.AssignedLeads[0].EstimationID)
	assert.Equal(t, 1, artisan.LeadCountThisMonth)
	assert.Equal(t, 1, artisan.TotalLeads)

	assert.Equal(t, 1, fx.estimations.estimations["e1"].AssignedCount)
	assert.Contains(t, fx.publisher.published, "lead.assigned")
}

func TestAssignArtisan_IsSetLike(t *testing.T) {
	fx := newAssignmentFixture()
	seedDistribution(fx)

	_, err := fx.service.AssignArtisan(context.Background(), "e1", "a1")
	assert.NoError(t, err)
	assignments, err := fx.service.AssignArtisan(context.Background(), "e1", "a1")
	assert.NoError(t, err)

	// Re-assigning the same artisan does not duplicate anything.
	assert.Len(t, assignments, 1)
	assert.Len(t, fx.artisans.artisans["a1"].AssignedLeads, 1)
	assert.Equal(t, 1, fx.artisans.artisans["a1"].TotalLeads)
	assert.Equal(t, 1, fx.estimations.estimations["e1"].AssignedCount)
}

func TestAssignArtisan_UnknownArtisan(t *testing.T) {
	fx := newAssignmentFixture()
	seedDistribution(fx)

	_, err := fx.service.AssignArtisan(context.Background(), "e1", "ghost")
	assert.ErrorIs(t, err, ErrArtisanNotFound)
}

func TestRemoveAssignment_RemovesBothSides(t *testing.T) {
	fx := newAssignmentFixture()
	seedDistribution(fx)

	_, err := fx.service.AssignArtisan(context.Background(), "e1", "a1")
	assert.NoError(t, err)

	assignments, err := fx.service.RemoveAssignment(context.Background(), "e1", "a1")
	assert.NoError(t, err)
	assert.Empty(t, assignments)
	assert.Empty(t, fx.artisans.artisans["a1"].AssignedLeads)
	assert.Equal(t, 0, fx.estimations.estimations["e1"].AssignedCount)
	assert.Contains(t, fx.publisher.published, "lead.unassigned")
}

func TestRemoveAssignment_AbsentArtisanIsNoOp(t *testing.T) {
	fx := newAssignmentFixture()
	seedDistribution(fx)

	assignments, err := fx.service.RemoveAssignment(context.Background(), "e1", "a1")
	assert.NoError(t, err)
	assert.Empty(t, assignments)
	assert.NotContains(t, fx.publisher.published, "lead.unassigned")
}

func TestUpdateAssignmentPrice_SyncsLedger(t *testing.T) {
	fx := newAssignmentFixture()
	seedDistribution(fx)

	_, err := fx.service.AssignArtisan(context.Background(), "e1", "a1")
	assert.NoError(t, err)

	assignments, err := fx.service.UpdateAssignmentPrice(context.Background(), "e1", "a1", 120)
	assert.NoError(t, err)
	assert.Equal(t, 120.0, assignments[0].Price)

	// A synthetic purchase entry carries the admin-set price so revenue
	// reporting matches self-service purchases.
	estimation := fx.estimations.estimations["e1"]
	assert.Len(t, estimation.MarketplacePurchases, 1)
	purchase := estimation.MarketplacePurchases[0]
	assert.True(t, strings.HasPrefix(purchase.PurchaseID, "manual-assignment-"))
	assert.Equal(t, "a1", purchase.ArtisanID)
	assert.Equal(t, 120.0, purchase.Price)

	assert.Equal(t, 1, estimation.PurchaseCount)
	assert.Equal(t, 120.0, estimation.TotalRevenue)
	assert.Contains(t, fx.publisher.published, "lead.priced")
}

func TestUpdateAssignmentPrice_UnassignedArtisan(t *testing.T) {
	fx := newAssignmentFixture()
	seedDistribution(fx)

	_, err := fx.service.UpdateAssignmentPrice(context.Background(), "e1", "a1", 120)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestDistribution_NeverTouchesIsPublished(t *testing.T) {
	fx := newAssignmentFixture()
	seedDistribution(fx)

	_, err := fx.service.AssignArtisan(context.Background(), "e1", "a1")
	assert.NoError(t, err)
	_, err = fx.service.UpdateAssignmentPrice(context.Background(), "e1", "a1", 85)
	assert.NoError(t, err)
	_, err = fx.service.RemoveAssignment(context.Background(), "e1", "a1")
	assert.NoError(t, err)

	// Visibility survived the full assign/price/remove sequence, and no
	// field update ever named isPublished.
	assert.True(t, fx.estimations.estimations["e1"].IsPublished)
	for _, fields := range fx.estimations.updatedFields {
		_, touched := fields["isPublished"]
		assert.False(t, touched, "counter sync must not write isPublished")
	}
}

func TestResolveArtisanID_UIDIsAuthoritative(t *testing.T) {
	fx := newAssignmentFixture()
	fx.artisans.artisans["uid-1"] = &models.Artisan{ID: "uid-1", Email: "a@example.fr"}
	fx.artisans.artisans["legacy-1"] = &models.Artisan{ID: "legacy-1", Email: "b@example.fr"}

	id, err := fx.service.ResolveArtisanID(context.Background(), "legacy-1", "a@example.fr", "uid-1")
	assert.NoError(t, err)
	assert.Equal(t, "uid-1", id)
}

func TestResolveArtisanID_FallsBackToHintThenEmail(t *testing.T) {
	fx := newAssignmentFixture()
	fx.artisans.artisans["legacy-1"] = &models.Artisan{ID: "legacy-1", Email: "b@example.fr"}

	// No uid-keyed document: the hint wins.
	id, err := fx.service.ResolveArtisanID(context.Background(), "legacy-1", "b@example.fr", "uid-missing")
	assert.NoError(t, err)
	assert.Equal(t, "legacy-1", id)

	// No hint either: email lookup.
	id, err = fx.service.ResolveArtisanID(context.Background(), "", "b@example.fr", "uid-missing")
	assert.NoError(t, err)
	assert.Equal(t, "legacy-1", id)

	// Nothing matches.
	_, err = fx.service.ResolveArtisanID(context.Background(), "", "nobody@example.fr", "uid-missing")
	assert.ErrorIs(t, err, ErrArtisanNotFound)
}
