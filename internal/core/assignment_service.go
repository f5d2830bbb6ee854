package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/db"
	"renoleads-backend-go/internal/events"
	"renoleads-backend-go/internal/models"
)

// Custom errors for the AssignmentService
var (
	ErrEstimationNotFound = errors.New("estimation not found")
	ErrArtisanNotFound    = errors.New("artisan not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// manualAssignmentPrefix marks synthetic purchase-ledger entries created by
// an admin-set assignment price, so revenue reporting treats them like
// self-service purchases.
const manualAssignmentPrefix = "manual-assignment-"

// assignmentService implements the AssignmentService interface.
type assignmentService struct {
	estimationRepo db.EstimationRepository
	artisanRepo    db.ArtisanRepository
	publisher      EventPublisher
	logger         *zap.Logger
}

// NewAssignmentService creates a new AssignmentService instance.
func NewAssignmentService(er db.EstimationRepository, ar db.ArtisanRepository, pub EventPublisher, logger *zap.Logger) AssignmentService {
	return &assignmentService{
		estimationRepo: er,
		artisanRepo:    ar,
		publisher:      pub,
		logger:         logger,
	}
}

// AssignArtisan attaches an artisan to an estimation. Re-assigning the same
// artisan is a no-op. The assignment write is the primary write; the artisan
// back-reference and the counter sync are best-effort afterwards.
func (s *assignmentService) AssignArtisan(ctx context.Context, estimationID, artisanID string) ([]models.Assignment, error) {
	artisan, err := s.artisanRepo.GetByID(ctx, artisanID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrArtisanNotFound, artisanID)
		}
		return nil, err
	}

	assignment := models.Assignment{
		ArtisanID:      artisanID,
		ArtisanName:    artisan.FirstName + " " + artisan.LastName,
		ArtisanCompany: artisan.CompanyName,
		AssignedAt:     time.Now().UTC(),
	}
	added, err := s.estimationRepo.AppendAssignment(ctx, estimationID, assignment)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrEstimationNotFound, estimationID)
		}
		return nil, err
	}

	if added {
		if err := s.artisanRepo.AppendAssignedLead(ctx, artisanID, models.AssignedLead{
			EstimationID: estimationID,
			AssignedAt:   assignment.AssignedAt,
		}); err != nil {
			s.logger.Warn("Failed to append assignedLeads back-reference",
				zap.String("estimationId", estimationID), zap.String("artisanId", artisanID), zap.Error(err))
		}
		s.syncCounters(ctx, estimationID)
		s.publish(ctx, events.LeadAssigned, map[string]string{
			"estimationId": estimationID,
			"artisanId":    artisanID,
		})
	}

	return s.currentAssignments(ctx, estimationID)
}

// RemoveAssignment detaches an artisan from an estimation. Removing an
// artisan that is not assigned is a no-op.
func (s *assignmentService) RemoveAssignment(ctx context.Context, estimationID, artisanID string) ([]models.Assignment, error) {
	removed, err := s.estimationRepo.RemoveAssignment(ctx, estimationID, artisanID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrEstimationNotFound, estimationID)
		}
		return nil, err
	}

	if removed {
		if err := s.artisanRepo.RemoveAssignedLead(ctx, artisanID, estimationID); err != nil {
			s.logger.Warn("Failed to remove assignedLeads back-reference",
				zap.String("estimationId", estimationID), zap.String("artisanId", artisanID), zap.Error(err))
		}
		s.syncCounters(ctx, estimationID)
		s.publish(ctx, events.LeadUnassigned, map[string]string{
			"estimationId": estimationID,
			"artisanId":    artisanID,
		})
	}

	return s.currentAssignments(ctx, estimationID)
}

// UpdateAssignmentPrice sets the admin price on an existing assignment and,
// for a non-negative price, records a synthetic marketplace purchase so
// revenue counters reflect admin-set prices like self-service purchases.
func (s *assignmentService) UpdateAssignmentPrice(ctx context.Context, estimationID, artisanID string, price float64) ([]models.Assignment, error) {
	estimation, err := s.estimationRepo.GetByID(ctx, estimationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrEstimationNotFound, estimationID)
		}
		return nil, err
	}
	if _, ok := estimation.AssignmentFor(artisanID); !ok {
		return nil, fmt.Errorf("%w: artisan '%s' on estimation '%s'", ErrAssignmentNotFound, artisanID, estimationID)
	}

	updated := make([]models.Assignment, len(estimation.Assignments))
	copy(updated, estimation.Assignments)
	for i := range updated {
		if updated[i].ArtisanID == artisanID {
			updated[i].Price = price
		}
	}
	if err := s.estimationRepo.ReplaceAssignments(ctx, estimationID, updated); err != nil {
		return nil, err
	}

	if price >= 0 {
		purchase := models.MarketplacePurchase{
			PurchaseID:  manualAssignmentPrefix + uuid.NewString(),
			ArtisanID:   artisanID,
			Price:       price,
			PurchasedAt: time.Now().UTC(),
		}
		if err := s.estimationRepo.AppendMarketplacePurchase(ctx, estimationID, purchase); err != nil {
			s.logger.Warn("Failed to record manual-assignment purchase entry",
				zap.String("estimationId", estimationID), zap.String("artisanId", artisanID), zap.Error(err))
		}
	}

	s.syncCounters(ctx, estimationID)
	s.publish(ctx, events.LeadPriced, map[string]interface{}{
		"estimationId": estimationID,
		"artisanId":    artisanID,
		"price":        price,
	})

	return updated, nil
}

// ResolveArtisanID resolves a session to an artisan document ID. The
// verified auth UID wins when an artisan document is keyed by it; the
// caller-supplied hint and an email lookup are fallbacks for legacy
// documents.
func (s *assignmentService) ResolveArtisanID(ctx context.Context, hint, email, uid string) (string, error) {
	if uid != "" {
		if _, err := s.artisanRepo.GetByID(ctx, uid); err == nil {
			if hint != "" && hint != uid {
				s.logger.Warn("Artisan ID hint disagrees with auth UID, using UID",
					zap.String("hint", hint), zap.String("uid", uid))
			}
			return uid, nil
		} else if !errors.Is(err, db.ErrNotFound) {
			return "", err
		}
	}

	if hint != "" {
		if _, err := s.artisanRepo.GetByID(ctx, hint); err == nil {
			return hint, nil
		} else if !errors.Is(err, db.ErrNotFound) {
			return "", err
		}
	}

	if email != "" {
		artisan, err := s.artisanRepo.GetByEmail(ctx, email)
		if err == nil {
			return artisan.ID, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: no artisan for uid '%s'", ErrArtisanNotFound, uid)
}

// syncCounters recomputes assignedCount, purchaseCount and totalRevenue
// from the authoritative lists and writes only those field paths, so
// isPublished can never change as a side effect. Failures are logged and
// swallowed: the primary write already committed.
func (s *assignmentService) syncCounters(ctx context.Context, estimationID string) {
	estimation, err := s.estimationRepo.GetByID(ctx, estimationID)
	if err != nil {
		s.logger.Warn("Counter sync: failed to reload estimation",
			zap.String("estimationId", estimationID), zap.Error(err))
		return
	}

	totalRevenue := 0.0
	for _, p := range estimation.MarketplacePurchases {
		totalRevenue += p.Price
	}
	fields := map[string]interface{}{
		"assignedCount": len(estimation.Assignments),
		"purchaseCount": len(estimation.MarketplacePurchases),
		"totalRevenue":  totalRevenue,
	}
	if err := s.estimationRepo.UpdateFields(ctx, estimationID, fields); err != nil {
		s.logger.Warn("Counter sync: failed to write counters",
			zap.String("estimationId", estimationID), zap.Error(err))
	}
}

func (s *assignmentService) publish(ctx context.Context, routingKey string, payload interface{}) {
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish distribution event",
			zap.String("routingKey", routingKey), zap.Error(err))
	}
}

func (s *assignmentService) currentAssignments(ctx context.Context, estimationID string) ([]models.Assignment, error) {
	estimation, err := s.estimationRepo.GetByID(ctx, estimationID)
	if err != nil {
		return nil, err
	}
	return estimation.Assignments, nil
}
