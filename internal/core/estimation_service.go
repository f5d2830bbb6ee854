package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"renoleads-backend-go/internal/cache"
	"renoleads-backend-go/internal/db"
	"renoleads-backend-go/internal/models"
)

// Custom errors for the EstimationService
var (
	ErrInvalidStatus           = errors.New("invalid estimation status")
	ErrInvalidStatusTransition = errors.New("invalid estimation status transition")
	ErrMissingEstimationFields = errors.New("missing required estimation fields")
)

// simulatorSessionKeyPrefix namespaces simulator sessions in the cache.
const simulatorSessionKeyPrefix = "simulator:session:"

// baseRatePerM2 is the per-prestation base rate in euros per square meter
// used for the medium estimate. Deliberately simple and config-free.
var baseRatePerM2 = map[string]float64{
	"peinture":    35,
	"carrelage":   60,
	"parquet":     55,
	"plomberie":   90,
	"electricite": 85,
	"isolation":   70,
	"maconnerie":  110,
	"toiture":     140,
	"menuiserie":  95,
	"renovation":  750,
}

const defaultRatePerM2 = 80

// estimationService implements the EstimationService interface.
type estimationService struct {
	estimationRepo db.EstimationRepository
	sessions       cache.Cache
	logger         *zap.Logger
}

// NewEstimationService creates a new EstimationService instance. sessions
// may be nil when no cache is configured.
func NewEstimationService(er db.EstimationRepository, sessions cache.Cache, logger *zap.Logger) EstimationService {
	return &estimationService{
		estimationRepo: er,
		sessions:       sessions,
		logger:         logger,
	}
}

// CreateEstimation turns a simulator contact-form submission into a priced
// estimation record. The simulator session entry is dropped from the cache
// afterwards, best-effort.
func (s *estimationService) CreateEstimation(ctx context.Context, req models.CreateEstimationRequest) (*models.Estimation, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: sessionId", ErrMissingEstimationFields)
	}
	if req.ClientInfo.Email == "" || req.ClientInfo.FirstName == "" {
		return nil, fmt.Errorf("%w: clientInfo.firstName and clientInfo.email are required", ErrMissingEstimationFields)
	}
	if req.Project.Type == "" {
		return nil, fmt.Errorf("%w: project.type", ErrMissingEstimationFields)
	}

	now := time.Now().UTC()
	estimation := &models.Estimation{
		SessionID:  req.SessionID,
		Status:     models.EstimationCompleted,
		ClientInfo: req.ClientInfo,
		Location:   req.Location,
		Project:    req.Project,
		Pricing:    computePricing(req.Project),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	estimationID, err := s.estimationRepo.Create(ctx, estimation)
	if err != nil {
		return nil, err
	}
	estimation.ID = estimationID

	if s.sessions != nil {
		if err := s.sessions.Delete(simulatorSessionKeyPrefix + req.SessionID); err != nil {
			s.logger.Warn("Failed to drop simulator session from cache",
				zap.String("sessionId", req.SessionID), zap.Error(err))
		}
	}

	s.logger.Info("Created estimation from simulator submission",
		zap.String("estimationId", estimationID), zap.String("prestation", req.Project.Prestation))
	return estimation, nil
}

// statusTransitions holds the allowed admin status moves. Status is
// independent from isPublished and from assignments.
var statusTransitions = map[string][]string{
	models.EstimationDraft:     {models.EstimationCompleted},
	models.EstimationCompleted: {models.EstimationSent, models.EstimationExpired},
	models.EstimationSent:      {models.EstimationExpired},
	models.EstimationExpired:   {},
}

// SetStatus applies an admin status transition.
func (s *estimationService) SetStatus(ctx context.Context, estimationID, status string) error {
	if _, ok := statusTransitions[status]; !ok {
		return fmt.Errorf("%w: '%s'", ErrInvalidStatus, status)
	}

	estimation, err := s.estimationRepo.GetByID(ctx, estimationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: '%s'", ErrEstimationNotFound, estimationID)
		}
		return err
	}
	if estimation.Status == status {
		return nil
	}
	if !transitionAllowed(estimation.Status, status) {
		return fmt.Errorf("%w: '%s' -> '%s'", ErrInvalidStatusTransition, estimation.Status, status)
	}
	return s.estimationRepo.SetStatus(ctx, estimationID, status)
}

// SetPublished toggles marketplace visibility. This is the only code path
// in the system that writes isPublished.
func (s *estimationService) SetPublished(ctx context.Context, estimationID string, published bool) error {
	if err := s.estimationRepo.SetPublished(ctx, estimationID, published); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: '%s'", ErrEstimationNotFound, estimationID)
		}
		return err
	}
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// computePricing derives the low/medium/high band from a per-prestation
// base rate scaled by surface. Confidence grows with how much of the
// project is specified.
func computePricing(project models.ProjectInfo) models.Pricing {
	rate, ok := baseRatePerM2[project.Prestation]
	if !ok {
		rate = defaultRatePerM2
	}

	surface := project.SurfaceM2
	if surface <= 0 {
		surface = 1
	}
	medium := rate * surface

	confidence := 0.5
	if ok {
		confidence += 0.2
	}
	if project.SurfaceM2 > 0 {
		confidence += 0.2
	}
	if len(project.Responses) > 0 {
		confidence += 0.1
	}

	return models.Pricing{
		LowEstimate:    medium * 0.85,
		MediumEstimate: medium,
		HighEstimate:   medium * 1.25,
		Confidence:     confidence,
	}
}
