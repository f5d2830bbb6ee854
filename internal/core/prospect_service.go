package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"renoleads-backend-go/internal/db"
	"renoleads-backend-go/internal/models"
)

// ErrInvalidFunnelStep signals a funnel step outside the known set.
var ErrInvalidFunnelStep = errors.New("invalid funnel step")

var validFunnelSteps = map[string]bool{
	models.FunnelStep1:     true,
	models.FunnelStep2:     true,
	models.FunnelStep3:     true,
	models.FunnelCompleted: true,
	models.FunnelAbandoned: true,
	models.FunnelContacted: true,
}

// prospectService implements the ProspectService interface.
type prospectService struct {
	prospectRepo db.ProspectRepository
	logger       *zap.Logger
}

// NewProspectService creates a new ProspectService instance.
func NewProspectService(pr db.ProspectRepository, logger *zap.Logger) ProspectService {
	return &prospectService{
		prospectRepo: pr,
		logger:       logger,
	}
}

// CreateProspect stores a new registration-funnel lead at step1.
func (s *prospectService) CreateProspect(ctx context.Context, req models.CreateProspectRequest) (*models.Prospect, error) {
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: firstName, lastName and email are required", ErrMissingRequiredFields)
	}

	now := time.Now().UTC()
	prospect := &models.Prospect{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		PostalCode: req.PostalCode,
		City:       req.City,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Profession: req.Profession,
		FunnelStep: models.FunnelStep1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	prospectID, err := s.prospectRepo.Create(ctx, prospect)
	if err != nil {
		return nil, err
	}
	prospect.ID = prospectID

	s.logger.Info("Created funnel prospect",
		zap.String("prospectId", prospectID), zap.String("profession", req.Profession))
	return prospect, nil
}

// AdvanceFunnel moves a prospect to another funnel step. The converted step
// is owned by the conversion workflow and cannot be set here.
func (s *prospectService) AdvanceFunnel(ctx context.Context, prospectID, step string) error {
	if !validFunnelSteps[step] {
		return fmt.Errorf("%w: '%s'", ErrInvalidFunnelStep, step)
	}
	if err := s.prospectRepo.SetFunnelStep(ctx, prospectID, step); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: '%s'", ErrProspectNotFound, prospectID)
		}
		return err
	}
	return nil
}
