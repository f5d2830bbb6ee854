package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"renoleads-backend-go/internal/db"
	"renoleads-backend-go/internal/models"
)

// Custom errors for the ReviewService
var (
	ErrReviewNotFound = errors.New("review not found")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// reviewService implements the ReviewService interface.
type reviewService struct {
	reviewRepo  db.ReviewRepository
	artisanRepo db.ArtisanRepository
	logger      *zap.Logger
}

// NewReviewService creates a new ReviewService instance.
func NewReviewService(rr db.ReviewRepository, ar db.ArtisanRepository, logger *zap.Logger) ReviewService {
	return &reviewService{
		reviewRepo:  rr,
		artisanRepo: ar,
		logger:      logger,
	}
}

// CreateReview stores a public review submission and recomputes the
// artisan's aggregate stats before returning.
func (s *reviewService) CreateReview(ctx context.Context, artisanID string, req models.CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRating, req.Rating)
	}
	if _, err := s.artisanRepo.GetByID(ctx, artisanID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrArtisanNotFound, artisanID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	review := &models.Review{
		Rating:      req.Rating,
		Comment:     req.Comment,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		Displayed:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	reviewID, err := s.reviewRepo.Create(ctx, artisanID, review)
	if err != nil {
		return nil, err
	}
	review.ID = reviewID

	if err := s.RecomputeStats(ctx, artisanID); err != nil {
		return nil, err
	}
	return review, nil
}

// ModerateReview applies an admin moderation edit. Nil request fields leave
// the stored value unchanged.
func (s *reviewService) ModerateReview(ctx context.Context, artisanID, reviewID, moderatorID string, req models.ModerateReviewRequest) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, artisanID, reviewID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s' on artisan '%s'", ErrReviewNotFound, reviewID, artisanID)
		}
		return nil, err
	}

	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidRating, *req.Rating)
		}
		review.Rating = *req.Rating
	}
	if req.Displayed != nil {
		review.Displayed = *req.Displayed
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}
	if req.ModerationNotes != nil {
		review.ModerationNotes = *req.ModerationNotes
	}
	review.ModeratedBy = moderatorID
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviewRepo.Update(ctx, artisanID, review); err != nil {
		return nil, err
	}
	if err := s.RecomputeStats(ctx, artisanID); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review and recomputes the artisan's aggregate
// stats before returning.
func (s *reviewService) DeleteReview(ctx context.Context, artisanID, reviewID string) error {
	if _, err := s.reviewRepo.GetByID(ctx, artisanID, reviewID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: '%s' on artisan '%s'", ErrReviewNotFound, reviewID, artisanID)
		}
		return err
	}
	if err := s.reviewRepo.Delete(ctx, artisanID, reviewID); err != nil {
		return err
	}
	return s.RecomputeStats(ctx, artisanID)
}

// RecomputeStats reads every review of the artisan and rewrites
// averageRating and reviewCount from scratch. Full recomputation trades
// efficiency for correctness under concurrent edits, which is acceptable at
// the expected review volume.
func (s *reviewService) RecomputeStats(ctx context.Context, artisanID string) error {
	reviews, err := s.reviewRepo.ListByArtisan(ctx, artisanID)
	if err != nil {
		return err
	}

	count := len(reviews)
	average := 0.0
	if count > 0 {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		average = math.Round(float64(sum)/float64(count)*10) / 10
	}

	err = s.artisanRepo.UpdateFields(ctx, artisanID, map[string]interface{}{
		"averageRating": average,
		"reviewCount":   count,
	})
	if err != nil {
		return fmt.Errorf("failed to update review stats for artisan '%s': %w", artisanID, err)
	}
	s.logger.Debug("Recomputed review stats",
		zap.String("artisanId", artisanID), zap.Int("reviewCount", count), zap.Float64("averageRating", average))
	return nil
}
