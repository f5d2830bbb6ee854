package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"renoleads-backend-go/internal/models"
)

// Reviews live in the "avis" subcollection under an artisan document.
const reviewsSubcollection = "avis"

// firestoreReviewRepository implements the ReviewRepository interface using Firestore.
type firestoreReviewRepository struct {
	client *firestore.Client
}

// NewFirestoreReviewRepository creates a new instance of firestoreReviewRepository.
func NewFirestoreReviewRepository(client *firestore.Client) ReviewRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ReviewRepository.")
	}
	return &firestoreReviewRepository{client: client}
}

func (r *firestoreReviewRepository) reviews(artisanID string) *firestore.CollectionRef {
	return r.client.Collection(artisansCollection).Doc(artisanID).Collection(reviewsSubcollection)
}

// Create adds a new review document with an auto-generated ID.
func (r *firestoreReviewRepository) Create(ctx context.Context, artisanID string, review *models.Review) (string, error) {
	if artisanID == "" {
		return "", errors.New("artisanID cannot be empty for Create operation")
	}
	docRef := r.reviews(artisanID).NewDoc()
	review.ID = docRef.ID
	if _, err := docRef.Create(ctx, review); err != nil {
		return "", fmt.Errorf("failed to create review for artisan '%s': %w", artisanID, err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a review document by its ID.
func (r *firestoreReviewRepository) GetByID(ctx context.Context, artisanID, reviewID string) (*models.Review, error) {
	if artisanID == "" || reviewID == "" {
		return nil, errors.New("artisanID and reviewID cannot be empty for GetByID operation")
	}
	docSnap, err := r.reviews(artisanID).Doc(reviewID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("review '%s' of artisan '%s' not found: %w", reviewID, artisanID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review '%s' of artisan '%s': %w", reviewID, artisanID, err)
	}

	var review models.Review
	if err := docSnap.DataTo(&review); err != nil {
		return nil, fmt.Errorf("failed to decode review data for ID '%s': %w", reviewID, err)
	}
	review.ID = docSnap.Ref.ID

	return &review, nil
}

// ListByArtisan retrieves every review of an artisan. The stats
// recomputation reads the full subcollection, so no pagination here.
func (r *firestoreReviewRepository) ListByArtisan(ctx context.Context, artisanID string) ([]*models.Review, error) {
	if artisanID == "" {
		return nil, errors.New("artisanID cannot be empty for ListByArtisan operation")
	}

	iter := r.reviews(artisanID).Documents(ctx)
	defer iter.Stop()

	var reviews []*models.Review
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate reviews of artisan '%s': %w", artisanID, err)
		}

		var review models.Review
		if err := doc.DataTo(&review); err != nil {
			log.Printf("Error decoding review data (ID: %s) for artisan '%s': %v. Skipping.", doc.Ref.ID, artisanID, err)
			continue
		}
		review.ID = doc.Ref.ID
		reviews = append(reviews, &review)
	}

	return reviews, nil
}

// Update overwrites a review document, merging fields.
func (r *firestoreReviewRepository) Update(ctx context.Context, artisanID string, review *models.Review) error {
	if artisanID == "" || review.ID == "" {
		return errors.New("artisanID and review ID cannot be empty for Update operation")
	}
	_, err := r.reviews(artisanID).Doc(review.ID).Set(ctx, review, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update review '%s' of artisan '%s': %w", review.ID, artisanID, err)
	}
	return nil
}

// Delete removes a review document.
func (r *firestoreReviewRepository) Delete(ctx context.Context, artisanID, reviewID string) error {
	if artisanID == "" || reviewID == "" {
		return errors.New("artisanID and reviewID cannot be empty for Delete operation")
	}
	_, err := r.reviews(artisanID).Doc(reviewID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("review '%s' of artisan '%s' not found for deletion: %w", reviewID, artisanID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete review '%s' of artisan '%s': %w", reviewID, artisanID, err)
	}
	return nil
}
