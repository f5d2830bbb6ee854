package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"renoleads-backend-go/internal/models"
)

const estimationsCollection = "estimations"

// firestoreEstimationRepository implements the EstimationRepository interface using Firestore.
type firestoreEstimationRepository struct {
	client *firestore.Client
}

// NewFirestoreEstimationRepository creates a new instance of firestoreEstimationRepository.
func NewFirestoreEstimationRepository(client *firestore.Client) EstimationRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for EstimationRepository.")
	}
	return &firestoreEstimationRepository{client: client}
}

// Create adds a new estimation document with an auto-generated ID.
func (r *firestoreEstimationRepository) Create(ctx context.Context, estimation *models.Estimation) (string, error) {
	docRef := r.client.Collection(estimationsCollection).NewDoc()
	estimation.ID = docRef.ID
	if _, err := docRef.Create(ctx, estimation); err != nil {
		return "", fmt.Errorf("failed to create estimation: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves an estimation document by its ID.
func (r *firestoreEstimationRepository) GetByID(ctx context.Context, estimationID string) (*models.Estimation, error) {
	if estimationID == "" {
		return nil, errors.New("estimationID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(estimationsCollection).Doc(estimationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("estimation with ID '%s' not found: %w", estimationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get estimation with ID '%s': %w", estimationID, err)
	}

	var estimation models.Estimation
	if err := docSnap.DataTo(&estimation); err != nil {
		return nil, fmt.Errorf("failed to decode estimation data for ID '%s': %w", estimationID, err)
	}
	estimation.ID = docSnap.Ref.ID

	return &estimation, nil
}

// AppendAssignment adds an assignment entry inside a transaction,
// deduplicated on artisan ID. The returned bool reports whether a new
// entry was actually added (false means the artisan was already assigned).
func (r *firestoreEstimationRepository) AppendAssignment(ctx context.Context, estimationID string, assignment models.Assignment) (bool, error) {
	if estimationID == "" {
		return false, errors.New("estimationID cannot be empty for AppendAssignment operation")
	}

	docRef := r.client.Collection(estimationsCollection).Doc(estimationID)
	added := false
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var estimation models.Estimation
		if err := snap.DataTo(&estimation); err != nil {
			return err
		}
		if _, ok := estimation.AssignmentFor(assignment.ArtisanID); ok {
			added = false
			return nil // re-assigning the same artisan is a no-op
		}
		added = true
		return tx.Update(docRef, []firestore.Update{
			{Path: "assignments", Value: append(estimation.Assignments, assignment)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to append assignment on estimation '%s': %w", estimationID, err)
	}
	return added, nil
}

// RemoveAssignment removes the assignment entry for an artisan inside a
// transaction. Removing an absent artisan is a no-op, reported via the
// returned bool.
func (r *firestoreEstimationRepository) RemoveAssignment(ctx context.Context, estimationID, artisanID string) (bool, error) {
	if estimationID == "" || artisanID == "" {
		return false, errors.New("estimationID and artisanID cannot be empty for RemoveAssignment operation")
	}

	docRef := r.client.Collection(estimationsCollection).Doc(estimationID)
	removed := false
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var estimation models.Estimation
		if err := snap.DataTo(&estimation); err != nil {
			return err
		}
		kept := estimation.Assignments[:0:0]
		for _, a := range estimation.Assignments {
			if a.ArtisanID != artisanID {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(estimation.Assignments) {
			removed = false
			return nil
		}
		removed = true
		return tx.Update(docRef, []firestore.Update{
			{Path: "assignments", Value: kept},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove assignment on estimation '%s': %w", estimationID, err)
	}
	return removed, nil
}

// ReplaceAssignments writes the full assignments array. Used by the price
// update, which rewrites the matching entry.
func (r *firestoreEstimationRepository) ReplaceAssignments(ctx context.Context, estimationID string, assignments []models.Assignment) error {
	if estimationID == "" {
		return errors.New("estimationID cannot be empty for ReplaceAssignments operation")
	}
	_, err := r.client.Collection(estimationsCollection).Doc(estimationID).Update(ctx, []firestore.Update{
		{Path: "assignments", Value: assignments},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to replace assignments on estimation '%s': %w", estimationID, err)
	}
	return nil
}

// AppendMarketplacePurchase appends an entry to the purchase ledger inside
// a transaction (no dedup: every purchase is its own ledger line).
func (r *firestoreEstimationRepository) AppendMarketplacePurchase(ctx context.Context, estimationID string, purchase models.MarketplacePurchase) error {
	if estimationID == "" {
		return errors.New("estimationID cannot be empty for AppendMarketplacePurchase operation")
	}

	docRef := r.client.Collection(estimationsCollection).Doc(estimationID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var estimation models.Estimation
		if err := snap.DataTo(&estimation); err != nil {
			return err
		}
		return tx.Update(docRef, []firestore.Update{
			{Path: "marketplacePurchases", Value: append(estimation.MarketplacePurchases, purchase)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to append marketplace purchase on estimation '%s': %w", estimationID, err)
	}
	return nil
}

// UpdateFields writes only the named top-level fields. The assignment and
// counter-sync paths rely on this so that isPublished is never written as
// a side effect.
func (r *firestoreEstimationRepository) UpdateFields(ctx context.Context, estimationID string, fields map[string]interface{}) error {
	if estimationID == "" {
		return errors.New("estimationID cannot be empty for UpdateFields operation")
	}
	updates := make([]firestore.Update, 0, len(fields)+1)
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})

	_, err := r.client.Collection(estimationsCollection).Doc(estimationID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("estimation with ID '%s' not found: %w", estimationID, ErrNotFound)
		}
		return fmt.Errorf("failed to update fields on estimation '%s': %w", estimationID, err)
	}
	return nil
}

// SetStatus moves the estimation through its status lifecycle. Status is
// independent from isPublished and from assignments.
func (r *firestoreEstimationRepository) SetStatus(ctx context.Context, estimationID, newStatus string) error {
	return r.UpdateFields(ctx, estimationID, map[string]interface{}{"status": newStatus})
}

// SetPublished toggles marketplace visibility. This is the only write path
// for isPublished.
func (r *firestoreEstimationRepository) SetPublished(ctx context.Context, estimationID string, published bool) error {
	return r.UpdateFields(ctx, estimationID, map[string]interface{}{"isPublished": published})
}
