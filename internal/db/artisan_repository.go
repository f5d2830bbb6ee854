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

const artisansCollection = "artisans"

// ErrNotFound is a common error for when a document is not found in Firestore.
var ErrNotFound = errors.New("document not found")

// firestoreArtisanRepository implements the ArtisanRepository interface using Firestore.
type firestoreArtisanRepository struct {
	client *firestore.Client
}

// NewFirestoreArtisanRepository creates a new instance of firestoreArtisanRepository.
func NewFirestoreArtisanRepository(client *firestore.Client) ArtisanRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ArtisanRepository.")
	}
	return &firestoreArtisanRepository{client: client}
}

// Create adds a new artisan document. The artisan.ID (Firebase Auth UID) is
// used as the Firestore document ID.
func (r *firestoreArtisanRepository) Create(ctx context.Context, artisan *models.Artisan) error {
	if artisan.ID == "" {
		return errors.New("artisan ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(artisansCollection).Doc(artisan.ID).Create(ctx, artisan)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("artisan with ID '%s' already exists: %w", artisan.ID, err)
		}
		return fmt.Errorf("failed to create artisan with ID '%s': %w", artisan.ID, err)
	}
	return nil
}

// GetByID retrieves an artisan document by its ID.
func (r *firestoreArtisanRepository) GetByID(ctx context.Context, artisanID string) (*models.Artisan, error) {
	if artisanID == "" {
		return nil, errors.New("artisanID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(artisansCollection).Doc(artisanID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("artisan with ID '%s' not found: %w", artisanID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get artisan with ID '%s': %w", artisanID, err)
	}

	var artisan models.Artisan
	if err := docSnap.DataTo(&artisan); err != nil {
		return nil, fmt.Errorf("failed to decode artisan data for ID '%s': %w", artisanID, err)
	}
	artisan.ID = docSnap.Ref.ID

	return &artisan, nil
}

// GetByEmail retrieves the artisan whose email field matches. Returns
// ErrNotFound when no artisan has that email.
func (r *firestoreArtisanRepository) GetByEmail(ctx context.Context, email string) (*models.Artisan, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty for GetByEmail operation")
	}

	iter := r.client.Collection(artisansCollection).Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("artisan with email '%s' not found: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query artisan by email '%s': %w", email, err)
	}

	var artisan models.Artisan
	if err := doc.DataTo(&artisan); err != nil {
		return nil, fmt.Errorf("failed to decode artisan data for email '%s': %w", email, err)
	}
	artisan.ID = doc.Ref.ID

	return &artisan, nil
}

// Update overwrites an artisan document, merging fields.
func (r *firestoreArtisanRepository) Update(ctx context.Context, artisan *models.Artisan) error {
	if artisan.ID == "" {
		return errors.New("artisan ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(artisansCollection).Doc(artisan.ID).Set(ctx, artisan, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update artisan with ID '%s': %w", artisan.ID, err)
	}
	return nil
}

// UpdateFields writes only the named top-level fields.
func (r *firestoreArtisanRepository) UpdateFields(ctx context.Context, artisanID string, fields map[string]interface{}) error {
	if artisanID == "" {
		return errors.New("artisanID cannot be empty for UpdateFields operation")
	}
	updates := make([]firestore.Update, 0, len(fields)+1)
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})

	_, err := r.client.Collection(artisansCollection).Doc(artisanID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("artisan with ID '%s' not found: %w", artisanID, ErrNotFound)
		}
		return fmt.Errorf("failed to update fields on artisan '%s': %w", artisanID, err)
	}
	return nil
}

// AppendAssignedLead adds an estimation back-reference inside a
// transaction, deduplicated on estimation ID.
func (r *firestoreArtisanRepository) AppendAssignedLead(ctx context.Context, artisanID string, lead models.AssignedLead) error {
	if artisanID == "" {
		return errors.New("artisanID cannot be empty for AppendAssignedLead operation")
	}

	docRef := r.client.Collection(artisansCollection).Doc(artisanID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var artisan models.Artisan
		if err := snap.DataTo(&artisan); err != nil {
			return err
		}
		for _, existing := range artisan.AssignedLeads {
			if existing.EstimationID == lead.EstimationID {
				return nil // already referenced
			}
		}
		return tx.Update(docRef, []firestore.Update{
			{Path: "assignedLeads", Value: append(artisan.AssignedLeads, lead)},
			{Path: "leadCountThisMonth", Value: artisan.LeadCountThisMonth + 1},
			{Path: "totalLeads", Value: artisan.TotalLeads + 1},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to append assigned lead to artisan '%s': %w", artisanID, err)
	}
	return nil
}

// RemoveAssignedLead removes the back-reference for an estimation inside a
// transaction; removing an absent entry is a no-op.
func (r *firestoreArtisanRepository) RemoveAssignedLead(ctx context.Context, artisanID, estimationID string) error {
	if artisanID == "" || estimationID == "" {
		return errors.New("artisanID and estimationID cannot be empty for RemoveAssignedLead operation")
	}

	docRef := r.client.Collection(artisansCollection).Doc(artisanID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var artisan models.Artisan
		if err := snap.DataTo(&artisan); err != nil {
			return err
		}
		kept := artisan.AssignedLeads[:0:0]
		for _, existing := range artisan.AssignedLeads {
			if existing.EstimationID != estimationID {
				kept = append(kept, existing)
			}
		}
		if len(kept) == len(artisan.AssignedLeads) {
			return nil // nothing to remove
		}
		return tx.Update(docRef, []firestore.Update{
			{Path: "assignedLeads", Value: kept},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to remove assigned lead from artisan '%s': %w", artisanID, err)
	}
	return nil
}
