package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"renoleads-backend-go/internal/models"
)

const prospectsCollection = "prospects"

// firestoreProspectRepository implements the ProspectRepository interface using Firestore.
type firestoreProspectRepository struct {
	client *firestore.Client
}

// NewFirestoreProspectRepository creates a new instance of firestoreProspectRepository.
func NewFirestoreProspectRepository(client *firestore.Client) ProspectRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ProspectRepository.")
	}
	return &firestoreProspectRepository{client: client}
}

// Create adds a new prospect document with an auto-generated ID.
func (r *firestoreProspectRepository) Create(ctx context.Context, prospect *models.Prospect) (string, error) {
	docRef := r.client.Collection(prospectsCollection).NewDoc()
	prospect.ID = docRef.ID
	if _, err := docRef.Create(ctx, prospect); err != nil {
		return "", fmt.Errorf("failed to create prospect: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a prospect document by its ID.
func (r *firestoreProspectRepository) GetByID(ctx context.Context, prospectID string) (*models.Prospect, error) {
	if prospectID == "" {
		return nil, errors.New("prospectID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(prospectsCollection).Doc(prospectID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("prospect with ID '%s' not found: %w", prospectID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get prospect with ID '%s': %w", prospectID, err)
	}

	var prospect models.Prospect
	if err := docSnap.DataTo(&prospect); err != nil {
		return nil, fmt.Errorf("failed to decode prospect data for ID '%s': %w", prospectID, err)
	}
	prospect.ID = docSnap.Ref.ID

	return &prospect, nil
}

// Update overwrites a prospect document, merging fields.
func (r *firestoreProspectRepository) Update(ctx context.Context, prospect *models.Prospect) error {
	if prospect.ID == "" {
		return errors.New("prospect ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(prospectsCollection).Doc(prospect.ID).Set(ctx, prospect, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update prospect with ID '%s': %w", prospect.ID, err)
	}
	return nil
}

// SetFunnelStep moves the prospect to another funnel step.
func (r *firestoreProspectRepository) SetFunnelStep(ctx context.Context, prospectID, step string) error {
	if prospectID == "" {
		return errors.New("prospectID cannot be empty for SetFunnelStep operation")
	}
	_, err := r.client.Collection(prospectsCollection).Doc(prospectID).Update(ctx, []firestore.Update{
		{Path: "funnelStep", Value: step},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("prospect with ID '%s' not found: %w", prospectID, ErrNotFound)
		}
		return fmt.Errorf("failed to set funnel step on prospect '%s': %w", prospectID, err)
	}
	return nil
}

// Claim atomically acquires the conversion lease on a prospect inside a
// Firestore transaction. Concurrent claims on the same prospect serialize;
// exactly one returns Claimed=true. A lease older than maxLeaseAge is
// forcibly reclaimed (crashed holder).
func (r *firestoreProspectRepository) Claim(ctx context.Context, prospectID, ownerToken string, maxLeaseAge time.Duration) (*ClaimResult, error) {
	if prospectID == "" {
		return nil, errors.New("prospectID cannot be empty for Claim operation")
	}

	docRef := r.client.Collection(prospectsCollection).Doc(prospectID)
	result := &ClaimResult{}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				// A finished conversion deletes the prospect.
				result.AlreadyConverted = true
				return nil
			}
			return err
		}

		var p models.Prospect
		if err := snap.DataTo(&p); err != nil {
			return fmt.Errorf("failed to decode prospect data for ID '%s': %w", prospectID, err)
		}
		p.ID = snap.Ref.ID

		if p.FunnelStep == models.FunnelConverted || p.ConvertedArtisanID != "" {
			result.AlreadyConverted = true
			result.ArtisanID = p.ConvertedArtisanID
			result.Prospect = &p
			return nil
		}

		now := time.Now().UTC()
		if p.Processing {
			age := now.Sub(p.ProcessingStartedAt)
			if age < maxLeaseAge {
				// A fresh lease is held by another conversion.
				result.Prospect = &p
				return nil
			}
			// Stale lease: the holder crashed before cleanup. Reclaim it
			// and record what happened for operators.
			if err := tx.Update(docRef, []firestore.Update{
				{Path: "processing", Value: true},
				{Path: "processingOwner", Value: ownerToken},
				{Path: "processingStartedAt", Value: now},
				{Path: "processingError", Value: fmt.Sprintf("lease reclaimed from owner '%s' after %s", p.ProcessingOwner, age.Round(time.Second))},
				{Path: "processingErrorAt", Value: now},
				{Path: "updatedAt", Value: firestore.ServerTimestamp},
			}); err != nil {
				return err
			}
		} else {
			if err := tx.Update(docRef, []firestore.Update{
				{Path: "processing", Value: true},
				{Path: "processingOwner", Value: ownerToken},
				{Path: "processingStartedAt", Value: now},
				{Path: "updatedAt", Value: firestore.ServerTimestamp},
			}); err != nil {
				return err
			}
		}

		p.Processing = true
		p.ProcessingOwner = ownerToken
		p.ProcessingStartedAt = now
		result.Claimed = true
		result.Prospect = &p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim transaction failed for prospect '%s': %w", prospectID, err)
	}
	return result, nil
}

// Release clears the conversion lease after a failure, recording the reason
// so a future retry is not permanently blocked.
func (r *firestoreProspectRepository) Release(ctx context.Context, prospectID, reason string) error {
	if prospectID == "" {
		return errors.New("prospectID cannot be empty for Release operation")
	}
	_, err := r.client.Collection(prospectsCollection).Doc(prospectID).Update(ctx, []firestore.Update{
		{Path: "processing", Value: false},
		{Path: "processingOwner", Value: ""},
		{Path: "processingError", Value: reason},
		{Path: "processingErrorAt", Value: time.Now().UTC()},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to release lease on prospect '%s': %w", prospectID, err)
	}
	return nil
}

// RecordArtisan stamps the artisan created for this prospect.
func (r *firestoreProspectRepository) RecordArtisan(ctx context.Context, prospectID, artisanID string) error {
	if prospectID == "" || artisanID == "" {
		return errors.New("prospectID and artisanID cannot be empty for RecordArtisan operation")
	}
	_, err := r.client.Collection(prospectsCollection).Doc(prospectID).Update(ctx, []firestore.Update{
		{Path: "convertedArtisanId", Value: artisanID},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to record artisan on prospect '%s': %w", prospectID, err)
	}
	return nil
}

// Finalize stamps convertedAt on the new artisan and deletes the prospect,
// atomically: either both happen or neither.
func (r *firestoreProspectRepository) Finalize(ctx context.Context, prospectID, artisanID string) error {
	if prospectID == "" || artisanID == "" {
		return errors.New("prospectID and artisanID cannot be empty for Finalize operation")
	}

	prospectRef := r.client.Collection(prospectsCollection).Doc(prospectID)
	artisanRef := r.client.Collection(artisansCollection).Doc(artisanID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// All reads must precede writes inside a Firestore transaction.
		if _, err := tx.Get(artisanRef); err != nil {
			return fmt.Errorf("artisan '%s' not readable for finalize: %w", artisanID, err)
		}
		if err := tx.Update(artisanRef, []firestore.Update{
			{Path: "convertedAt", Value: firestore.ServerTimestamp},
			{Path: "convertedFromProspectId", Value: prospectID},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}); err != nil {
			return err
		}
		return tx.Delete(prospectRef)
	})
	if err != nil {
		return fmt.Errorf("finalize transaction failed for prospect '%s': %w", prospectID, err)
	}
	return nil
}
