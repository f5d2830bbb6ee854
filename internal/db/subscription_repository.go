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

const subscriptionsCollection = "subscriptions"

// firestoreSubscriptionRepository implements the SubscriptionRepository interface using Firestore.
type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreSubscriptionRepository creates a new instance of firestoreSubscriptionRepository.
func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SubscriptionRepository.")
	}
	return &firestoreSubscriptionRepository{client: client}
}

// Set writes the subscription mirror document, keyed by the Stripe
// subscription ID. Set (not Create) because plan changes rewrite the mirror.
func (r *firestoreSubscriptionRepository) Set(ctx context.Context, subscription *models.Subscription) error {
	if subscription.ID == "" {
		return errors.New("subscription ID cannot be empty for Set operation")
	}
	_, err := r.client.Collection(subscriptionsCollection).Doc(subscription.ID).Set(ctx, subscription, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to set subscription with ID '%s': %w", subscription.ID, err)
	}
	return nil
}

// GetByID retrieves a subscription mirror document by its ID.
func (r *firestoreSubscriptionRepository) GetByID(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	if subscriptionID == "" {
		return nil, errors.New("subscriptionID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(subscriptionsCollection).Doc(subscriptionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("subscription with ID '%s' not found: %w", subscriptionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription with ID '%s': %w", subscriptionID, err)
	}

	var subscription models.Subscription
	if err := docSnap.DataTo(&subscription); err != nil {
		return nil, fmt.Errorf("failed to decode subscription data for ID '%s': %w", subscriptionID, err)
	}
	subscription.ID = docSnap.Ref.ID

	return &subscription, nil
}

// UpdateFields writes only the named top-level fields.
func (r *firestoreSubscriptionRepository) UpdateFields(ctx context.Context, subscriptionID string, fields map[string]interface{}) error {
	if subscriptionID == "" {
		return errors.New("subscriptionID cannot be empty for UpdateFields operation")
	}
	updates := make([]firestore.Update, 0, len(fields)+1)
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})

	_, err := r.client.Collection(subscriptionsCollection).Doc(subscriptionID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("subscription with ID '%s' not found: %w", subscriptionID, ErrNotFound)
		}
		return fmt.Errorf("failed to update fields on subscription '%s': %w", subscriptionID, err)
	}
	return nil
}
