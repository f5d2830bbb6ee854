package identity

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"renoleads-backend-go/internal/core"
)

// ErrUserNotFound aliases the core sentinel so callers of this package can
// branch without importing core.
var ErrUserNotFound = core.ErrIdentityUserNotFound

// FirebaseClient implements core.IdentityClient over Firebase Auth.
type FirebaseClient struct {
	authClient *auth.Client
}

// NewFirebaseClient wraps a Firebase Auth client.
func NewFirebaseClient(authClient *auth.Client) (*FirebaseClient, error) {
	if authClient == nil {
		return nil, errors.New("firebase auth client is required")
	}
	return &FirebaseClient{authClient: authClient}, nil
}

// CreateUser provisions an account with the email pre-verified, since the
// conversion workflow emails the generated credentials itself.
func (c *FirebaseClient) CreateUser(ctx context.Context, email, password, displayName string) (*core.IdentityUser, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName).
		EmailVerified(true)

	record, err := c.authClient.CreateUser(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("firebase user creation failed: %w", err)
	}
	return &core.IdentityUser{
		UID:         record.UID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
	}, nil
}

// GetUserByEmail looks up an account by email.
func (c *FirebaseClient) GetUserByEmail(ctx context.Context, email string) (*core.IdentityUser, error) {
	record, err := c.authClient.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, fmt.Errorf("no account for email '%s': %w", email, ErrUserNotFound)
		}
		return nil, fmt.Errorf("firebase user lookup failed: %w", err)
	}
	return &core.IdentityUser{
		UID:         record.UID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
	}, nil
}
