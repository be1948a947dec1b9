// Package auth issues session tokens and verifies user credentials.
package auth

import (
	"context"

	"github.com/mmynk/settleup/internal/models"
)

// Authenticator verifies who a caller is.
// PasswordAuthenticator is the only implementation; the interface keeps the
// services independent of the credential scheme.
type Authenticator interface {
	// Register creates an account for email and returns it.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account matching email and credential, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials the scheme will not store.
	ValidateCredential(credential string) error
}
