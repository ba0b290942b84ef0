package store

import (
	"context"

	"trustlessid/internal/evidence/vc/models"
	id "trustlessid/pkg/domain"
)

// Store persists credentials. Implementations return sentinel.ErrNotFound
// for unknown ids.
type Store interface {
	Save(ctx context.Context, credential models.Credential) error
	FindByID(ctx context.Context, credentialID id.CredentialID) (models.Credential, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]models.Credential, error)
	// RecordVerification atomically increments the verification count and
	// returns the updated credential.
	RecordVerification(ctx context.Context, credentialID id.CredentialID) (models.Credential, error)
	// Update applies fn to the stored credential under the store's lock.
	Update(ctx context.Context, credentialID id.CredentialID, fn func(*models.Credential) error) (models.Credential, error)
}
