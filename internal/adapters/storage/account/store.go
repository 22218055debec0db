package account

import (
	"context"

	domain "clubhouse/internal/domain/account"
)

// Store persists Account state and the activation tokens issued for
// pending accounts.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Account, error)
	Count(ctx context.Context) (int, error)

	// SaveActivationToken persists a token issued for a pending account.
	SaveActivationToken(ctx context.Context, token domain.ActivationToken) error

	// GetActivationToken retrieves a token by its opaque value.
	GetActivationToken(ctx context.Context, token string) (domain.ActivationToken, error)

	// InvalidateActivationTokens marks all tokens for an account as used.
	InvalidateActivationTokens(ctx context.Context, accountID string) error
}
