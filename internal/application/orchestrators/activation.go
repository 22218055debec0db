package orchestrators

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/account"
)

// ActivationTokenTTL is how long an activation link stays valid.
const ActivationTokenTTL = 48 * time.Hour

// AccountStoreForActivation defines the store interface needed by the
// activation orchestrators.
type AccountStoreForActivation interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	SaveActivationToken(ctx context.Context, token account.ActivationToken) error
	GetActivationToken(ctx context.Context, token string) (account.ActivationToken, error)
	InvalidateActivationTokens(ctx context.Context, accountID string) error
}

// --- Issue Activation Token ---

// IssueActivationTokenInput carries input for issuing an activation token.
type IssueActivationTokenInput struct {
	AccountID string
}

// IssueActivationTokenDeps holds dependencies for IssueActivationToken.
type IssueActivationTokenDeps struct {
	AccountStore AccountStoreForActivation
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteIssueActivationToken creates a fresh single-use activation token
// for a pending account. Earlier tokens for the account are invalidated so
// only the newest link works.
// PRE: AccountID refers to an account in pending_activation status
// POST: A token valid for ActivationTokenTTL is persisted and returned
func ExecuteIssueActivationToken(ctx context.Context, input IssueActivationTokenInput, deps IssueActivationTokenDeps) (account.ActivationToken, error) {
	if input.AccountID == "" {
		return account.ActivationToken{}, errors.New("account ID is required")
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return account.ActivationToken{}, errors.New("account not found")
	}
	if !acct.IsPendingActivation() {
		return account.ActivationToken{}, account.ErrAlreadyActivated
	}

	if err := deps.AccountStore.InvalidateActivationTokens(ctx, acct.ID); err != nil {
		return account.ActivationToken{}, err
	}

	now := deps.Now()
	token := account.ActivationToken{
		ID:        deps.GenerateID(),
		AccountID: acct.ID,
		Token:     newOpaqueToken(),
		ExpiresAt: now.Add(ActivationTokenTTL),
		CreatedAt: now,
	}

	if err := deps.AccountStore.SaveActivationToken(ctx, token); err != nil {
		return account.ActivationToken{}, err
	}

	slog.Info("auth_event", "event", "activation_token_issued", "account_id", acct.ID)
	return token, nil
}

// --- Activate Account ---

// ActivateAccountInput carries input for the activation orchestrator.
type ActivateAccountInput struct {
	Token    string
	Password string
}

// ActivateAccountDeps holds dependencies for ActivateAccount.
type ActivateAccountDeps struct {
	AccountStore AccountStoreForActivation
	Now          func() time.Time
}

// ActivateAccountResult carries the activated account's identity.
type ActivateAccountResult struct {
	AccountID string
	Email     string
	Role      string
}

// ExecuteActivateAccount redeems an activation token: sets the password and
// flips the account from pending_activation to active.
// PRE: Token is unused and unexpired; password meets the length rule
// POST: Account is active with the new password; all tokens invalidated
// INVARIANT: A token can only be redeemed once
func ExecuteActivateAccount(ctx context.Context, input ActivateAccountInput, deps ActivateAccountDeps) (ActivateAccountResult, error) {
	if input.Token == "" {
		return ActivateAccountResult{}, account.ErrTokenInvalid
	}
	if input.Password == "" {
		return ActivateAccountResult{}, account.ErrEmptyPassword
	}

	token, err := deps.AccountStore.GetActivationToken(ctx, input.Token)
	if err != nil {
		slog.Info("auth_event", "event", "activation_failed", "reason", "token_not_found")
		return ActivateAccountResult{}, account.ErrTokenInvalid
	}
	if token.Used {
		slog.Info("auth_event", "event", "activation_failed", "account_id", token.AccountID, "reason", "token_used")
		return ActivateAccountResult{}, account.ErrTokenUsed
	}
	if token.IsExpired(deps.Now()) {
		slog.Info("auth_event", "event", "activation_failed", "account_id", token.AccountID, "reason", "token_expired")
		return ActivateAccountResult{}, account.ErrTokenExpired
	}

	acct, err := deps.AccountStore.GetByID(ctx, token.AccountID)
	if err != nil {
		return ActivateAccountResult{}, errors.New("account not found")
	}

	if err := acct.Activate(); err != nil {
		return ActivateAccountResult{}, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return ActivateAccountResult{}, err
	}

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return ActivateAccountResult{}, err
	}
	if err := deps.AccountStore.InvalidateActivationTokens(ctx, acct.ID); err != nil {
		return ActivateAccountResult{}, err
	}

	slog.Info("auth_event", "event", "account_activated", "account_id", acct.ID, "email", acct.Email)

	return ActivateAccountResult{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      acct.Role,
	}, nil
}

// newOpaqueToken returns a 32-byte random hex string. Activation links
// and parent portal sessions both use these.
func newOpaqueToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
