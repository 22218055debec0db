package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"clubhouse/internal/domain/account"
)

// mockAccountStore implements the account store interfaces used across
// the auth orchestrators.
type mockAccountStore struct {
	accounts map[string]account.Account         // keyed by ID
	tokens   map[string]account.ActivationToken // keyed by token value
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts: make(map[string]account.Account),
		tokens:   make(map[string]account.ActivationToken),
	}
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, errors.New("not found")
	}
	return a, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, errors.New("not found")
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

func (m *mockAccountStore) SaveActivationToken(_ context.Context, t account.ActivationToken) error {
	m.tokens[t.Token] = t
	return nil
}

func (m *mockAccountStore) GetActivationToken(_ context.Context, token string) (account.ActivationToken, error) {
	t, ok := m.tokens[token]
	if !ok {
		return account.ActivationToken{}, errors.New("not found")
	}
	return t, nil
}

func (m *mockAccountStore) InvalidateActivationTokens(_ context.Context, accountID string) error {
	for k, t := range m.tokens {
		if t.AccountID == accountID {
			t.Used = true
			m.tokens[k] = t
		}
	}
	return nil
}

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// seedActiveAccount stores an active account with the given password.
func seedActiveAccount(t *testing.T, store *mockAccountStore, id, email, role, password string) account.Account {
	t.Helper()
	a := account.Account{
		ID:        id,
		Email:     email,
		Role:      role,
		Status:    account.StatusActive,
		CreatedAt: fixedTime,
	}
	if err := a.SetPassword(password); err != nil {
		t.Fatalf("seed password: %v", err)
	}
	store.accounts[id] = a
	return a
}

// --- ExecuteLogin tests ---

// TestExecuteLogin_Valid tests logging in with correct credentials.
func TestExecuteLogin_Valid(t *testing.T) {
	store := newMockAccountStore()
	seedActiveAccount(t, store, "acc-1", "coach@club.nz", account.RoleCoach, "correct-password-1")

	result, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "coach@club.nz",
		Password: "correct-password-1",
	}, LoginDeps{AccountStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccountID != "acc-1" {
		t.Errorf("expected AccountID=acc-1, got %s", result.AccountID)
	}
	if result.Role != account.RoleCoach {
		t.Errorf("expected role=coach, got %s", result.Role)
	}
}

// TestExecuteLogin_WrongPassword tests that a wrong password is rejected
// and the failure counter advances.
func TestExecuteLogin_WrongPassword(t *testing.T) {
	store := newMockAccountStore()
	seedActiveAccount(t, store, "acc-1", "coach@club.nz", account.RoleCoach, "correct-password-1")

	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "coach@club.nz",
		Password: "wrong-password-99",
	}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if store.accounts["acc-1"].FailedLogins != 1 {
		t.Errorf("expected FailedLogins=1, got %d", store.accounts["acc-1"].FailedLogins)
	}
}

// TestExecuteLogin_NotFound tests that an unknown email gets the same
// error as a wrong password.
func TestExecuteLogin_NotFound(t *testing.T) {
	store := newMockAccountStore()
	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "nobody@club.nz",
		Password: "whatever-password",
	}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// TestExecuteLogin_PendingActivation tests that pending accounts cannot
// log in even with no password set.
func TestExecuteLogin_PendingActivation(t *testing.T) {
	store := newMockAccountStore()
	store.accounts["acc-1"] = account.Account{
		ID: "acc-1", Email: "new@club.nz", Role: account.RoleAthlete,
		Status: account.StatusPendingActivation, CreatedAt: fixedTime,
	}

	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "new@club.nz",
		Password: "any-password-123",
	}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrPendingActivation) {
		t.Fatalf("expected ErrPendingActivation, got %v", err)
	}
}

// TestExecuteLogin_LockoutAfterFiveFailures tests that the fifth
// straight failure locks the account.
func TestExecuteLogin_LockoutAfterFiveFailures(t *testing.T) {
	store := newMockAccountStore()
	seedActiveAccount(t, store, "acc-1", "coach@club.nz", account.RoleCoach, "correct-password-1")

	for i := 0; i < account.MaxFailedLogins; i++ {
		_, err := ExecuteLogin(context.Background(), LoginInput{
			Email:    "coach@club.nz",
			Password: "wrong-password-99",
		}, LoginDeps{AccountStore: store})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	if store.accounts["acc-1"].LockedUntil.IsZero() {
		t.Fatal("expected account to be locked after five failures")
	}

	// Even the right password is refused while locked.
	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "coach@club.nz",
		Password: "correct-password-1",
	}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

// TestExecuteLogin_ResetsFailuresOnSuccess tests that a good login
// clears an earlier failure streak.
func TestExecuteLogin_ResetsFailuresOnSuccess(t *testing.T) {
	store := newMockAccountStore()
	a := seedActiveAccount(t, store, "acc-1", "coach@club.nz", account.RoleCoach, "correct-password-1")
	a.FailedLogins = 3
	store.accounts["acc-1"] = a

	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "coach@club.nz",
		Password: "correct-password-1",
	}, LoginDeps{AccountStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.accounts["acc-1"].FailedLogins != 0 {
		t.Errorf("expected FailedLogins=0, got %d", store.accounts["acc-1"].FailedLogins)
	}
}

// TestExecuteLogin_MissingInput tests that blank credentials are rejected.
func TestExecuteLogin_MissingInput(t *testing.T) {
	store := newMockAccountStore()
	_, err := ExecuteLogin(context.Background(), LoginInput{}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// --- ExecuteChangePassword tests ---

// TestExecuteChangePassword_Valid tests a successful password change.
func TestExecuteChangePassword_Valid(t *testing.T) {
	store := newMockAccountStore()
	a := seedActiveAccount(t, store, "acc-1", "coach@club.nz", account.RoleCoach, "correct-password-1")
	a.PasswordChangeRequired = true
	store.accounts["acc-1"] = a

	err := ExecuteChangePassword(context.Background(), ChangePasswordInput{
		AccountID:       "acc-1",
		CurrentPassword: "correct-password-1",
		NewPassword:     "brand-new-password-2",
	}, ChangePasswordDeps{AccountStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := store.accounts["acc-1"]
	if updated.PasswordChangeRequired {
		t.Error("expected PasswordChangeRequired to be cleared")
	}
	if err := updated.CheckPassword("brand-new-password-2"); err != nil {
		t.Errorf("expected new password to verify: %v", err)
	}
}

// TestExecuteChangePassword_WrongCurrent tests that the current password
// must match.
func TestExecuteChangePassword_WrongCurrent(t *testing.T) {
	store := newMockAccountStore()
	seedActiveAccount(t, store, "acc-1", "coach@club.nz", account.RoleCoach, "correct-password-1")

	err := ExecuteChangePassword(context.Background(), ChangePasswordInput{
		AccountID:       "acc-1",
		CurrentPassword: "wrong-password-99",
		NewPassword:     "brand-new-password-2",
	}, ChangePasswordDeps{AccountStore: store})
	if !errors.Is(err, ErrCurrentPasswordWrong) {
		t.Fatalf("expected ErrCurrentPasswordWrong, got %v", err)
	}
}

// TestExecuteChangePassword_SamePassword tests that reusing the current
// password is rejected.
func TestExecuteChangePassword_SamePassword(t *testing.T) {
	store := newMockAccountStore()
	seedActiveAccount(t, store, "acc-1", "coach@club.nz", account.RoleCoach, "correct-password-1")

	err := ExecuteChangePassword(context.Background(), ChangePasswordInput{
		AccountID:       "acc-1",
		CurrentPassword: "correct-password-1",
		NewPassword:     "correct-password-1",
	}, ChangePasswordDeps{AccountStore: store})
	if !errors.Is(err, ErrNewPasswordSame) {
		t.Fatalf("expected ErrNewPasswordSame, got %v", err)
	}
}

// TestExecuteChangePassword_TooShort tests the 12-character minimum.
func TestExecuteChangePassword_TooShort(t *testing.T) {
	store := newMockAccountStore()
	seedActiveAccount(t, store, "acc-1", "coach@club.nz", account.RoleCoach, "correct-password-1")

	err := ExecuteChangePassword(context.Background(), ChangePasswordInput{
		AccountID:       "acc-1",
		CurrentPassword: "correct-password-1",
		NewPassword:     "short",
	}, ChangePasswordDeps{AccountStore: store})
	if !errors.Is(err, account.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

// --- ExecuteCreateAccount tests ---

// TestExecuteCreateAccount_Valid tests creating an account.
func TestExecuteCreateAccount_Valid(t *testing.T) {
	store := newMockAccountStore()
	id, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
		Email:    "new@club.nz",
		Password: "fresh-password-123",
		Role:     account.RoleCoach,
	}, CreateAccountDeps{AccountStore: store, GenerateID: fixedID, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "test-id-001" {
		t.Errorf("expected id=test-id-001, got %s", id)
	}
	saved := store.accounts["test-id-001"]
	if saved.Status != account.StatusActive {
		t.Errorf("expected status=active, got %s", saved.Status)
	}
}

// TestExecuteCreateAccount_DuplicateEmail tests email uniqueness.
func TestExecuteCreateAccount_DuplicateEmail(t *testing.T) {
	store := newMockAccountStore()
	seedActiveAccount(t, store, "acc-1", "taken@club.nz", account.RoleCoach, "correct-password-1")

	_, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
		Email:    "taken@club.nz",
		Password: "fresh-password-123",
		Role:     account.RoleCoach,
	}, CreateAccountDeps{AccountStore: store, GenerateID: fixedID, Now: fixedNow})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

// --- ExecuteSeedAdmin tests ---

// TestExecuteSeedAdmin_EmptyStore tests that the first boot seeds the
// admin with a forced password change.
func TestExecuteSeedAdmin_EmptyStore(t *testing.T) {
	store := newMockAccountStore()
	err := ExecuteSeedAdmin(context.Background(), CreateAccountDeps{
		AccountStore: store, GenerateID: fixedID, Now: fixedNow,
	}, "admin@club.nz", "initial-admin-pass1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(store.accounts))
	}
	seeded := store.accounts["test-id-001"]
	if seeded.Role != account.RoleAdmin {
		t.Errorf("expected role=admin, got %s", seeded.Role)
	}
	if !seeded.PasswordChangeRequired {
		t.Error("expected PasswordChangeRequired=true for seeded admin")
	}
}

// TestExecuteSeedAdmin_SkipsWhenAccountsExist tests seeding is a no-op
// once any account exists.
func TestExecuteSeedAdmin_SkipsWhenAccountsExist(t *testing.T) {
	store := newMockAccountStore()
	seedActiveAccount(t, store, "acc-1", "existing@club.nz", account.RoleAdmin, "correct-password-1")

	err := ExecuteSeedAdmin(context.Background(), CreateAccountDeps{
		AccountStore: store, GenerateID: fixedID, Now: fixedNow,
	}, "admin@club.nz", "initial-admin-pass1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.accounts) != 1 {
		t.Errorf("expected no new account, got %d accounts", len(store.accounts))
	}
}
