package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"clubhouse/internal/domain/featureflag"
	"clubhouse/internal/domain/parent"
)

// mockParentUserStore implements the parent user store interfaces.
type mockParentUserStore struct {
	users map[string]parent.User
}

func newMockParentUserStore() *mockParentUserStore {
	return &mockParentUserStore{users: make(map[string]parent.User)}
}

func (m *mockParentUserStore) GetByID(_ context.Context, id string) (parent.User, error) {
	u, ok := m.users[id]
	if !ok {
		return parent.User{}, errors.New("not found")
	}
	return u, nil
}

func (m *mockParentUserStore) GetByEmail(_ context.Context, email string) (parent.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return parent.User{}, errors.New("not found")
}

func (m *mockParentUserStore) Save(_ context.Context, u parent.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockParentUserStore) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

// mockParentSessionStore implements the parent session store interfaces.
type mockParentSessionStore struct {
	sessions map[string]parent.Session
}

func newMockParentSessionStore() *mockParentSessionStore {
	return &mockParentSessionStore{sessions: make(map[string]parent.Session)}
}

func (m *mockParentSessionStore) GetByToken(_ context.Context, token string) (parent.Session, error) {
	for _, s := range m.sessions {
		if s.Token == token {
			return s, nil
		}
	}
	return parent.Session{}, errors.New("not found")
}

func (m *mockParentSessionStore) Save(_ context.Context, s parent.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *mockParentSessionStore) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockParentSessionStore) DeleteByParentID(_ context.Context, parentID string) error {
	for id, s := range m.sessions {
		if s.ParentID == parentID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *mockParentSessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func parentPortalFlag(enabled bool) *mockFlagStore {
	return newMockFlagStore(featureflag.FeatureFlag{
		Key:           featureflag.KeyParentPortal,
		Enabled:       enabled,
		EnabledAdmin:  true,
		EnabledParent: true,
	})
}

func seedParent(t *testing.T, store *mockParentUserStore, id, email, password string) parent.User {
	t.Helper()
	u := parent.User{ID: id, Email: email, Name: "Dana Brooks", CreatedAt: fixedTime.Add(-24 * time.Hour)}
	if err := u.SetPassword(password); err != nil {
		t.Fatalf("seed parent: %v", err)
	}
	store.users[id] = u
	return u
}

func parentLoginFixture(t *testing.T) ParentLoginDeps {
	t.Helper()
	parents := newMockParentUserStore()
	seedParent(t, parents, "p1", "dana@email.com", "a-long-parent-pass")
	return ParentLoginDeps{
		ParentStore:  parents,
		SessionStore: newMockParentSessionStore(),
		FlagStore:    parentPortalFlag(true),
		GenerateID:   fixedID,
		Now:          fixedNow,
	}
}

// TestExecuteParentLogin_Valid tests a portal login.
func TestExecuteParentLogin_Valid(t *testing.T) {
	deps := parentLoginFixture(t)
	result, err := ExecuteParentLogin(context.Background(), ParentLoginInput{
		Email: "dana@email.com", Password: "a-long-parent-pass",
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Parent.ID != "p1" {
		t.Errorf("expected parent p1, got %s", result.Parent.ID)
	}
	if len(result.Session.Token) != 64 {
		t.Errorf("expected 64-char opaque token, got %d chars", len(result.Session.Token))
	}
	want := fixedTime.Add(parent.SessionTTL)
	if !result.Session.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, result.Session.ExpiresAt)
	}

	sessions := deps.SessionStore.(*mockParentSessionStore)
	if len(sessions.sessions) != 1 {
		t.Error("expected session to be persisted")
	}
}

// TestExecuteParentLogin_PortalDisabled tests the feature gate.
func TestExecuteParentLogin_PortalDisabled(t *testing.T) {
	deps := parentLoginFixture(t)
	deps.FlagStore = parentPortalFlag(false)

	_, err := ExecuteParentLogin(context.Background(), ParentLoginInput{
		Email: "dana@email.com", Password: "a-long-parent-pass",
	}, deps)
	if !errors.Is(err, ErrParentPortalDisabled) {
		t.Fatalf("expected ErrParentPortalDisabled, got %v", err)
	}
}

// TestExecuteParentLogin_WrongPassword tests the failure counter.
func TestExecuteParentLogin_WrongPassword(t *testing.T) {
	deps := parentLoginFixture(t)
	_, err := ExecuteParentLogin(context.Background(), ParentLoginInput{
		Email: "dana@email.com", Password: "not-the-password",
	}, deps)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	parents := deps.ParentStore.(*mockParentUserStore)
	if parents.users["p1"].FailedLogins != 1 {
		t.Errorf("expected 1 failed login recorded, got %d", parents.users["p1"].FailedLogins)
	}
}

// TestExecuteParentLogin_Lockout tests the five-failure lockout rule.
func TestExecuteParentLogin_Lockout(t *testing.T) {
	deps := parentLoginFixture(t)
	for i := 0; i < parent.MaxFailedLogins; i++ {
		if _, err := ExecuteParentLogin(context.Background(), ParentLoginInput{
			Email: "dana@email.com", Password: "not-the-password",
		}, deps); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// Even the right password is refused while locked.
	_, err := ExecuteParentLogin(context.Background(), ParentLoginInput{
		Email: "dana@email.com", Password: "a-long-parent-pass",
	}, deps)
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

// TestExecuteParentLogin_UnknownEmail tests that unknown parents get the
// same error as a bad password.
func TestExecuteParentLogin_UnknownEmail(t *testing.T) {
	deps := parentLoginFixture(t)
	_, err := ExecuteParentLogin(context.Background(), ParentLoginInput{
		Email: "nobody@email.com", Password: "a-long-parent-pass",
	}, deps)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// TestExecuteParentLogout tests closing a session.
func TestExecuteParentLogout(t *testing.T) {
	sessions := newMockParentSessionStore()
	sessions.sessions["sess-1"] = parent.Session{
		ID: "sess-1", ParentID: "p1", Token: "token-1",
		CreatedAt: fixedTime, ExpiresAt: fixedTime.Add(parent.SessionTTL),
	}

	if err := ExecuteParentLogout(context.Background(), "token-1", ParentLogoutDeps{SessionStore: sessions}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Error("expected session deleted")
	}

	// Logging out an unknown token is a no-op.
	if err := ExecuteParentLogout(context.Background(), "gone", ParentLogoutDeps{SessionStore: sessions}); err != nil {
		t.Errorf("unexpected error for unknown token: %v", err)
	}
}

// TestExecuteResolveParentSession_Valid tests cookie resolution.
func TestExecuteResolveParentSession_Valid(t *testing.T) {
	parents := newMockParentUserStore()
	seedParent(t, parents, "p1", "dana@email.com", "a-long-parent-pass")
	sessions := newMockParentSessionStore()
	sessions.sessions["sess-1"] = parent.Session{
		ID: "sess-1", ParentID: "p1", Token: "token-1",
		CreatedAt: fixedTime, ExpiresAt: fixedTime.Add(time.Hour),
	}

	p, err := ExecuteResolveParentSession(context.Background(), "token-1", ResolveParentSessionDeps{
		SessionStore: sessions, ParentStore: parents, Now: fixedNow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("expected parent p1, got %s", p.ID)
	}
}

// TestExecuteResolveParentSession_Expired tests that stale sessions are
// deleted on sight.
func TestExecuteResolveParentSession_Expired(t *testing.T) {
	parents := newMockParentUserStore()
	seedParent(t, parents, "p1", "dana@email.com", "a-long-parent-pass")
	sessions := newMockParentSessionStore()
	sessions.sessions["sess-1"] = parent.Session{
		ID: "sess-1", ParentID: "p1", Token: "token-1",
		CreatedAt: fixedTime.Add(-8 * 24 * time.Hour), ExpiresAt: fixedTime.Add(-24 * time.Hour),
	}

	_, err := ExecuteResolveParentSession(context.Background(), "token-1", ResolveParentSessionDeps{
		SessionStore: sessions, ParentStore: parents, Now: fixedNow,
	})
	if !errors.Is(err, parent.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Error("expected expired session deleted")
	}
}

// TestExecuteSweepParentSessions tests the background sweep.
func TestExecuteSweepParentSessions(t *testing.T) {
	sessions := newMockParentSessionStore()
	sessions.sessions["old"] = parent.Session{
		ID: "old", ParentID: "p1", Token: "t-old", ExpiresAt: fixedTime.Add(-time.Hour),
	}
	sessions.sessions["live"] = parent.Session{
		ID: "live", ParentID: "p1", Token: "t-live", ExpiresAt: fixedTime.Add(time.Hour),
	}

	deleted, err := ExecuteSweepParentSessions(context.Background(), SweepParentSessionsDeps{
		SessionStore: sessions, Now: fixedNow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, ok := sessions.sessions["live"]; !ok {
		t.Error("expected live session kept")
	}
}
