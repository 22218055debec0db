package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/featureflag"
	"clubhouse/internal/domain/parent"
)

// ErrParentPortalDisabled is returned when the parent portal flag is
// off.
var ErrParentPortalDisabled = errors.New("the parent portal is not available")

// ParentUserStoreForLogin is the parent-user access login needs.
type ParentUserStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (parent.User, error)
	Save(ctx context.Context, value parent.User) error
}

// ParentSessionStoreForLogin persists parent portal sessions.
type ParentSessionStoreForLogin interface {
	GetByToken(ctx context.Context, token string) (parent.Session, error)
	Save(ctx context.Context, value parent.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ParentLoginInput carries input for the parent-login orchestrator.
type ParentLoginInput struct {
	Email    string
	Password string
}

// ParentLoginDeps holds dependencies for ParentLogin.
type ParentLoginDeps struct {
	ParentStore  ParentUserStoreForLogin
	SessionStore ParentSessionStoreForLogin
	FlagStore    FlagStoreForPublish
	GenerateID   func() string
	Now          func() time.Time
}

// ParentLoginResult carries the authenticated parent and their session.
type ParentLoginResult struct {
	Parent  parent.User
	Session parent.Session
}

// ExecuteParentLogin authenticates a parent and opens a portal session.
// Parents follow the same lockout rule as staff: five straight failures
// lock the account for fifteen minutes.
// PRE: the parent portal flag is enabled
// POST: on success a session valid for parent.SessionTTL is persisted
func ExecuteParentLogin(ctx context.Context, input ParentLoginInput, deps ParentLoginDeps) (ParentLoginResult, error) {
	flag, err := deps.FlagStore.GetByKey(ctx, featureflag.KeyParentPortal)
	if err != nil || !flag.EnabledForRole("parent") {
		slog.Info("auth_event", "event", "parent_login_failed", "reason", "portal_disabled")
		return ParentLoginResult{}, ErrParentPortalDisabled
	}

	if input.Email == "" || input.Password == "" {
		return ParentLoginResult{}, ErrInvalidCredentials
	}

	p, err := deps.ParentStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.Info("auth_event", "event", "parent_login_failed", "email", input.Email, "reason", "not_found")
		return ParentLoginResult{}, ErrInvalidCredentials
	}

	now := deps.Now()
	if p.IsLocked(now) {
		slog.Info("auth_event", "event", "parent_login_failed", "parent_id", p.ID, "reason", "locked")
		return ParentLoginResult{}, ErrAccountLocked
	}

	if err := p.CheckPassword(input.Password); err != nil {
		p.RecordFailedLogin(now)
		if err := deps.ParentStore.Save(ctx, p); err != nil {
			slog.Warn("parent_lockout_save_failed", "parent_id", p.ID, "error", err)
		}
		slog.Info("auth_event", "event", "parent_login_failed", "parent_id", p.ID, "reason", "wrong_password", "failed_logins", p.FailedLogins)
		return ParentLoginResult{}, ErrInvalidCredentials
	}

	p.ResetFailedLogins()
	if err := deps.ParentStore.Save(ctx, p); err != nil {
		return ParentLoginResult{}, err
	}

	session := parent.Session{
		ID:        deps.GenerateID(),
		ParentID:  p.ID,
		Token:     newOpaqueToken(),
		CreatedAt: now,
		ExpiresAt: now.Add(parent.SessionTTL),
	}
	if err := deps.SessionStore.Save(ctx, session); err != nil {
		return ParentLoginResult{}, err
	}

	slog.Info("auth_event", "event", "parent_login_success", "parent_id", p.ID)
	return ParentLoginResult{Parent: p, Session: session}, nil
}

// ParentLogoutDeps holds dependencies for ParentLogout.
type ParentLogoutDeps struct {
	SessionStore ParentSessionStoreForLogin
}

// ExecuteParentLogout closes a portal session. Unknown tokens are a
// no-op; the cookie is gone either way.
func ExecuteParentLogout(ctx context.Context, token string, deps ParentLogoutDeps) error {
	if token == "" {
		return nil
	}
	session, err := deps.SessionStore.GetByToken(ctx, token)
	if err != nil {
		return nil
	}
	if err := deps.SessionStore.Delete(ctx, session.ID); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "parent_logout", "parent_id", session.ParentID)
	return nil
}

// ResolveParentSessionDeps holds dependencies for ResolveParentSession.
type ResolveParentSessionDeps struct {
	SessionStore ParentSessionStoreForLogin
	ParentStore  ParentLookupStore
	Now          func() time.Time
}

// ExecuteResolveParentSession maps a portal cookie token to the parent
// it belongs to. Expired sessions are deleted on sight.
// POST: returns the parent for a live session, ErrSessionExpired otherwise
func ExecuteResolveParentSession(ctx context.Context, token string, deps ResolveParentSessionDeps) (parent.User, error) {
	if token == "" {
		return parent.User{}, parent.ErrSessionExpired
	}
	session, err := deps.SessionStore.GetByToken(ctx, token)
	if err != nil {
		return parent.User{}, parent.ErrSessionExpired
	}
	if session.IsExpired(deps.Now()) {
		if err := deps.SessionStore.Delete(ctx, session.ID); err != nil {
			slog.Warn("parent_session_delete_failed", "session_id", session.ID, "error", err)
		}
		return parent.User{}, parent.ErrSessionExpired
	}

	p, err := deps.ParentStore.GetByID(ctx, session.ParentID)
	if err != nil {
		return parent.User{}, parent.ErrSessionExpired
	}
	return p, nil
}

// SweepParentSessionsDeps holds dependencies for SweepParentSessions.
type SweepParentSessionsDeps struct {
	SessionStore ParentSessionStoreForLogin
	Now          func() time.Time
}

// ExecuteSweepParentSessions deletes expired portal sessions. Runs on a
// background ticker; safe to call at any time.
func ExecuteSweepParentSessions(ctx context.Context, deps SweepParentSessionsDeps) (int64, error) {
	deleted, err := deps.SessionStore.DeleteExpired(ctx, deps.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		slog.Info("session_event", "event", "parent_sessions_swept", "deleted", deleted)
	}
	return deleted, nil
}

// StartParentSessionSweeper runs the sweep on a fixed interval until
// stopCh closes.
func StartParentSessionSweeper(deps SweepParentSessionsDeps, interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := ExecuteSweepParentSessions(ctx, deps); err != nil {
				slog.Error("parent_session_sweep_failed", "error", err)
			}
			cancel()
		case <-stopCh:
			return
		}
	}
}
