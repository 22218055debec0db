package projections

import (
	"context"

	"clubhouse/internal/adapters/storage/loginsession"
	domainLogin "clubhouse/internal/domain/loginsession"
)

// defaultLoginSessionLimit bounds one page of the audit trail.
const defaultLoginSessionLimit = 50

// LoginSessionStore reads the login audit trail.
type LoginSessionStore interface {
	List(ctx context.Context, filter loginsession.ListFilter) ([]domainLogin.Record, error)
	Count(ctx context.Context, filter loginsession.ListFilter) (int, error)
}

// GetLoginSessionsQuery carries filters for the login audit listing.
type GetLoginSessionsQuery struct {
	Portal  string
	Email   string
	Outcome string
	Limit   int
	Offset  int
}

// GetLoginSessionsResult carries one page of the audit trail.
type GetLoginSessionsResult struct {
	Records []domainLogin.Record
	Total   int
}

// GetLoginSessionsDeps holds dependencies for GetLoginSessions.
type GetLoginSessionsDeps struct {
	LoginSessionStore LoginSessionStore
}

// QueryGetLoginSessions retrieves a filtered page of login attempts
// with the total match count for pagination.
// POST: Records are newest first as stored, Total ignores Limit/Offset
func QueryGetLoginSessions(ctx context.Context, query GetLoginSessionsQuery, deps GetLoginSessionsDeps) (GetLoginSessionsResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLoginSessionLimit
	}

	filter := loginsession.ListFilter{
		Portal:  query.Portal,
		Email:   query.Email,
		Outcome: query.Outcome,
		Limit:   limit,
		Offset:  query.Offset,
	}

	records, err := deps.LoginSessionStore.List(ctx, filter)
	if err != nil {
		return GetLoginSessionsResult{}, err
	}

	countFilter := filter
	countFilter.Limit = 0
	countFilter.Offset = 0
	total, err := deps.LoginSessionStore.Count(ctx, countFilter)
	if err != nil {
		return GetLoginSessionsResult{}, err
	}

	return GetLoginSessionsResult{Records: records, Total: total}, nil
}
