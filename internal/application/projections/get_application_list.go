package projections

import (
	"context"

	"clubhouse/internal/adapters/storage/membership"
	domainMembership "clubhouse/internal/domain/membership"
)

// GetApplicationListQuery carries query parameters. Coaches pass their
// own ClubID; admins may leave it empty to see every club.
type GetApplicationListQuery struct {
	ClubID string
	Status string
	Limit  int
	Offset int
}

// ApplicationWithClub represents an application with its club's name.
type ApplicationWithClub struct {
	Application domainMembership.Application
	ClubName    string
}

// GetApplicationListResult carries the query result.
type GetApplicationListResult struct {
	Applications []ApplicationWithClub
	Total        int
}

// GetApplicationListDeps holds dependencies for GetApplicationList.
type GetApplicationListDeps struct {
	ApplicationStore ApplicationStore
	ClubStore        ClubStore // optional: nil skips club names
}

// QueryGetApplicationList retrieves membership applications with club
// names for the review screen.
// POST: Total counts matches across all pages of the same filter
func QueryGetApplicationList(ctx context.Context, query GetApplicationListQuery, deps GetApplicationListDeps) (GetApplicationListResult, error) {
	filter := membership.ListFilter{
		ClubID: query.ClubID,
		Status: query.Status,
		Limit:  query.Limit,
		Offset: query.Offset,
	}

	apps, err := deps.ApplicationStore.List(ctx, filter)
	if err != nil {
		return GetApplicationListResult{}, err
	}
	total, err := deps.ApplicationStore.Count(ctx, filter)
	if err != nil {
		return GetApplicationListResult{}, err
	}

	clubNames := make(map[string]string)
	result := GetApplicationListResult{Total: total}
	for _, app := range apps {
		awc := ApplicationWithClub{Application: app}
		if deps.ClubStore != nil {
			if name, ok := clubNames[app.ClubID]; ok {
				awc.ClubName = name
			} else if c, err := deps.ClubStore.GetByID(ctx, app.ClubID); err == nil {
				clubNames[app.ClubID] = c.Name
				awc.ClubName = c.Name
			}
		}
		result.Applications = append(result.Applications, awc)
	}

	return result, nil
}
