package routes

import "context"

// ListOptions contains options for listing routes.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains the results of listing routes.
type ListResult struct {
	Items      []*Route
	NextCursor string
}

// Repository defines the interface for route persistence.
type Repository interface {
	// Get retrieves a route by ID.
	// Returns ErrRouteNotFound if the route doesn't exist.
	Get(ctx context.Context, id string) (*Route, error)

	// List retrieves routes ordered by creation time, newest first.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Create persists a new route.
	Create(ctx context.Context, route *Route) error

	// Delete deletes a route by ID.
	Delete(ctx context.Context, id string) error
}
