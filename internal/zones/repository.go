package zones

import "context"

// Repository defines the interface for zone persistence.
type Repository interface {
	// Get retrieves a zone by ID.
	// Returns ErrZoneNotFound if the zone doesn't exist.
	Get(ctx context.Context, id string) (*Zone, error)

	// List retrieves all zones, active and inactive.
	List(ctx context.Context) ([]*Zone, error)

	// ListActive retrieves zones currently in force.
	ListActive(ctx context.Context) ([]*Zone, error)

	// Create persists a new zone.
	Create(ctx context.Context, zone *Zone) error

	// Update updates an existing zone.
	Update(ctx context.Context, zone *Zone) error

	// Deactivate marks a zone inactive.
	Deactivate(ctx context.Context, id string) error

	// DeactivateExpired marks all zones past their expiry inactive and
	// returns how many were swept.
	DeactivateExpired(ctx context.Context) (int, error)
}
