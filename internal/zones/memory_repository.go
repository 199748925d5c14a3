package zones

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository for
// testing and single-node deployments without a database.
type InMemoryRepository struct {
	mu    sync.RWMutex
	zones map[string]*Zone
	order []string
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		zones: make(map[string]*Zone),
	}
}

// Get retrieves a zone by ID.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	zone, ok := r.zones[id]
	if !ok {
		return nil, ErrZoneNotFound
	}
	return zone, nil
}

// List retrieves all zones, newest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Zone, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		result = append(result, r.zones[r.order[i]])
	}
	return result, nil
}

// ListActive retrieves zones currently in force.
func (r *InMemoryRepository) ListActive(ctx context.Context) ([]*Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now()
	var result []*Zone
	for i := len(r.order) - 1; i >= 0; i-- {
		zone := r.zones[r.order[i]]
		if zone.Active && !zone.Expired(now) {
			result = append(result, zone)
		}
	}
	return result, nil
}

// Create persists a new zone.
func (r *InMemoryRepository) Create(ctx context.Context, zone *Zone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.zones[zone.ID] = zone
	r.order = append(r.order, zone.ID)
	return nil
}

// Update updates an existing zone.
func (r *InMemoryRepository) Update(ctx context.Context, zone *Zone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.zones[zone.ID]; !ok {
		return ErrZoneNotFound
	}
	r.zones[zone.ID] = zone
	return nil
}

// Deactivate marks a zone inactive.
func (r *InMemoryRepository) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	zone, ok := r.zones[id]
	if !ok {
		return ErrZoneNotFound
	}
	zone.Active = false
	zone.UpdatedAt = time.Now()
	return nil
}

// DeactivateExpired marks all zones past their expiry inactive.
func (r *InMemoryRepository) DeactivateExpired(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	swept := 0
	for _, zone := range r.zones {
		if zone.Active && zone.Expired(now) {
			zone.Active = false
			zone.UpdatedAt = now
			swept++
		}
	}
	return swept, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
