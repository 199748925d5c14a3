package zones

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestService(repo Repository) *Service {
	return NewService(ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   time.Hour,
	})
}

func TestService_CreateAndGet(t *testing.T) {
	svc := newTestService(NewInMemoryRepository())

	zone, err := svc.Create(context.Background(), CreateInput{
		Type:         TypeFlood,
		Name:         "river overflow",
		CenterLat:    23.25,
		CenterLon:    77.41,
		RadiusMeters: 500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !zone.Active {
		t.Error("expected new zone to be active")
	}

	stored, err := svc.Get(context.Background(), zone.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Name != "river overflow" {
		t.Errorf("unexpected name: %s", stored.Name)
	}
}

func TestService_Create_UnknownType(t *testing.T) {
	svc := newTestService(NewInMemoryRepository())

	_, err := svc.Create(context.Background(), CreateInput{Type: "volcano"})
	if err == nil {
		t.Fatal("expected error for unknown zone type")
	}
}

func TestService_ActiveExcludesDeactivated(t *testing.T) {
	svc := newTestService(NewInMemoryRepository())
	ctx := context.Background()

	kept, _ := svc.Create(ctx, CreateInput{Type: TypeFire, Name: "kept", RadiusMeters: 100})
	cleared, _ := svc.Create(ctx, CreateInput{Type: TypeFire, Name: "cleared", RadiusMeters: 100})

	if err := svc.Deactivate(ctx, cleared.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active := svc.Active(ctx)
	if len(active) != 1 {
		t.Fatalf("expected 1 active zone, got %d", len(active))
	}
	if active[0].ID != kept.ID {
		t.Errorf("expected %s to remain active", kept.ID)
	}
}

func TestService_ActiveCacheInvalidatedByCreate(t *testing.T) {
	svc := newTestService(NewInMemoryRepository())
	ctx := context.Background()

	if got := svc.Active(ctx); len(got) != 0 {
		t.Fatalf("expected no active zones, got %d", len(got))
	}

	if _, err := svc.Create(ctx, CreateInput{Type: TypeChemical, Name: "spill", RadiusMeters: 50}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := svc.Active(ctx); len(got) != 1 {
		t.Errorf("expected create to refresh the active set, got %d zones", len(got))
	}
}

func TestService_SweepExpired(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	if _, err := svc.Create(ctx, CreateInput{Type: TypeFlood, Name: "stale", ExpiresAt: &past}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Type: TypeFlood, Name: "fresh"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	swept, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if swept != 1 {
		t.Errorf("expected 1 swept zone, got %d", swept)
	}

	active := svc.Active(ctx)
	if len(active) != 1 || active[0].Name != "fresh" {
		t.Errorf("expected only the fresh zone to remain active")
	}
}

func TestService_ActiveBlockAreas(t *testing.T) {
	svc := newTestService(NewInMemoryRepository())
	ctx := context.Background()

	if areas, count := svc.ActiveBlockAreas(ctx); areas != nil || count != 0 {
		t.Errorf("expected empty block areas, got %v (%d)", areas, count)
	}

	if _, err := svc.Create(ctx, CreateInput{
		Type:         TypeTsunami,
		Name:         "coastal",
		CenterLat:    12.9,
		CenterLon:    80.2,
		RadiusMeters: 1000,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	areas, count := svc.ActiveBlockAreas(ctx)
	if count != 1 || len(areas) != 1 {
		t.Fatalf("expected 1 block area, got %d", len(areas))
	}
	if !strings.Contains(areas[0], ":") {
		t.Errorf("expected encoded ring, got %q", areas[0])
	}
}

func TestZone_Ring(t *testing.T) {
	zone := &Zone{
		Type:         TypeChemical,
		CenterLat:    23.25,
		CenterLon:    77.41,
		RadiusMeters: 700,
	}

	ring := zone.Ring()
	if len(ring) != ringSegments+1 {
		t.Fatalf("expected %d ring points, got %d", ringSegments+1, len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Error("expected closed ring")
	}

	// Chemical buffer is 300m, so the easternmost vertex sits 1000m out.
	wantDLon := 1000.0 / (metersPerDegree * 0.9188) // cos(23.25 deg) ~ 0.9188
	gotDLon := ring[0].Lon - zone.CenterLon
	if diff := gotDLon - wantDLon; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("expected dLon ~%f, got %f", wantDLon, gotDLon)
	}
}

func TestBufferMeters(t *testing.T) {
	if BufferMeters(TypeFlood) != 100 {
		t.Errorf("expected flood buffer 100, got %f", BufferMeters(TypeFlood))
	}
	if BufferMeters(TypeTsunami) != 400 {
		t.Errorf("expected tsunami buffer 400, got %f", BufferMeters(TypeTsunami))
	}
	if BufferMeters("unknown") != 400 {
		t.Errorf("expected unknown types to get the widest buffer")
	}
}
