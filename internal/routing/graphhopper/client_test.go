package graphhopper

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/routing"
)

func TestClient_GetRoutes_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/route_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/route" {
			t.Errorf("expected path /route, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "mock123" {
			t.Errorf("expected key 'mock123', got '%s'", r.URL.Query().Get("key"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type 'application/json', got '%s'", r.Header.Get("Content-Type"))
		}

		body, _ := io.ReadAll(r.Body)
		var req ghRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body does not decode: %v", err)
		}
		if req.Profile != "car" {
			t.Errorf("expected profile car, got %s", req.Profile)
		}
		if req.Algorithm != "alternative_route" {
			t.Errorf("expected alternative_route algorithm, got %q", req.Algorithm)
		}
		if req.AlternativeRoute == nil || req.AlternativeRoute.MaxPaths != 3 {
			t.Error("expected alternative_route.max_paths 3")
		}
		if !req.PointsEncoded {
			t.Error("expected points_encoded true")
		}
		if len(req.Details) != 3 {
			t.Errorf("expected 3 detail categories, got %d", len(req.Details))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	resp, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Waypoints: []routing.Coordinate{
			{Lat: 23.2599, Lon: 77.4126},
			{Lat: 23.1673, Lon: 79.9499},
		},
		Profile:         routing.ProfileCar,
		MaxAlternatives: 2,
		Details:         []string{"road_class", "surface", "road_access"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Provider != ProviderName {
		t.Errorf("expected provider %s, got %s", ProviderName, resp.Provider)
	}
	if len(resp.Paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(resp.Paths))
	}

	path := resp.Paths[0]
	if path.DistanceMeters != 354870.2 {
		t.Errorf("expected distance 354870.2, got %f", path.DistanceMeters)
	}
	if path.DurationMillis != 12623000 {
		t.Errorf("expected duration 12623000, got %d", path.DurationMillis)
	}
	if len(path.Points) != 3 {
		t.Fatalf("expected 3 decoded points, got %d", len(path.Points))
	}
	// First point of the fixture polyline.
	if path.Points[0].Lat != 38.5 || path.Points[0].Lon != -120.2 {
		t.Errorf("unexpected first point: %+v", path.Points[0])
	}
	if len(path.Details["road_class"]) != 2 {
		t.Errorf("expected 2 road_class segments, got %d", len(path.Details["road_class"]))
	}
	if path.Details["road_class"][0].Value != "motorway" {
		t.Errorf("expected motorway, got %s", path.Details["road_class"][0].Value)
	}
	if len(path.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(path.Steps))
	}
	if path.Steps[0].StreetName != "NH 45" {
		t.Errorf("expected street name NH 45, got %s", path.Steps[0].StreetName)
	}
}

func TestClient_GetRoutes_BlockAreaDisablesCH(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req ghRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body does not decode: %v", err)
		}
		if req.BlockArea != "0.400000,0.400000:0.400000,0.600000:0.400000,0.400000;1.000000,1.000000:1.100000,1.100000:1.000000,1.000000" {
			t.Errorf("unexpected block_area: %s", req.BlockArea)
		}
		if !req.CHDisable {
			t.Error("expected ch.disable with block_area")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"paths":[{"distance":100,"time":10000,"points":"_p~iF~ps|U_ulLnnqC"}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Waypoints: []routing.Coordinate{{Lat: 0.5, Lon: 0}, {Lat: 0.5, Lon: 1}},
		BlockAreas: []string{
			"0.400000,0.400000:0.400000,0.600000:0.400000,0.400000",
			"1.000000,1.000000:1.100000,1.100000:1.000000,1.000000",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_GetRoutes_ViaPointSkipsAlternatives(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req ghRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body does not decode: %v", err)
		}
		if len(req.Points) != 3 {
			t.Errorf("expected 3 points, got %d", len(req.Points))
		}
		if req.Algorithm != "" || req.AlternativeRoute != nil {
			t.Error("via-point request must not ask for alternatives")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"paths":[{"distance":100,"time":10000,"points":"_p~iF~ps|U_ulLnnqC"}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Waypoints: []routing.Coordinate{
			{Lat: 0.5, Lon: 0},
			{Lat: 1.1, Lon: 0.5},
			{Lat: 0.5, Lon: 1},
		},
		MaxAlternatives: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_GetRoutes_NoRouteFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Connection between locations not found","hints":[{"message":"Connection between locations not found"}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Waypoints: []routing.Coordinate{{Lat: 52.3676, Lon: 4.9041}, {Lat: 52.0907, Lon: 5.1214}},
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrNoRouteFound) {
		t.Errorf("expected ErrNoRouteFound, got %v", routingErr.Err)
	}
}

func TestClient_GetRoutes_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"API limit reached"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Waypoints: []routing.Coordinate{{Lat: 52.3676, Lon: 4.9041}, {Lat: 52.0907, Lon: 5.1214}},
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrRateLimitExceeded) {
		t.Errorf("expected ErrRateLimitExceeded, got %v", routingErr.Err)
	}
}

func TestClient_GetRoutes_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"Internal server error"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})

	_, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Waypoints: []routing.Coordinate{{Lat: 52.3676, Lon: 4.9041}, {Lat: 52.0907, Lon: 5.1214}},
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", routingErr.Err)
	}
}

func TestClient_GetRoutes_InvalidWaypoints(t *testing.T) {
	tests := []struct {
		name      string
		waypoints []routing.Coordinate
	}{
		{
			name:      "latitude out of range",
			waypoints: []routing.Coordinate{{Lat: 91.0, Lon: 4.9}, {Lat: 52.0, Lon: 5.1}},
		},
		{
			name:      "longitude out of range",
			waypoints: []routing.Coordinate{{Lat: 52.0, Lon: 4.9}, {Lat: 52.0, Lon: 181.0}},
		},
		{
			name:      "single waypoint",
			waypoints: []routing.Coordinate{{Lat: 52.0, Lon: 4.9}},
		},
	}

	client := NewClient(ClientConfig{
		APIKey: "mock123",
		Logger: zerolog.Nop(),
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
				Waypoints: tt.waypoints,
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var routingErr *routing.Error
			if !errors.As(err, &routingErr) {
				t.Fatalf("expected routing.Error, got %T", err)
			}
			if !errors.Is(routingErr.Err, routing.ErrInvalidCoordinates) {
				t.Errorf("expected ErrInvalidCoordinates, got %v", routingErr.Err)
			}
		})
	}
}

func TestClient_Name(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "test", Logger: zerolog.Nop()})
	if client.Name() != ProviderName {
		t.Errorf("expected %s, got %s", ProviderName, client.Name())
	}
}

func TestClient_SupportedProfiles(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "test", Logger: zerolog.Nop()})

	profiles := client.SupportedProfiles()
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	hasCar := false
	hasTruck := false
	for _, p := range profiles {
		if p == routing.ProfileCar {
			hasCar = true
		}
		if p == routing.ProfileTruck {
			hasTruck = true
		}
	}
	if !hasCar {
		t.Error("expected ProfileCar in supported profiles")
	}
	if !hasTruck {
		t.Error("expected ProfileTruck in supported profiles")
	}
}

func TestDetailEntry_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		value string
	}{
		{name: "string value", raw: `[0, 5, "motorway"]`, value: "motorway"},
		{name: "bool value", raw: `[0, 5, true]`, value: "true"},
		{name: "number value", raw: `[0, 5, 30]`, value: "30"},
		{name: "null value", raw: `[0, 5, null]`, value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e ghDetailEntry
			if err := json.Unmarshal([]byte(tt.raw), &e); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.From != 0 || e.To != 5 {
				t.Errorf("unexpected interval: %d..%d", e.From, e.To)
			}
			if e.Value != tt.value {
				t.Errorf("expected value %q, got %q", tt.value, e.Value)
			}
		})
	}
}

// mockHTTPClient wraps http.Client to implement HTTPDoer interface.
type mockHTTPClient struct {
	client *http.Client
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.client.Do(req)
}
