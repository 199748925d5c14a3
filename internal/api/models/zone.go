package models

// ZoneCreateRequest is the request body for POST /v1/zones.
type ZoneCreateRequest struct {
	Type         string     `json:"type" validate:"required"`
	Name         string     `json:"name"`
	Center       Point      `json:"center" validate:"required"`
	RadiusMeters float64    `json:"radiusMeters" validate:"gte=0"`
	ExpiresAt    *Timestamp `json:"expiresAt,omitempty"`
}

// ZoneResponse is a disaster zone as returned by the API.
type ZoneResponse struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Name         string     `json:"name"`
	Center       Point      `json:"center"`
	RadiusMeters float64    `json:"radiusMeters"`
	BufferMeters float64    `json:"bufferMeters"`
	Active       bool       `json:"active"`
	ExpiresAt    *Timestamp `json:"expiresAt,omitempty"`
	CreatedAt    Timestamp  `json:"createdAt"`
}

// ZoneListResponse is the response for GET /v1/zones.
type ZoneListResponse struct {
	Items []ZoneResponse `json:"items"`
}
