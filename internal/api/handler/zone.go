package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/zones"
)

// ZoneHandler handles disaster zone catalogue endpoints.
type ZoneHandler struct {
	zones  *zones.Service
	logger zerolog.Logger
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(zoneService *zones.Service, logger zerolog.Logger) *ZoneHandler {
	return &ZoneHandler{zones: zoneService, logger: logger}
}

// ListZones handles GET /v1/zones - list the zone catalogue.
func (h *ZoneHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	items, err := h.zones.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list zones")
		response.InternalError(w, r, "failed to list zones")
		return
	}

	resp := models.ZoneListResponse{Items: make([]models.ZoneResponse, 0, len(items))}
	for _, zone := range items {
		resp.Items = append(resp.Items, toZoneResponse(zone))
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// CreateZone handles POST /v1/zones - register a new zone.
func (h *ZoneHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var input models.ZoneCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if !zones.ValidType(zones.Type(input.Type)) {
		response.BadRequest(w, r, "unknown zone type", []models.FieldError{
			{Field: "type", Message: "must be one of flood, fire, earthquake, chemical, tsunami"},
		})
		return
	}
	if input.RadiusMeters < 0 {
		response.BadRequest(w, r, "radius must not be negative", []models.FieldError{
			{Field: "radiusMeters", Message: "must not be negative"},
		})
		return
	}

	in := zones.CreateInput{
		Type:         zones.Type(input.Type),
		Name:         input.Name,
		CenterLat:    input.Center.Lat,
		CenterLon:    input.Center.Lon,
		RadiusMeters: input.RadiusMeters,
	}
	if input.ExpiresAt != nil {
		expiresAt := input.ExpiresAt.Time()
		in.ExpiresAt = &expiresAt
	}

	zone, err := h.zones.Create(r.Context(), in)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create zone")
		response.InternalError(w, r, "failed to create zone")
		return
	}

	response.Created(w, r, "/v1/zones/"+zone.ID, toZoneResponse(zone))
}

// DeleteZone handles DELETE /v1/zones/{zoneId} - deactivate a zone.
func (h *ZoneHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneId")
	if err := h.zones.Deactivate(r.Context(), zoneID); err != nil {
		if errors.Is(err, zones.ErrZoneNotFound) {
			response.NotFound(w, r, "zone not found")
			return
		}
		h.logger.Error().Err(err).Str("zone_id", zoneID).Msg("failed to deactivate zone")
		response.InternalError(w, r, "failed to deactivate zone")
		return
	}
	response.NoContent(w, r)
}

func toZoneResponse(zone *zones.Zone) models.ZoneResponse {
	resp := models.ZoneResponse{
		ID:           zone.ID,
		Type:         string(zone.Type),
		Name:         zone.Name,
		Center:       models.Point{Lat: zone.CenterLat, Lon: zone.CenterLon},
		RadiusMeters: zone.RadiusMeters,
		BufferMeters: zones.BufferMeters(zone.Type),
		Active:       zone.Active,
		CreatedAt:    models.Timestamp(zone.CreatedAt),
	}
	if zone.ExpiresAt != nil {
		ts := models.Timestamp(*zone.ExpiresAt)
		resp.ExpiresAt = &ts
	}
	return resp
}
