package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/geocoding"
)

// GeocodeHandler handles free-text geocoding.
type GeocodeHandler struct {
	geocoder *geocoding.Service
	logger   zerolog.Logger
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder *geocoding.Service, logger zerolog.Logger) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder, logger: logger}
}

// Geocode handles GET /v1/geocode?q= - resolve a place name.
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, r, "q is required", []models.FieldError{
			{Field: "q", Message: "required"},
		})
		return
	}

	loc, err := h.geocoder.Search(r.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, geocoding.ErrNotFound):
			response.NotFound(w, r, "no location found")
		case errors.Is(err, geocoding.ErrUnavailable):
			response.ServiceUnavailable(w, r, "geocoding service unavailable")
		default:
			h.logger.Error().Err(err).Msg("geocoding failed")
			response.InternalError(w, r, "geocoding failed")
		}
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	response.JSON(w, r, http.StatusOK, models.GeocodeResponse{
		Query:       query,
		DisplayName: loc.DisplayName,
		Point:       models.Point{Lat: loc.Lat, Lon: loc.Lon},
	})
}
