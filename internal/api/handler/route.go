package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/avoidance"
	"github.com/saferoute/saferoute/internal/geocoding"
	"github.com/saferoute/saferoute/internal/risk"
	"github.com/saferoute/saferoute/internal/routes"
	"github.com/saferoute/saferoute/internal/routing"
	"github.com/saferoute/saferoute/internal/zones"
	"github.com/saferoute/saferoute/pkg/polyline"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RouteHandler handles route planning and saved route endpoints.
type RouteHandler struct {
	engine   *routing.Engine
	geocoder *geocoding.Service
	zones    *zones.Service
	routes   *routes.Service
	logger   zerolog.Logger
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(engine *routing.Engine, geocoder *geocoding.Service, zoneService *zones.Service, routeService *routes.Service, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{
		engine:   engine,
		geocoder: geocoder,
		zones:    zoneService,
		routes:   routeService,
		logger:   logger,
	}
}

// PlanRoute handles POST /v1/routes:plan - plan the safest route.
func (h *RouteHandler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RoutePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.Origin == nil || input.Destination == nil {
		response.BadRequest(w, r, "origin and destination are required", []models.FieldError{
			{Field: "origin", Message: "required"},
			{Field: "destination", Message: "required"},
		})
		return
	}

	start, startName, ok := h.resolveEndpoint(w, r, "origin", input.Origin)
	if !ok {
		return
	}
	end, endName, ok := h.resolveEndpoint(w, r, "destination", input.Destination)
	if !ok {
		return
	}

	planReq := routing.PlanRequest{
		Start:          start,
		End:            end,
		RequestedIndex: input.RequestedIndex,
	}
	for _, p := range input.AvoidancePolygon {
		planReq.AvoidancePoints = append(planReq.AvoidancePoints, avoidance.Point{Lat: p.Lat, Lon: p.Lon})
	}
	if input.IncludeActiveZones {
		planReq.ExtraBlockAreas, planReq.ExtraZoneCount = h.zones.ActiveBlockAreas(r.Context())
	}

	plan, err := h.engine.PlanRoute(r.Context(), planReq)
	if err != nil {
		if errors.Is(err, routing.ErrInvalidCoordinates) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		h.logger.Error().Err(err).Msg("route planning failed")
		response.InternalError(w, r, "route planning failed")
		return
	}

	saved, err := h.routes.SavePlan(r.Context(), plan, routes.SaveInput{
		Start:     start,
		End:       end,
		StartName: startName,
		EndName:   endName,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to persist route")
		response.InternalError(w, r, "failed to persist route")
		return
	}

	response.JSON(w, r, http.StatusOK, toPlanResponse(saved, plan))
}

// resolveEndpoint turns a request endpoint into a coordinate, geocoding
// free-text queries. Writes the error response itself and reports ok=false
// when resolution fails.
func (h *RouteHandler) resolveEndpoint(w http.ResponseWriter, r *http.Request, field string, ep *models.PlanEndpoint) (routing.Coordinate, string, bool) {
	if ep.Point != nil {
		return routing.Coordinate{Lat: ep.Point.Lat, Lon: ep.Point.Lon}, "", true
	}
	if ep.Query == "" {
		response.BadRequest(w, r, field+" requires a point or a query", []models.FieldError{
			{Field: field, Message: "point or query required"},
		})
		return routing.Coordinate{}, "", false
	}

	loc, err := h.geocoder.Search(r.Context(), ep.Query)
	if err != nil {
		switch {
		case errors.Is(err, geocoding.ErrNotFound):
			response.NotFound(w, r, "no location found for "+strconv.Quote(ep.Query))
		case errors.Is(err, geocoding.ErrUnavailable):
			response.ServiceUnavailable(w, r, "geocoding service unavailable")
		default:
			response.InternalError(w, r, "geocoding failed")
		}
		return routing.Coordinate{}, "", false
	}
	return routing.Coordinate{Lat: loc.Lat, Lon: loc.Lon}, loc.DisplayName, true
}

// GetRoute handles GET /v1/routes/{routeId} - retrieve a saved route.
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	route, ok := h.fetchRoute(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, toSavedRoute(route))
}

// ListRoutes handles GET /v1/routes - list saved routes, newest first.
func (h *RouteHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, r, "limit must be a positive integer", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer"},
			})
			return
		}
		if parsed > maxListLimit {
			parsed = maxListLimit
		}
		limit = parsed
	}

	result, err := h.routes.List(r.Context(), routes.ListOptions{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list routes")
		response.InternalError(w, r, "failed to list routes")
		return
	}

	resp := models.RouteListResponse{
		Items: make([]models.SavedRoute, 0, len(result.Items)),
		Meta:  models.PagedResponseMeta{Limit: limit},
	}
	for _, route := range result.Items {
		resp.Items = append(resp.Items, toSavedRoute(route))
	}
	if result.NextCursor != "" {
		cursor := result.NextCursor
		resp.Meta.NextCursor = &cursor
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// DeleteRoute handles DELETE /v1/routes/{routeId}.
func (h *RouteHandler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")
	if err := h.routes.Delete(r.Context(), routeID); err != nil {
		if errors.Is(err, routes.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		h.logger.Error().Err(err).Str("route_id", routeID).Msg("failed to delete route")
		response.InternalError(w, r, "failed to delete route")
		return
	}
	response.NoContent(w, r)
}

// ExportKML handles GET /v1/routes/{routeId}/export.kml - KML download.
func (h *RouteHandler) ExportKML(w http.ResponseWriter, r *http.Request) {
	route, ok := h.fetchRoute(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="route-`+route.ID+`.kml"`)
	if err := routes.WriteKML(w, route); err != nil {
		h.logger.Error().Err(err).Str("route_id", route.ID).Msg("kml export failed")
	}
}

func (h *RouteHandler) fetchRoute(w http.ResponseWriter, r *http.Request) (*routes.Route, bool) {
	routeID := chi.URLParam(r, "routeId")
	route, err := h.routes.Get(r.Context(), routeID)
	if err != nil {
		if errors.Is(err, routes.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return nil, false
		}
		h.logger.Error().Err(err).Str("route_id", routeID).Msg("failed to load route")
		response.InternalError(w, r, "failed to load route")
		return nil, false
	}
	return route, true
}

func toPlanResponse(saved *routes.Route, plan *routing.Plan) models.RoutePlanResponse {
	resp := models.RoutePlanResponse{
		RouteID:           saved.ID,
		Status:            string(plan.Status),
		Provider:          plan.Provider,
		StartLocation:     saved.StartLocation,
		EndLocation:       saved.EndLocation,
		Start:             models.Point{Lat: saved.StartLat, Lon: saved.StartLon},
		End:               models.Point{Lat: saved.EndLat, Lon: saved.EndLon},
		Geometry:          saved.Geometry,
		DistanceKm:        saved.DistanceKm,
		EstimatedMinutes:  saved.EstimatedMinutes,
		Distance:          formatDistance(saved.DistanceKm),
		EstimatedTime:     formatDuration(saved.EstimatedMinutes),
		SafetyScore:       plan.Risk.SafetyScore,
		RiskFactors:       toRiskFactors(plan.Risk),
		ChosenIndex:       plan.SelectedIndex,
		IntersectionRatio: plan.IntersectionRatio,
		BlockAreaApplied:  plan.BlockAreaApplied,
		DetourApplied:     plan.DetourApplied,
		GeneratedAt:       models.Timestamp(time.Now()),
	}

	for _, step := range plan.Path.Steps {
		resp.Steps = append(resp.Steps, models.RouteStep{
			Text:           step.Text,
			StreetName:     step.StreetName,
			DistanceMeters: step.DistanceMeters,
			DurationMillis: step.DurationMillis,
			Point:          models.Point{Lat: step.Anchor.Lat, Lon: step.Anchor.Lon},
		})
	}

	for _, cand := range plan.Candidates {
		if cand.Index == plan.SelectedIndex {
			continue
		}
		resp.Alternatives = append(resp.Alternatives, models.RouteAlternative{
			Index:             cand.Index,
			Geometry:          encodeGeometry(cand.Path.Points),
			DistanceKm:        cand.DistanceKm,
			DurationMinutes:   cand.DurationMin,
			IntersectionRatio: cand.IntersectionRatio,
			SafetyScore:       cand.SafetyScore,
		})
	}

	return resp
}

func toSavedRoute(route *routes.Route) models.SavedRoute {
	return models.SavedRoute{
		ID:               route.ID,
		StartLocation:    route.StartLocation,
		EndLocation:      route.EndLocation,
		Start:            models.Point{Lat: route.StartLat, Lon: route.StartLon},
		End:              models.Point{Lat: route.EndLat, Lon: route.EndLon},
		Geometry:         route.Geometry,
		DistanceKm:       route.DistanceKm,
		EstimatedMinutes: route.EstimatedMinutes,
		SafetyScore:      route.SafetyScore,
		RiskFactors:      toRiskFactors(route.RiskFactors),
		Status:           route.Status,
		CreatedAt:        models.Timestamp(route.CreatedAt),
	}
}

func toRiskFactors(b risk.Breakdown) models.RiskFactors {
	return models.RiskFactors{
		RoadRisk:        b.RoadRisk,
		ElevationRisk:   b.ElevationRisk,
		AvoidanceFactor: b.AvoidanceFactor,
		DynamicRisk:     b.DynamicRisk,
		RRI:             b.RRI,
		SafetyScore:     b.SafetyScore,
	}
}

func encodeGeometry(points []routing.Coordinate) string {
	coords := make([]polyline.Coordinate, 0, len(points))
	for _, p := range points {
		coords = append(coords, polyline.Coordinate{Lat: p.Lat, Lon: p.Lon})
	}
	return polyline.Encode(coords)
}

func formatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%.0f m", km*1000)
	}
	return fmt.Sprintf("%.1f km", km)
}

func formatDuration(minutes float64) string {
	if minutes < 60 {
		return fmt.Sprintf("%.0f min", minutes)
	}
	hours := int(minutes) / 60
	rem := int(minutes) % 60
	if rem == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, rem)
}
