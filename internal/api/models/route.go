package models

// PlanEndpoint identifies one end of a requested route, either as an
// explicit coordinate or as a free-text place name resolved by the
// geocoder. When both are set the coordinate wins.
type PlanEndpoint struct {
	Point *Point `json:"point,omitempty"`
	Query string `json:"query,omitempty"`
}

// RoutePlanRequest is the request body for POST /v1/routes:plan.
type RoutePlanRequest struct {
	Origin      *PlanEndpoint `json:"origin" validate:"required"`
	Destination *PlanEndpoint `json:"destination" validate:"required"`

	// AvoidancePolygon is the user-drawn polygon to route around.
	// Fewer than 3 usable points disables avoidance.
	AvoidancePolygon []Point `json:"avoidancePolygon,omitempty"`

	// RequestedIndex forces selection of a specific alternative.
	RequestedIndex *int `json:"requestedIndex,omitempty"`

	// IncludeActiveZones adds the active disaster zones as block areas.
	IncludeActiveZones bool `json:"includeActiveZones,omitempty"`
}

// RiskFactors is the safety breakdown of a planned route.
type RiskFactors struct {
	RoadRisk        float64 `json:"roadRisk"`
	ElevationRisk   float64 `json:"elevationRisk"`
	AvoidanceFactor float64 `json:"avoidanceFactor"`
	DynamicRisk     float64 `json:"dynamicRisk"`
	RRI             float64 `json:"rri"`
	SafetyScore     float64 `json:"safetyScore"`
}

// RouteStep is one turn-by-turn instruction.
type RouteStep struct {
	Text           string  `json:"text"`
	StreetName     string  `json:"streetName,omitempty"`
	DistanceMeters float64 `json:"distanceMeters"`
	DurationMillis int64   `json:"durationMillis"`
	Point          Point   `json:"point"`
}

// RouteAlternative summarises one scored candidate that was not selected.
type RouteAlternative struct {
	Index             int     `json:"index"`
	Geometry          string  `json:"geometry"`
	DistanceKm        float64 `json:"distanceKm"`
	DurationMinutes   float64 `json:"durationMinutes"`
	IntersectionRatio float64 `json:"intersectionRatio"`
	SafetyScore       float64 `json:"safetyScore"`
}

// RoutePlanResponse is the response for POST /v1/routes:plan.
type RoutePlanResponse struct {
	RouteID  string `json:"routeId"`
	Status   string `json:"status"`
	Provider string `json:"provider"`

	StartLocation string `json:"startLocation"`
	EndLocation   string `json:"endLocation"`
	Start         Point  `json:"start"`
	End           Point  `json:"end"`

	// Geometry is the winning path as an encoded polyline.
	Geometry string `json:"geometry"`

	DistanceKm       float64 `json:"distanceKm"`
	EstimatedMinutes float64 `json:"estimatedMinutes"`
	Distance         string  `json:"distance"`
	EstimatedTime    string  `json:"estimatedTime"`

	SafetyScore float64     `json:"safetyScore"`
	RiskFactors RiskFactors `json:"riskFactors"`

	ChosenIndex       int     `json:"chosenIndex"`
	IntersectionRatio float64 `json:"intersectionRatio"`
	BlockAreaApplied  bool    `json:"blockAreaApplied"`
	DetourApplied     bool    `json:"detourApplied"`

	Steps        []RouteStep        `json:"steps,omitempty"`
	Alternatives []RouteAlternative `json:"alternatives,omitempty"`

	GeneratedAt Timestamp `json:"generatedAt"`
}

// SavedRoute is a persisted route summary.
type SavedRoute struct {
	ID               string      `json:"id"`
	StartLocation    string      `json:"startLocation"`
	EndLocation      string      `json:"endLocation"`
	Start            Point       `json:"start"`
	End              Point       `json:"end"`
	Geometry         string      `json:"geometry"`
	DistanceKm       float64     `json:"distanceKm"`
	EstimatedMinutes float64     `json:"estimatedMinutes"`
	SafetyScore      float64     `json:"safetyScore"`
	RiskFactors      RiskFactors `json:"riskFactors"`
	Status           string      `json:"status"`
	CreatedAt        Timestamp   `json:"createdAt"`
}

// RouteListResponse is the paged response for GET /v1/routes.
type RouteListResponse struct {
	Items []SavedRoute      `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
