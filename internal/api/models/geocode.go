package models

// GeocodeResponse is the response for GET /v1/geocode.
type GeocodeResponse struct {
	Query       string `json:"query"`
	DisplayName string `json:"displayName"`
	Point       Point  `json:"point"`
}
