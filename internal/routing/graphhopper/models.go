package graphhopper

import (
	"encoding/json"
	"fmt"
)

// ghRequest represents the GraphHopper route API request body.
type ghRequest struct {
	// Points are [lon, lat] pairs (GeoJSON order).
	Points            [][]float64 `json:"points"`
	Profile           string      `json:"profile"`
	Algorithm         string      `json:"algorithm,omitempty"`
	AlternativeRoute  *altOpts    `json:"alternative_route,omitempty"`
	BlockArea         string      `json:"block_area,omitempty"`
	CHDisable         bool        `json:"ch.disable,omitempty"`
	Details           []string    `json:"details,omitempty"`
	Instructions      bool        `json:"instructions"`
	CalcPoints        bool        `json:"calc_points"`
	PointsEncoded     bool        `json:"points_encoded"`
	Locale            string      `json:"locale,omitempty"`
}

// altOpts configures alternative route generation.
type altOpts struct {
	MaxPaths int `json:"max_paths"`
}

// ghResponse represents the GraphHopper route API response.
type ghResponse struct {
	Paths []ghPath `json:"paths"`
	Info  *ghInfo  `json:"info,omitempty"`
}

type ghInfo struct {
	Copyrights []string `json:"copyrights,omitempty"`
	Took       int      `json:"took,omitempty"`
}

// ghPath represents a single path in the response.
type ghPath struct {
	// Distance is in meters, Time in milliseconds.
	Distance float64 `json:"distance"`
	Time     int64   `json:"time"`

	// Points is a polyline-encoded string when points_encoded is true.
	Points string `json:"points"`

	BBox         []float64                  `json:"bbox,omitempty"`
	Instructions []ghInstruction            `json:"instructions,omitempty"`
	Details      map[string][]ghDetailEntry `json:"details,omitempty"`
	Ascend       float64                    `json:"ascend,omitempty"`
	Descend      float64                    `json:"descend,omitempty"`
}

// ghInstruction is one turn instruction.
type ghInstruction struct {
	Text       string  `json:"text"`
	Distance   float64 `json:"distance"`
	Time       int64   `json:"time"`
	StreetName string  `json:"street_name,omitempty"`
	Sign       int     `json:"sign"`
	Interval   []int   `json:"interval,omitempty"`
}

// ghDetailEntry is one [from, to, value] triple from a path detail array.
// The value slot holds a string for road_class and surface but can be a
// bool or number for other details, so decoding normalizes it to a string.
type ghDetailEntry struct {
	From  int
	To    int
	Value string
}

func (e *ghDetailEntry) UnmarshalJSON(data []byte) error {
	var raw [3]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("detail entry is not a triple: %w", err)
	}
	if err := json.Unmarshal(raw[0], &e.From); err != nil {
		return fmt.Errorf("detail entry from index: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.To); err != nil {
		return fmt.Errorf("detail entry to index: %w", err)
	}

	var s string
	if err := json.Unmarshal(raw[2], &s); err == nil {
		e.Value = s
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw[2], &b); err == nil {
		e.Value = fmt.Sprintf("%t", b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw[2], &n); err == nil {
		e.Value = fmt.Sprintf("%g", n)
		return nil
	}
	// Null or object values carry no risk signal.
	e.Value = ""
	return nil
}

// ghErrorResponse represents an error response from GraphHopper.
type ghErrorResponse struct {
	Message string   `json:"message"`
	Hints   []ghHint `json:"hints,omitempty"`
}

type ghHint struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
