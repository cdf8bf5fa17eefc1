package models

import "fmt"

// Request statuses. A request starts as a draft on the client and becomes
// pending once posted; accepted means one of its offers was accepted.
const (
	RequestDraft    = "draft"
	RequestPending  = "pending"
	RequestAccepted = "accepted"
)

// LatLon is an optional map pin attached to a request.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Request is a service job posted by a client actor. The store key is the
// canonical id; the embedded ID field is overwritten from the key on load.
type Request struct {
	ID          int      `json:"id"`
	ClientID    string   `json:"clientId"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	Date        string   `json:"date"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	Images      []string `json:"images"`
	LatLon      *LatLon  `json:"latLon,omitempty"`
}

// Validate reports whether the request carries its required relational field.
// A request without a clientId is a data-integrity defect, not a valid state.
func (r Request) Validate() error {
	if r.ClientID == "" {
		return fmt.Errorf("request %d: missing clientId", r.ID)
	}
	return nil
}

// Path returns the store path for this request.
func (r Request) Path() string {
	return fmt.Sprintf("requests/%d", r.ID)
}
