package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OfferStatus is the state of an offer's negotiation lifecycle.
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferDeclined  OfferStatus = "declined"
	OfferCounter   OfferStatus = "counter"
	OfferCancelled OfferStatus = "cancelled"
)

// Terminal reports whether no client-side transition may leave this status.
func (s OfferStatus) Terminal() bool {
	return s == OfferDeclined || s == OfferCancelled
}

// Amount is a decimal currency value. Historical records store it either as a
// JSON number or a string, so it unmarshals from both and always marshals as a
// string with two decimal places.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	if s == "" {
		*a = ""
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	if f < 0 {
		return fmt.Errorf("amount %q: negative", s)
	}
	*a = Amount(strconv.FormatFloat(f, 'f', 2, 64))
	return nil
}

// Value returns the numeric value of the amount, or 0 for an empty one.
func (a Amount) Value() float64 {
	f, _ := strconv.ParseFloat(string(a), 64)
	return f
}

// Offer is a provider's bid against exactly one request.
//
// Provider holds a snapshot of the provider's profile taken at send time.
// It is deliberately not a live reference: an offer is a historical record of
// the offer as made, and later profile edits must not alter it.
type Offer struct {
	ID               int         `json:"id"`
	RequestID        int         `json:"requestId"`
	ProviderID       string      `json:"providerId"`
	Title            string      `json:"title,omitempty"`
	Description      string      `json:"description"`
	Amount           Amount      `json:"amount"`
	Status           OfferStatus `json:"status"`
	Provider         *Profile    `json:"provider,omitempty"`
	CounterOffer     string      `json:"counterOffer,omitempty"`
	CounterOfferDate int64       `json:"counterOfferDate,omitempty"`
	Timestamp        int64       `json:"timestamp,omitempty"`
}

// Validate reports whether the offer carries its required relational fields.
func (o Offer) Validate() error {
	if o.RequestID == 0 {
		return fmt.Errorf("offer %d: missing requestId", o.ID)
	}
	if o.ProviderID == "" {
		return fmt.Errorf("offer %d: missing providerId", o.ID)
	}
	return nil
}

// Path returns the store path for this offer.
func (o Offer) Path() string {
	return fmt.Sprintf("offers/%d", o.ID)
}
