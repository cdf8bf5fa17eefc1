// Package offers holds the state machine governing an offer's negotiation
// lifecycle. All status changes must route through these guarded transitions;
// ad hoc field assignment elsewhere would void the transition table's
// guarantees.
//
// pending  -> accepted | declined | counter | cancelled
// counter  -> accepted | declined | cancelled
// accepted -> cancelled (provider withdrawal after acceptance)
// declined, cancelled -> (terminal)
package offers

import (
	"errors"
	"fmt"
	"time"

	"alacritas/backend/internal/models"
)

var (
	// ErrIllegalTransition rejects a status change the table does not allow,
	// including any attempt to leave a terminal state.
	ErrIllegalTransition = errors.New("offers: illegal status transition")
	// ErrWrongActor rejects an action issued by an actor the table does not
	// grant it to.
	ErrWrongActor = errors.New("offers: action not allowed for this actor")
	// ErrEmptyFields rejects a save with a missing description or amount.
	ErrEmptyFields = errors.New("offers: description and amount are required")
	// ErrRequestTaken enforces the at-most-one-accepted-offer-per-request
	// invariant. The store does not order concurrent writes, so the check
	// happens here against the latest snapshot.
	ErrRequestTaken = errors.New("offers: request already has an accepted offer")
)

// negotiable reports whether a client decision (accept/decline/counter) is
// still possible.
func negotiable(s models.OfferStatus) bool {
	return s == models.OfferPending || s == models.OfferCounter
}

// Accept transitions the offer to accepted on behalf of the client who owns
// the targeted request. siblings is the current offer snapshot, used to
// enforce the single-accepted-offer invariant.
func Accept(o models.Offer, actorID string, req models.Request, siblings []models.Offer) (models.Offer, error) {
	if req.ClientID != actorID {
		return o, fmt.Errorf("%w: %s is not the requesting client", ErrWrongActor, actorID)
	}
	if !negotiable(o.Status) {
		return o, fmt.Errorf("%w: accept from %q", ErrIllegalTransition, o.Status)
	}
	for _, sib := range siblings {
		if sib.ID != o.ID && sib.RequestID == o.RequestID && sib.Status == models.OfferAccepted {
			return o, ErrRequestTaken
		}
	}
	o.Status = models.OfferAccepted
	return o, nil
}

// Decline transitions the offer to declined on behalf of the client.
func Decline(o models.Offer, actorID string, req models.Request) (models.Offer, error) {
	if req.ClientID != actorID {
		return o, fmt.Errorf("%w: %s is not the requesting client", ErrWrongActor, actorID)
	}
	if !negotiable(o.Status) {
		return o, fmt.Errorf("%w: decline from %q", ErrIllegalTransition, o.Status)
	}
	o.Status = models.OfferDeclined
	return o, nil
}

// CounterPropose records a client counter-request against the offer. The
// counter text travels with the offer, not as a new offer.
func CounterPropose(o models.Offer, actorID string, req models.Request, text string, now time.Time) (models.Offer, error) {
	if req.ClientID != actorID {
		return o, fmt.Errorf("%w: %s is not the requesting client", ErrWrongActor, actorID)
	}
	if !negotiable(o.Status) {
		return o, fmt.Errorf("%w: counter from %q", ErrIllegalTransition, o.Status)
	}
	if text == "" {
		return o, fmt.Errorf("%w: counter text", ErrEmptyFields)
	}
	o.Status = models.OfferCounter
	o.CounterOffer = text
	o.CounterOfferDate = now.UnixMilli()
	return o, nil
}

// Cancel withdraws the offer on behalf of its provider. Withdrawal is the one
// transition still allowed out of accepted; declined and cancelled stay
// terminal.
func Cancel(o models.Offer, actorID string) (models.Offer, error) {
	if o.ProviderID != actorID {
		return o, fmt.Errorf("%w: %s is not the offering provider", ErrWrongActor, actorID)
	}
	if o.Status.Terminal() {
		return o, fmt.Errorf("%w: cancel from %q", ErrIllegalTransition, o.Status)
	}
	o.Status = models.OfferCancelled
	return o, nil
}

// Edit updates the provider-owned fields without changing status. Both fields
// must be populated before any save is permitted.
func Edit(o models.Offer, actorID, description string, amount models.Amount, now time.Time) (models.Offer, error) {
	if o.ProviderID != actorID {
		return o, fmt.Errorf("%w: %s is not the offering provider", ErrWrongActor, actorID)
	}
	if !negotiable(o.Status) {
		return o, fmt.Errorf("%w: edit while %q", ErrIllegalTransition, o.Status)
	}
	if description == "" || amount == "" {
		return o, ErrEmptyFields
	}
	o.Description = description
	o.Amount = amount
	o.Timestamp = now.UnixMilli()
	return o, nil
}

// New builds a fresh pending offer carrying a snapshot of the provider's
// profile as it stands at send time.
func New(id int, req models.Request, providerID, description string, amount models.Amount, provider models.Profile, now time.Time) (models.Offer, error) {
	if description == "" || amount == "" {
		return models.Offer{}, ErrEmptyFields
	}
	if req.ClientID == providerID {
		return models.Offer{}, fmt.Errorf("%w: cannot bid on own request", ErrWrongActor)
	}
	snapshot := provider
	o := models.Offer{
		ID:          id,
		RequestID:   req.ID,
		ProviderID:  providerID,
		Title:       req.Title,
		Description: description,
		Amount:      amount,
		Status:      models.OfferPending,
		Provider:    &snapshot,
		Timestamp:   now.UnixMilli(),
	}
	return o, nil
}
