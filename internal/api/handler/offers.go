package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"alacritas/backend/internal/models"
	"alacritas/backend/internal/offers"
	"alacritas/backend/internal/views"
)

// ListOffers returns the actor's offers split into the three screen tabs.
// mode=client shows offers received on the actor's requests, the default
// shows offers the actor sent as a provider.
func (h *Handler) ListOffers(c *gin.Context) {
	actor := actorID(c)
	snap := h.Cache.Snapshot()

	var list []models.Offer
	if c.Query("mode") == "client" {
		list = views.OffersOnMyRequests(snap.Offers, snap.Requests, actor)
	} else {
		list = views.MyOffers(snap.Offers, actor)
	}
	list = views.FilterOffersByTitle(list, c.Query("search"))

	b := views.BucketOffers(list)
	c.JSON(http.StatusOK, gin.H{
		"pending": b.Pending,
		"ongoing": b.Ongoing,
		"history": b.History,
	})
}

// CreateOffer submits a new pending offer from the current actor against a
// request someone else owns.
func (h *Handler) CreateOffer(c *gin.Context) {
	actor := actorID(c)

	var body struct {
		RequestID   int           `json:"requestId"`
		Description string        `json:"description"`
		Amount      models.Amount `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer payload"})
		return
	}

	snap := h.Cache.Snapshot()
	req, ok := findRequest(snap.Requests, body.RequestID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	profile, ok := snap.Profiles[actor]
	if !ok {
		profile = models.DefaultProfile(actor)
	}

	offer, err := offers.New(views.NextOfferID(snap.Offers), req, actor,
		body.Description, body.Amount, profile, time.Now())
	if err != nil {
		writeLifecycleError(c, err)
		return
	}
	if err := h.Coordinator.SaveOffer(offer); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to save offer: " + err.Error()})
		return
	}
	h.Notifier.OfferEvent(offer, actor)
	c.JSON(http.StatusCreated, gin.H{"offer": offer})
}

// AcceptOffer accepts an offer on behalf of the requesting client. Requires
// explicit confirmation; acceptance materializes a chat and locks out the
// request's other offers.
func (h *Handler) AcceptOffer(c *gin.Context) {
	h.transition(c, func(o models.Offer, actor string, snap offerContext) (models.Offer, error) {
		return offers.Accept(o, actor, snap.request, snap.offers)
	}, true)
}

// DeclineOffer declines an offer on behalf of the requesting client.
func (h *Handler) DeclineOffer(c *gin.Context) {
	h.transition(c, func(o models.Offer, actor string, snap offerContext) (models.Offer, error) {
		return offers.Decline(o, actor, snap.request)
	}, true)
}

// CounterOffer records a client counter-request against the offer.
func (h *Handler) CounterOffer(c *gin.Context) {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid counter payload"})
		return
	}
	h.transitionPrebound(c, func(o models.Offer, actor string, snap offerContext) (models.Offer, error) {
		return offers.CounterPropose(o, actor, snap.request, body.Text, time.Now())
	})
}

// CancelOffer withdraws an offer on behalf of its provider. Requires explicit
// confirmation.
func (h *Handler) CancelOffer(c *gin.Context) {
	h.transition(c, func(o models.Offer, actor string, snap offerContext) (models.Offer, error) {
		return offers.Cancel(o, actor)
	}, true)
}

// EditOffer updates a still-negotiable offer's description and amount.
func (h *Handler) EditOffer(c *gin.Context) {
	var body struct {
		Description string        `json:"description"`
		Amount      models.Amount `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid edit payload"})
		return
	}
	h.transitionPrebound(c, func(o models.Offer, actor string, snap offerContext) (models.Offer, error) {
		return offers.Edit(o, actor, body.Description, body.Amount, time.Now())
	})
}

// offerContext carries the snapshot slices a transition guard may consult.
type offerContext struct {
	request models.Request
	offers  []models.Offer
}

type transitionFn func(o models.Offer, actor string, snap offerContext) (models.Offer, error)

// transition runs one guarded lifecycle step: locate the offer and its
// request, apply the transition, persist, notify.
func (h *Handler) transition(c *gin.Context, fn transitionFn, needsConfirm bool) {
	if needsConfirm && !confirmed(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation required"})
		return
	}
	h.transitionPrebound(c, fn)
}

// transitionPrebound is transition for routes that already consumed the
// request body during their own binding.
func (h *Handler) transitionPrebound(c *gin.Context, fn transitionFn) {
	actor := actorID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer id"})
		return
	}

	snap := h.Cache.Snapshot()
	offer, ok := findOffer(snap.Offers, id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
		return
	}
	req, _ := findRequest(snap.Requests, offer.RequestID)

	updated, err := fn(offer, actor, offerContext{request: req, offers: snap.Offers})
	if err != nil {
		writeLifecycleError(c, err)
		return
	}
	if err := h.Coordinator.SaveOffer(updated); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to save offer: " + err.Error()})
		return
	}
	h.Notifier.OfferEvent(updated, actor)
	c.JSON(http.StatusOK, gin.H{"offer": updated})
}

func writeLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, offers.ErrWrongActor):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, offers.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, offers.ErrRequestTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func findOffer(list []models.Offer, id int) (models.Offer, bool) {
	for _, o := range list {
		if o.ID == id {
			return o, true
		}
	}
	return models.Offer{}, false
}
