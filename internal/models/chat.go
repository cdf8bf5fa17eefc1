package models

// ChatIDPrefix makes chat ids deterministic per offer: "offer-<offerId>".
const ChatIDPrefix = "offer-"

// ChatMeta is the denormalized display bundle written once when a chat is
// materialized. Accepted-offer chats expose the full request card; counter
// chats deliberately expose only first names and a skill summary, because the
// parties have not yet agreed to share contact and location details.
type ChatMeta struct {
	ChatID      string      `json:"chatId"`
	OfferID     int         `json:"offerId"`
	RequestID   int         `json:"requestId"`
	ClientID    string      `json:"clientId"`
	ProviderID  string      `json:"providerId"`
	OfferStatus OfferStatus `json:"offerStatus"`
	IsAccepted  bool        `json:"isAccepted"`

	// Present only when the offer was accepted.
	RequestTitle     string `json:"requestTitle,omitempty"`
	RequestLocation  string `json:"requestLocation,omitempty"`
	RequestDate      string `json:"requestDate,omitempty"`
	RequestThumbnail string `json:"requestThumbnail,omitempty"`
	OfferAmount      Amount `json:"offerAmount,omitempty"`

	// Present only for counter-offer chats.
	ClientFirstName   string `json:"clientFirstName,omitempty"`
	ProviderFirstName string `json:"providerFirstName,omitempty"`
	ProviderSkills    string `json:"providerSkills,omitempty"`

	ClientAvatar   string `json:"clientAvatar"`
	ProviderAvatar string `json:"providerAvatar"`
	ClientName     string `json:"clientName"`
	ProviderName   string `json:"providerName"`
	LastMsg        string `json:"lastMsg"`
	LastMsgTime    int64  `json:"lastMsgTime"`
}

// HasParty reports whether the given actor is one of the two chat parties.
func (m ChatMeta) HasParty(actorID string) bool {
	return m.ClientID == actorID || m.ProviderID == actorID
}

// Chat is a materialized conversation thread bound 1:1 to one offer.
// Messages are keyed by store-assigned ordered push ids.
type Chat struct {
	ID       string             `json:"id"`
	Meta     ChatMeta           `json:"meta"`
	Messages map[string]Message `json:"messages"`
}

// Message is one chat utterance. Ordering within a chat is by Timestamp
// ascending, ties broken by the store-assigned key.
type Message struct {
	ID         string `json:"id,omitempty"`
	Text       string `json:"text"`
	SenderID   string `json:"senderId"`
	SenderRole string `json:"senderRole"`
	Timestamp  int64  `json:"timestamp"`
}
