package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alacritas/backend/internal/models"
)

// TestAmountUnmarshalBothShapes verifies historical records parse whether the
// amount was stored as a number or a string.
func TestAmountUnmarshalBothShapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want models.Amount
	}{
		{"number", `5000`, "5000.00"},
		{"decimal number", `5000.5`, "5000.50"},
		{"string", `"5000"`, "5000.00"},
		{"decimal string", `"5000.50"`, "5000.50"},
		{"null", `null`, ""},
		{"empty string", `""`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var a models.Amount
			require.NoError(t, json.Unmarshal([]byte(tc.in), &a))
			assert.Equal(t, tc.want, a)
		})
	}
}

// TestAmountRejectsBadValues verifies negative and non-numeric amounts fail.
func TestAmountRejectsBadValues(t *testing.T) {
	for _, in := range []string{`-5`, `"-5"`, `"abc"`} {
		var a models.Amount
		assert.Error(t, json.Unmarshal([]byte(in), &a), "input %s", in)
	}
}

// TestAmountValue verifies numeric extraction.
func TestAmountValue(t *testing.T) {
	assert.Equal(t, 5000.5, models.Amount("5000.50").Value())
	assert.Zero(t, models.Amount("").Value())
}

// TestOfferStatusTerminal pins which states are terminal.
func TestOfferStatusTerminal(t *testing.T) {
	assert.True(t, models.OfferDeclined.Terminal())
	assert.True(t, models.OfferCancelled.Terminal())
	assert.False(t, models.OfferPending.Terminal())
	assert.False(t, models.OfferAccepted.Terminal())
	assert.False(t, models.OfferCounter.Terminal())
}

// TestChatMetaGatedFieldsOmitted verifies the gated fields disappear from the
// wire form when empty, so counter chats never even carry empty request-card
// keys.
func TestChatMetaGatedFieldsOmitted(t *testing.T) {
	meta := models.ChatMeta{ChatID: "offer-3", ClientFirstName: "Casey"}

	data, err := json.Marshal(meta)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.NotContains(t, m, "requestTitle")
	assert.NotContains(t, m, "offerAmount")
	assert.Contains(t, m, "clientFirstName")
}

// TestProfileHelpers covers the name, skill and avatar fallbacks.
func TestProfileHelpers(t *testing.T) {
	p := models.Profile{
		FullName: "Pat Q Provider",
		Skills:   []models.Skill{{Name: "Roofing", Verified: true}, {Name: "Carpentry"}},
	}
	assert.Equal(t, "Pat", p.FirstName("x"))
	assert.Equal(t, "Roofing, Carpentry", p.SkillSummary())
	assert.Contains(t, p.Avatar(), "Pat+Q+Provider")

	empty := models.Profile{}
	assert.Equal(t, "Client", empty.FirstName("Client"))
	assert.Empty(t, empty.SkillSummary())
	assert.Contains(t, empty.Avatar(), "ui-avatars.com")
}

// TestValidate pins the relational-field requirements.
func TestValidate(t *testing.T) {
	assert.Error(t, models.Request{ID: 1}.Validate())
	assert.NoError(t, models.Request{ID: 1, ClientID: "ClientAdmin"}.Validate())

	assert.Error(t, models.Offer{ID: 3, RequestID: 7}.Validate())
	assert.Error(t, models.Offer{ID: 3, ProviderID: "ProviderAdmin"}.Validate())
	assert.NoError(t, models.Offer{ID: 3, RequestID: 7, ProviderID: "ProviderAdmin"}.Validate())
}
