// Package assistant wraps the chat-completion helper used for service
// estimations. It is purely advisory: nothing it returns touches core state,
// and failures come back as a user-facing apology string, never an error.
package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"alacritas/backend/internal/config"
)

// Reply is the assistant's answer. Success is false when the apology text is
// all there is.
type Reply struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// Client talks to a generative-completion HTTP endpoint. With no endpoint
// configured it answers every prompt with the apology.
type Client struct {
	Endpoint string
	APIKey   string
	HTTP     *http.Client
}

// NewFromEnv builds a client from ASSISTANT_ENDPOINT / ASSISTANT_API_KEY.
func NewFromEnv() *Client {
	return &Client{
		Endpoint: os.Getenv("ASSISTANT_ENDPOINT"),
		APIKey:   os.Getenv("ASSISTANT_API_KEY"),
		HTTP:     &http.Client{Timeout: config.AssistantTimeout},
	}
}

// Ask sends the prompt with estimation context and returns the reply.
func (c *Client) Ask(message, context string) Reply {
	if c.Endpoint == "" {
		return Reply{Success: false, Text: config.AssistantApology}
	}
	if context == "" {
		context = "home service"
	}

	prompt := fmt.Sprintf(`You are a helpful assistant for home service estimations. Help with:
- Cost estimates for repairs/renovations
- Service descriptions
- Timelines and materials
- Provider recommendations

Context: %s
User: %s`, context, message)

	body, err := json.Marshal(map[string]any{"prompt": prompt})
	if err != nil {
		return Reply{Success: false, Text: config.AssistantApology}
	}
	req, err := http.NewRequest(http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{Success: false, Text: config.AssistantApology}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Reply{Success: false, Text: config.AssistantApology}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Reply{Success: false, Text: config.AssistantApology}
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Text == "" {
		return Reply{Success: false, Text: config.AssistantApology}
	}
	return Reply{Success: true, Text: out.Text}
}
