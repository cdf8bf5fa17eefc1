package config

import "time"

const (
	// Session
	TokenLifetime = 72 * time.Hour

	// Chat previews
	AcceptedGreeting = "Offer accepted! Start your conversation."
	CounterGreeting  = "Counter offer sent"

	// Uploads
	MaxUploadBytes = 8 << 20

	// Assistant
	AssistantTimeout = 20 * time.Second
	AssistantApology = "Sorry, I'm having trouble responding. Please try again."
)
