// Package session supplies actor identity. The deployment runs with a small
// fixed identity set; the core treats the identity as an opaque string key.
package session

import (
	"errors"
	"fmt"
	"os"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"alacritas/backend/internal/config"
)

// Role labels the capacity an actor is acting in.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

// The valid identities for this deployment.
var knownActors = map[string]Role{
	"ClientAdmin":   RoleClient,
	"ProviderAdmin": RoleProvider,
}

var ErrUnknownActor = errors.New("session: unknown actor identity")

// Known reports whether the identity belongs to the fixed actor set.
func Known(actorID string) bool {
	_, ok := knownActors[actorID]
	return ok
}

// DefaultRole returns the capacity the identity logs in with. Actors can
// still switch modes afterwards; this is only the initial one.
func DefaultRole(actorID string) (Role, error) {
	role, ok := knownActors[actorID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownActor, actorID)
	}
	return role, nil
}

func secret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("alacritas-dev-secret")
}

// IssueToken creates a signed session token for the actor.
func IssueToken(actorID string) (string, error) {
	if !Known(actorID) {
		return "", fmt.Errorf("%w: %s", ErrUnknownActor, actorID)
	}
	claims := jwt.MapClaims{
		"actor_id": actorID,
		"exp":      time.Now().Add(config.TokenLifetime).Unix(),
		"iss":      "alacritas-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// ValidateToken checks the token and returns the actor identity it carries.
func ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret(), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("session: invalid token")
	}
	actorID, _ := claims["actor_id"].(string)
	if !Known(actorID) {
		return "", fmt.Errorf("%w: %s", ErrUnknownActor, actorID)
	}
	return actorID, nil
}
