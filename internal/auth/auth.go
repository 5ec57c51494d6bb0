package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenLifetime is how long an SDK token stays valid after issue.
	TokenLifetime = 7200 * time.Second

	sdkVersion   = 1
	userIdentity = "JavaScript"
	sessionKey   = "larstest"
)

var (
	ErrMissingSecret = errors.New("sdk secret not configured")
	ErrMissingTopic  = errors.New("session name required")
)

// SessionClaims is the claim set the Video SDK expects.
type SessionClaims struct {
	AppKey       string `json:"app_key"`
	RoleType     int    `json:"role_type"`
	Topic        string `json:"tpc"`
	Version      int    `json:"version"`
	UserIdentity string `json:"user_identity"`
	SessionKey   string `json:"session_key"`
	jwt.RegisteredClaims
}

// Signer issues HS256 tokens for the client SDK. Tokens are never
// verified by this service.
type Signer struct {
	key    string
	secret []byte
	now    func() time.Time
}

func NewSigner(key, secret string) *Signer {
	return &Signer{key: key, secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of s that reads the time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	c := *s
	c.now = now
	return &c
}

func (s *Signer) Sign(sessionName string, role int) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	if sessionName == "" {
		return "", ErrMissingTopic
	}

	// second precision, like the SDK's own samples
	iat := s.now().Truncate(time.Second)
	c := SessionClaims{
		AppKey:       s.key,
		RoleType:     role,
		Topic:        sessionName,
		Version:      sdkVersion,
		UserIdentity: userIdentity,
		SessionKey:   sessionKey,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(TokenLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}
