package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// GuestSessions issues and validates guest session tokens. A token is
// "<id>.<mac>" where mac is HMAC-SHA256 over the id, so a guest key
// presented on a request is a server-validated value, not an opaque
// client string trusted at face value.
type GuestSessions struct {
	secret []byte
}

func NewGuestSessions(secret string) *GuestSessions {
	return &GuestSessions{secret: []byte(secret)}
}

func (g *GuestSessions) Issue() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	id := base64.RawURLEncoding.EncodeToString(buf)
	return id + "." + g.mac(id), nil
}

func (g *GuestSessions) Validate(token string) bool {
	id, mac, ok := strings.Cut(token, ".")
	if !ok || id == "" {
		return false
	}
	return hmac.Equal([]byte(mac), []byte(g.mac(id)))
}

func (g *GuestSessions) mac(id string) string {
	h := hmac.New(sha256.New, g.secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
