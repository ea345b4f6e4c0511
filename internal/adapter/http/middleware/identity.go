package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/intekaih/toystore-app-sub001/configs"
	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/security"
)

const ownerCtxKey = "owner"

// GuestSessionHeader carries the guest token on anonymous requests.
const GuestSessionHeader = "X-Guest-Session"

// Identity resolves the acting owner key: a JWT-authenticated account,
// or a validated guest session token.
type Identity struct {
	cfg    configs.Config
	guests *security.GuestSessions
}

func NewIdentity(cfg configs.Config, guests *security.GuestSessions) *Identity {
	return &Identity{cfg: cfg, guests: guests}
}

// Owner returns the owner key resolved by Require/Resolve.
func Owner(c *gin.Context) (domain.OwnerKey, bool) {
	v, ok := c.Get(ownerCtxKey)
	if !ok {
		return domain.OwnerKey{}, false
	}
	k, ok := v.(domain.OwnerKey)
	return k, ok
}

// RequireAccount admits only JWT-authenticated accounts.
func (a *Identity) RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := a.accountFromJWT(c)
		if !ok {
			return // accountFromJWT already aborted
		}
		c.Set(ownerCtxKey, key)
		c.Next()
	}
}

// Resolve admits either an account (JWT) or a guest (session header).
func (a *Identity) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			key, ok := a.accountFromJWT(c)
			if !ok {
				return
			}
			c.Set(ownerCtxKey, key)
			c.Next()
			return
		}
		token := c.GetHeader(GuestSessionHeader)
		if token == "" || !a.guests.Validate(token) {
			unauth(c, "invalid_session", "missing or invalid guest session")
			return
		}
		c.Set(ownerCtxKey, domain.GuestKey(token))
		c.Next()
	}
}

// Optional resolves an identity when credentials are present but never
// rejects the request; used on public routes that show more to owners.
func (a *Identity) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			if key, ok := a.parseJWT(c.GetHeader("Authorization")); ok {
				c.Set(ownerCtxKey, key)
			}
		} else if token := c.GetHeader(GuestSessionHeader); token != "" && a.guests.Validate(token) {
			c.Set(ownerCtxKey, domain.GuestKey(token))
		}
		c.Next()
	}
}

func (a *Identity) accountFromJWT(c *gin.Context) (domain.OwnerKey, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		unauth(c, "invalid_request", "missing bearer token")
		return domain.OwnerKey{}, false
	}
	key, ok := a.parseJWT(auth)
	if !ok {
		unauth(c, "invalid_token", "invalid jwt")
		return domain.OwnerKey{}, false
	}
	return key, true
}

func (a *Identity) parseJWT(auth string) (domain.OwnerKey, bool) {
	raw := strings.TrimPrefix(auth, "Bearer ")
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.cfg.Security.JWTSecret), nil
	}, jwt.WithLeeway(30*time.Second)) // small clock skew

	if err != nil || !token.Valid {
		return domain.OwnerKey{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.OwnerKey{}, false
	}
	if claims["iss"] != a.cfg.Security.Issuer || claims["aud"] != a.cfg.Security.Audience {
		return domain.OwnerKey{}, false
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return domain.OwnerKey{}, false
	}
	return domain.AccountKey(sub), true
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}
