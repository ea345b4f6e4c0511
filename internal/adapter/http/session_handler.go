package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intekaih/toystore-app-sub001/internal/security"
)

type SessionHandler struct {
	guests *security.GuestSessions
}

func NewSessionHandler(guests *security.GuestSessions) *SessionHandler {
	return &SessionHandler{guests: guests}
}

// IssueGuestSession hands an anonymous browser a signed session token
// to key its cart with.
func (h *SessionHandler) IssueGuestSession(c *gin.Context) {
	token, err := h.guests.Issue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionToken": token})
}
