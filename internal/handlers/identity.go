package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// userIDHeader carries the authenticated user's id, set by the gateway in
// front of this service.
const userIDHeader = "X-User-ID"

// requireUserID extracts the caller identity, aborting with 401 when absent.
func requireUserID(c *gin.Context) (string, bool) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing " + userIDHeader + " header"})
		return "", false
	}
	return userID, true
}
