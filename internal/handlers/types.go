package handlers

import (
	"os"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts the resolved user id set by the auth middleware.
// Zero means the request slipped past authentication.
func currentUserID(c echo.Context) uint {
	if val := c.Get("userID"); val != nil {
		if id, ok := val.(uint); ok {
			return id
		}
	}
	return 0
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
