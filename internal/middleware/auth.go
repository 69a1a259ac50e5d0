package middleware

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"solowcrew/internal/models"
)

// RequireAuth verifies the Firebase session cookie and resolves the caller
// to a marketplace user row, created on first sight. Anonymous requests are
// rejected here so downstream handlers always operate on a concrete user
// identity.
func RequireAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "auth not configured")
			}

			cookie, err := c.Cookie("session")
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}

			decodedToken, err := authClient.VerifySessionCookie(c.Request().Context(), cookie.Value)
			if err != nil {
				clearCookie := &http.Cookie{
					Name:     "session",
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				}
				c.SetCookie(clearCookie)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			email, _ := decodedToken.Claims["email"].(string)
			name, _ := decodedToken.Claims["name"].(string)

			user, err := ensureUser(db, decodedToken.UID, email, name)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve user")
			}

			c.Set("userID", user.ID)
			c.Set("userUID", decodedToken.UID)
			c.Set("userEmail", user.Email)
			c.Set("userName", user.Name)

			return next(c)
		}
	}
}

// ensureUser fetches the user row for a Firebase UID, creating it on the
// first authenticated request.
func ensureUser(db *gorm.DB, uid, email, name string) (*models.User, error) {
	var user models.User
	err := db.Where("firebase_uid = ?", uid).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user = models.User{FirebaseUID: uid, Email: email, Name: name}
	if err := db.Create(&user).Error; err != nil {
		// Lost a race with a concurrent first request for the same UID
		if lookupErr := db.Where("firebase_uid = ?", uid).First(&user).Error; lookupErr == nil {
			return &user, nil
		}
		return nil, err
	}
	return &user, nil
}
