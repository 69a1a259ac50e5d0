package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"solowcrew/internal/services"
)

type BookingHandler struct {
	deals *services.DealService
}

func NewBookingHandler(deals *services.DealService) *BookingHandler {
	return &BookingHandler{deals: deals}
}

// ListBookings returns the authenticated user's bookings, newest first.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID := currentUserID(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}

	bookings, err := h.deals.ListBookings(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bookings": bookings,
	})
}
