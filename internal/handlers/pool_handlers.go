package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"solowcrew/internal/services"
)

type PoolHandler struct {
	pools *services.PoolService
}

func NewPoolHandler(pools *services.PoolService) *PoolHandler {
	return &PoolHandler{pools: pools}
}

// Join claims a seat in a pool for the authenticated user and returns the
// fresh snapshot with the unlocked discount.
func (h *PoolHandler) Join(c echo.Context) error {
	poolID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pool id")
	}

	userID := currentUserID(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}

	result, err := h.pools.Join(c.Request().Context(), uint(poolID), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Checkout hands the authenticated user off to the payment gateway for
// their pending seat.
func (h *PoolHandler) Checkout(c echo.Context) error {
	poolID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pool id")
	}

	userID := currentUserID(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}

	callbackURL := getEnv("APP_URL", "http://localhost:8080") + "/bookings/success"
	result, err := h.pools.Checkout(c.Request().Context(), uint(poolID), userID, callbackURL)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
