package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"solowcrew/internal/services"
)

type DealHandler struct {
	deals *services.DealService
}

func NewDealHandler(deals *services.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

// ListDeals returns the active deals with their pricing snapshots.
// Supports ?category= and ?location= filters.
func (h *DealHandler) ListDeals(c echo.Context) error {
	filter := services.DealFilter{
		Category: c.QueryParam("category"),
		Location: c.QueryParam("location"),
	}

	summaries, err := h.deals.ListDeals(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"deals": summaries,
	})
}

// GetDeal returns one deal with its pools, members and tier list.
func (h *DealHandler) GetDeal(c echo.Context) error {
	dealID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid deal id")
	}

	summary, err := h.deals.GetDeal(c.Request().Context(), uint(dealID))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}
