package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"solowcrew/internal/services"
)

type WebhookHandler struct {
	pools    *services.PoolService
	midtrans *services.MidtransService
}

func NewWebhookHandler(pools *services.PoolService, midtrans *services.MidtransService) *WebhookHandler {
	return &WebhookHandler{pools: pools, midtrans: midtrans}
}

// PaymentNotification receives the gateway's asynchronous payment callback.
// The signature is verified before anything is trusted; processing is
// idempotent so the gateway's at-least-once redelivery is safe.
func (h *WebhookHandler) PaymentNotification(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable payload")
	}

	var notification services.PaymentNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed payload")
	}

	if !h.midtrans.VerifySignature(
		notification.OrderID,
		notification.StatusCode,
		notification.GrossAmount,
		notification.SignatureKey,
	) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	if err := h.pools.OnPaymentCompleted(c.Request().Context(), &notification, body); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
