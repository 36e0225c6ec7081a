package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/virtuve/class-booking/internal/config"
)

// MetaHandler exposes the non-secret configuration the frontend needs.
type MetaHandler struct {
	Cfg config.Config
}

func NewMetaHandler(cfg config.Config) *MetaHandler {
	return &MetaHandler{Cfg: cfg}
}

// Config returns the publishable payment key.
func (h *MetaHandler) Config(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"stripe_publishable_key": h.Cfg.StripePublishableKey,
	})
}
