package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/live-tracking/internal/core/ports"
)

// LocationHandler serves the last recorded location of a delivery.
type LocationHandler struct {
	service ports.LocationService
}

func NewLocationHandler(service ports.LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// Last handles GET /api/deliveries/:id/location.
//
// @Summary      Last recorded location of a delivery
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Delivery (order) id"
// @Success      200  {object}  domain.LastLocation
// @Failure      404  {object}  errorResponse
// @Router       /api/deliveries/{id}/location [get]
func (h *LocationHandler) Last(c echo.Context) error {
	loc, err := h.service.LastLocation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loc)
}
