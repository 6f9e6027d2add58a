package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/live-tracking/internal/api/metrics"
	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /api/orders. The caller becomes the order's vendor.
//
// @Summary      Create an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Order details"
// @Success      201   {object}  domain.Order
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.service.CreateOrder(c.Request().Context(), toCreateOrderInput(req, caller.UserID))
	if err != nil {
		return err
	}

	metrics.OrdersCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, order)
}

// Get handles GET /api/orders/:id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  domain.Order
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	order, err := h.service.GetOrder(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// ByVendor handles GET /api/orders/vendor/:vendor_id.
func (h *OrderHandler) ByVendor(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	orders, err := h.service.VendorOrders(c.Request().Context(), caller, c.Param("vendor_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderList(orders))
}

// ByPartner handles GET /api/orders/delivery/:partner_id.
func (h *OrderHandler) ByPartner(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	orders, err := h.service.PartnerOrders(c.Request().Context(), caller, c.Param("partner_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderList(orders))
}

// Assign handles POST /api/orders/:id/assign.
//
// @Summary      Assign a delivery partner
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Order id"
// @Param        body  body      assignPartnerRequest  true  "Partner"
// @Success      200   {object}  domain.Order
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/orders/{id}/assign [post]
func (h *OrderHandler) Assign(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req assignPartnerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.service.AssignPartner(c.Request().Context(), caller, c.Param("id"), req.DeliveryPartnerID)
	if err != nil {
		return err
	}

	metrics.OrderStatusTransitionsTotal.WithLabelValues(string(domain.StatusAssigned)).Inc()
	return c.JSON(http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/:id/status.
//
// @Summary      Update an order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Order id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.Order
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status := domain.OrderStatus(req.Status)
	order, err := h.service.UpdateStatus(c.Request().Context(), caller, c.Param("id"), status)
	if err != nil {
		return err
	}

	metrics.OrderStatusTransitionsTotal.WithLabelValues(string(status)).Inc()
	return c.JSON(http.StatusOK, order)
}

// AvailablePartners handles GET /api/delivery-partners/available.
func (h *OrderHandler) AvailablePartners(c echo.Context) error {
	partners, err := h.service.AvailablePartners(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPartnerList(partners))
}
