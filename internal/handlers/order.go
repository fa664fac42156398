package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/srijanmgr/chiyapasal/internal/catalog"
	"github.com/srijanmgr/chiyapasal/internal/logging"
	"github.com/srijanmgr/chiyapasal/internal/ordering"
)

// OrderHandler serves the customer-facing surface: the menu and order
// placement. The table number arrives as a query parameter, carried over
// from the QR code the customer scanned.
type OrderHandler struct {
	Catalog *catalog.Catalog
	Service *ordering.Service
}

func (h *OrderHandler) GetMenu(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.Items())
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	tableNumber := c.QueryParam("table")

	var req struct {
		Quantities map[string]uint `json:"quantities"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Service.Place(ctx, tableNumber, req.Quantities)
	switch {
	case errors.Is(err, ordering.ErrMissingTable):
		l.Warn("place_order_failed", "status", 400, "reason", "missing table")
		return echo.NewHTTPError(http.StatusBadRequest, "Table number not set. Please scan the QR code again.")
	case errors.Is(err, ordering.ErrEmptyCart):
		l.Warn("place_order_failed", "status", 400, "reason", "empty cart", "table", tableNumber)
		return echo.NewHTTPError(http.StatusBadRequest, "Your cart is empty!")
	case errors.Is(err, ordering.ErrUnknownItem):
		l.Warn("place_order_failed", "status", 400, "reason", "unknown item", "table", tableNumber, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown menu item in cart.")
	case err != nil:
		l.Error("place_order_failed", "status", 500, "reason", "cannot store order", "table", tableNumber, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to place order. Please try again or call a staff member.")
	}

	l.Info("place_order_success", "order_id", order.ID, "table", order.TableNumber, "total", order.Total)
	return c.JSON(http.StatusCreated, order)
}
