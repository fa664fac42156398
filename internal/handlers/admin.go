package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/srijanmgr/chiyapasal/internal/billing"
	"github.com/srijanmgr/chiyapasal/internal/dashboard"
	"github.com/srijanmgr/chiyapasal/internal/logging"
	"github.com/srijanmgr/chiyapasal/internal/models"
	"github.com/srijanmgr/chiyapasal/internal/storage"
)

// AdminHandler serves the staff dashboard: grouped pending orders, bills,
// settlement and the sound preference.
type AdminHandler struct {
	Aggregator *dashboard.Aggregator
	Bills      *billing.Generator
	Store      *storage.OrderStore
	Settings   *storage.SettingsStore
}

func (h *AdminHandler) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard")

	// The dashboard resends the generated_at of its previous snapshot as
	// the since cursor; play_sound is computed against it so a slow
	// poller never misses a new order and a fast one never hears it
	// twice.
	var since time.Time
	if raw := c.QueryParam("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			l.Warn("dashboard_failed", "status", 400, "reason", "bad since cursor", "since", raw)
			return echo.NewHTTPError(http.StatusBadRequest, "since must be an RFC3339 timestamp")
		}
		since = parsed
	}

	snapshot, err := h.Aggregator.Snapshot(ctx, since)
	if err != nil {
		l.Error("dashboard_failed", "status", 500, "reason", "cannot read orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read orders")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"tables":        snapshot.Tables,
		"table_numbers": snapshot.TableNumbers(),
		"play_sound":    snapshot.PlaySound,
		"generated_at":  snapshot.GeneratedAt,
	})
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	status := c.QueryParam("status")
	if status == "" {
		status = "all"
	}

	var (
		orders []models.Order
		err    error
	)
	switch status {
	case models.StatusPending:
		orders, err = h.Store.ListPending(ctx)
	case models.StatusPaid, "all":
		orders, err = h.Store.ListAll(ctx)
	default:
		l.Warn("list_orders_failed", "status", 400, "reason", "bad status filter", "filter", status)
		return echo.NewHTTPError(http.StatusBadRequest, "status must be pending, paid or all")
	}
	if err != nil {
		l.Error("list_orders_failed", "status", 500, "reason", "cannot read orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read orders")
	}

	if status == models.StatusPaid {
		paid := orders[:0]
		for _, o := range orders {
			if o.Status == models.StatusPaid {
				paid = append(paid, o)
			}
		}
		orders = paid
	}
	if orders == nil {
		orders = []models.Order{}
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) GetBill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.bill")

	tableNumber := c.Param("table")
	bill, err := h.Bills.ForTable(ctx, tableNumber)
	if err != nil {
		l.Error("bill_failed", "status", 500, "reason", "cannot read orders", "table", tableNumber, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot generate bill")
	}

	l.Info("bill_success", "table", tableNumber, "orders", bill.OrderCount, "total", bill.Total)
	return c.JSON(http.StatusOK, bill)
}

// MarkTablePaid settles a table. Settling a table with nothing pending is
// a no-op success, so a second staff client clicking pay a moment later
// observes zero settled orders instead of an error.
func (h *AdminHandler) MarkTablePaid(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.mark_paid")

	tableNumber := c.Param("table")
	settled, err := h.Store.MarkPaidByTable(ctx, tableNumber)
	if err != nil {
		l.Error("mark_paid_failed", "status", 500, "reason", "cannot update orders", "table", tableNumber, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark orders as paid. Please try again.")
	}

	if err := h.Aggregator.Refresh(ctx); err != nil {
		l.Warn("dashboard_refresh_after_pay_failed", "error", err)
	}

	l.Info("mark_paid_success", "table", tableNumber, "settled_orders", settled)
	return c.JSON(http.StatusOK, map[string]any{
		"table_number":   tableNumber,
		"settled_orders": settled,
		"message":        fmt.Sprintf("Bill for Table %s has been paid.", tableNumber),
	})
}

func (h *AdminHandler) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_order")

	id := c.Param("id")
	err := h.Store.DeleteByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		l.Warn("delete_order_failed", "status", 404, "reason", "order not found", "order_id", id)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		l.Error("delete_order_failed", "status", 500, "reason", "cannot delete order", "order_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete order")
	}

	if err := h.Aggregator.Refresh(ctx); err != nil {
		l.Warn("dashboard_refresh_after_delete_failed", "error", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) GetSoundPreference(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_sound")

	enabled, err := h.Settings.SoundEnabled(ctx)
	if err != nil {
		l.Error("get_sound_failed", "status", 500, "reason", "cannot read preference", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read sound preference")
	}
	return c.JSON(http.StatusOK, map[string]bool{"enabled": enabled})
}

func (h *AdminHandler) SetSoundPreference(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_sound")

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("set_sound_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Settings.SetSoundEnabled(ctx, req.Enabled); err != nil {
		l.Error("set_sound_failed", "status", 500, "reason", "cannot write preference", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save sound preference")
	}

	l.Info("set_sound_success", "enabled", req.Enabled)
	return c.JSON(http.StatusOK, map[string]bool{"enabled": req.Enabled})
}
