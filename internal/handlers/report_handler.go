package handlers

import (
	"strconv"
	"time"

	"backoffice/internal/models"
	"backoffice/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler serves the admin dashboard, reports, notifications and
// the audit trail.
type ReportHandler struct {
	reports       *services.ReportService
	notifications *services.NotificationService
	audit         *services.AuditService
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *services.ReportService, notifications *services.NotificationService, audit *services.AuditService) *ReportHandler {
	return &ReportHandler{
		reports:       reports,
		notifications: notifications,
		audit:         audit,
		now:           time.Now,
	}
}

// RegisterRoutes registers the admin reporting routes.
func (h *ReportHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	admin := []fiber.Handler{guards.Auth, guards.Admin}
	route := func(method, path string, handler fiber.Handler) {
		router.Add(method, path, append(admin, handler)...)
	}
	route(fiber.MethodGet, "/dashboard", h.HandleDashboard)
	route(fiber.MethodGet, "/reports/sales", h.HandleSalesReport)
	route(fiber.MethodGet, "/reports/status", h.HandleStatusDistribution)
	route(fiber.MethodGet, "/reports/stats", h.HandleOrderStats)

	route(fiber.MethodGet, "/notifications", h.HandleGetNotifications)
	route(fiber.MethodGet, "/notifications/unread-count", h.HandleUnreadCount)
	route(fiber.MethodPatch, "/notifications/:id/read", h.HandleMarkRead)
	route(fiber.MethodPost, "/notifications/read-all", h.HandleMarkAllRead)

	route(fiber.MethodGet, "/audit", h.HandleGetAudit)
}

// HandleDashboard returns today's summary.
func (h *ReportHandler) HandleDashboard(c *fiber.Ctx) error {
	dashboard, err := h.reports.Dashboard(c.UserContext(), h.now())
	if err != nil {
		return respondError(c, "Could not build dashboard", err)
	}
	return c.JSON(dashboard)
}

// HandleSalesReport summarizes sales between date_from and date_to. The
// range defaults to the last 30 days.
func (h *ReportHandler) HandleSalesReport(c *fiber.Ctx) error {
	from, err := queryDate(c, "date_from")
	if err != nil {
		return respondError(c, "Invalid report range", err)
	}
	to, err := queryDate(c, "date_to")
	if err != nil {
		return respondError(c, "Invalid report range", err)
	}
	if to.IsZero() {
		to = h.now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}

	report, err := h.reports.SalesReport(c.UserContext(), services.SalesReportFilter{
		From:   from,
		To:     to,
		Status: models.OrderStatus(c.Query("status")),
	})
	if err != nil {
		return respondError(c, "Could not build sales report", err)
	}
	return c.JSON(report)
}

// HandleStatusDistribution counts recent orders per status.
func (h *ReportHandler) HandleStatusDistribution(c *fiber.Ctx) error {
	counts, err := h.reports.StatusDistribution(c.UserContext(), h.now(), queryInt(c, "days", 30))
	if err != nil {
		return respondError(c, "Could not build status distribution", err)
	}
	return c.JSON(counts)
}

// HandleOrderStats counts all orders per status.
func (h *ReportHandler) HandleOrderStats(c *fiber.Ctx) error {
	stats, err := h.reports.OrderStats(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve order stats", err)
	}
	return c.JSON(stats)
}

// HandleGetNotifications lists notifications, optionally unread only.
func (h *ReportHandler) HandleGetNotifications(c *fiber.Ctx) error {
	unread, _ := strconv.ParseBool(c.Query("unread"))
	notifications, err := h.notifications.List(c.UserContext(), unread, queryLimit(c, 20))
	if err != nil {
		return respondError(c, "Could not retrieve notifications", err)
	}
	return c.JSON(notifications)
}

// HandleUnreadCount returns the unread notification count.
func (h *ReportHandler) HandleUnreadCount(c *fiber.Ctx) error {
	count, err := h.notifications.CountUnread(c.UserContext())
	if err != nil {
		return respondError(c, "Could not count notifications", err)
	}
	return c.JSON(fiber.Map{"unread": count})
}

// HandleMarkRead flags one notification as read.
func (h *ReportHandler) HandleMarkRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, "Could not update notification", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleMarkAllRead flags every notification as read.
func (h *ReportHandler) HandleMarkAllRead(c *fiber.Ctx) error {
	updated, err := h.notifications.MarkAllRead(c.UserContext())
	if err != nil {
		return respondError(c, "Could not update notifications", err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// HandleGetAudit lists the newest audit events.
func (h *ReportHandler) HandleGetAudit(c *fiber.Ctx) error {
	events, err := h.audit.List(c.UserContext(), c.Query("entity"), queryInt(c, "limit", 100))
	if err != nil {
		return respondError(c, "Could not retrieve audit events", err)
	}
	return c.JSON(events)
}
