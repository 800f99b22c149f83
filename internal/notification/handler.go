package notification

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/auth"
	"CampusPortal/internal/helper"
)

type NotificationHandler struct {
	service *NotificationService
}

func NewNotificationHandler(service *NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListNotifications serves GET /api/notifications[?unread=true].
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	unreadOnly := false
	if raw := c.QueryParam("unread"); raw != "" {
		unreadOnly, err = strconv.ParseBool(raw)
		if err != nil {
			return apperr.ValidationFields("Invalid query", map[string]string{"unread": "must be true or false"})
		}
	}

	notifications, err := h.service.List(c.Request().Context(), caller, unreadOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	count, err := h.service.UnreadCount(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, count)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}

	n, err := h.service.MarkRead(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	updated, err := h.service.MarkAllRead(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": updated})
}
