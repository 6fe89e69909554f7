package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/auth"
	"github.com/spec-kit/legal-aid-service/internal/service"
)

// NotificationHandler serves the caller's inbox.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs handler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /notifications?unread=true.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.notifications.List(c.UserContext(), actor, c.QueryBool("unread", false), pageFromQuery(c))
	if err != nil {
		return err
	}
	return list(c, result, notificationResponse)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	updated, err := h.notifications.MarkAllRead(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"updated": updated})
}
