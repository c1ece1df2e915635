package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"socialflow/internal/middleware"
	"socialflow/internal/models"
	"socialflow/internal/notifications"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const maxPaginationLimit = 100

var validate = validator.New()

// parseBody decodes and validates a JSON request body. Callers respond with
// 400 on a non-nil return and must not touch the request struct afterwards.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return models.NewValidationError("Validation failed: " + err.Error())
	}
	return nil
}

// parsePagination reads limit/offset query params with sane defaults.
func parsePagination(c *fiber.Ctx) (limit, offset int) {
	limit = 50
	offset = 0
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// paginate slices a full result set into the requested window.
func paginate(posts []models.Post, limit, offset int) []models.Post {
	if offset >= len(posts) {
		return []models.Post{}
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end]
}

func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

func currentUserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals("userEmail").(string)
	return email
}

func currentUserRole(c *fiber.Ctx) models.UserRole {
	if role, ok := c.Locals("userRole").(models.UserRole); ok && role.Valid() {
		return role
	}
	return models.RoleUser
}

// actorLabel names the acting user in workflow events: email when known,
// user ID otherwise.
func actorLabel(c *fiber.Ctx) string {
	if email := currentUserEmail(c); email != "" {
		return email
	}
	return currentUserID(c)
}

// respondStoreError maps store errors to HTTP responses.
func respondStoreError(c *fiber.Ctx, err error) error {
	if models.IsNotFound(err) {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == "VALIDATION_ERROR" {
		return models.RespondWithError(c, fiber.StatusUnprocessableEntity, err)
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}

// publishWorkflowEvent fans a workflow event out to dashboards. With Redis
// the hub receives it through the pub/sub subscriber; without Redis the hub
// is fed directly.
func (s *Server) publishWorkflowEvent(ctx context.Context, eventType string, post models.Post, actor string) {
	event := notifications.WorkflowEvent{
		Type:       eventType,
		PostID:     post.ID,
		Title:      post.Title,
		Status:     post.Status,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}

	if s.redis != nil {
		if err := s.notifier.PublishWorkflowEvent(ctx, event); err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to publish workflow event",
				slog.String("event", eventType),
				slog.String("post_id", post.ID),
				slog.String("error", err.Error()))
		}
		return
	}

	if s.hub != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to marshal workflow event",
				slog.String("event", eventType),
				slog.String("error", err.Error()))
			return
		}
		s.hub.BroadcastAll(string(payload))
	}
}
