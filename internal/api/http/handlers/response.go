package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/api/dto"
	"github.com/spec-kit/legal-aid-service/internal/service"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
	"github.com/spec-kit/legal-aid-service/pkg/validation"
)

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

// list renders a page of items mapped through fn.
func list[T, R any](c *fiber.Ctx, result service.ListResult[T], fn func(*T) R) error {
	items := make([]R, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, fn(&result.Items[i]))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"meta":    dto.ListMeta{Total: result.Total, Limit: result.Limit, Offset: result.Offset},
	})
}

func mapSlice[T, R any](in []T, fn func(*T) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, fn(&in[i]))
	}
	return out
}

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, v *validation.Validator, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return v.Struct(dst)
}
