// FILE: internal/http/validator.go
package http

import (
	"fmt"
	"reflect"
	"strings"

	"chessboard/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// validationMiddleware parses and validates request bodies by route
func validationMiddleware(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodGet || method == fiber.MethodDelete || method == fiber.MethodOptions {
		return c.Next()
	}

	path := c.Path()
	var requestType interface{}

	switch {
	case strings.HasSuffix(path, "/sessions") && method == fiber.MethodPost:
		requestType = &core.CreateSessionRequest{}
	case strings.HasSuffix(path, "/clicks") && method == fiber.MethodPost:
		requestType = &core.ClickRequest{}
	case strings.HasSuffix(path, "/load") && method == fiber.MethodPost:
		requestType = &core.LoadRequest{}
	case strings.HasSuffix(path, "/view") && method == fiber.MethodPut:
		requestType = &core.ViewRequest{}
	default:
		return c.Next()
	}

	// an empty body stands for the zero request
	if len(c.Body()) > 0 {
		if err := c.BodyParser(requestType); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "invalid request body",
				Code:    core.ErrInvalidRequest,
				Details: err.Error(),
			})
		}
	}

	if errs := validate.Struct(requestType); errs != nil {
		var verrs validator.ValidationErrors
		if !asValidationErrors(errs, &verrs) {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "validation failed",
				Code:    core.ErrInvalidRequest,
				Details: errs.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.ErrInvalidRequest,
			Details: describe(verrs),
		})
	}

	c.Locals("validatedBody", requestType)
	c.Locals("validated", true)

	return c.Next()
}

func asValidationErrors(err error, out *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*out = verrs
	}
	return ok
}

// describe turns validator errors into one readable line
func describe(errs validator.ValidationErrors) string {
	var details strings.Builder
	for _, err := range errs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", err.Field()))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param()))
		case "len":
			details.WriteString(fmt.Sprintf("%s must be exactly %s characters", err.Field(), err.Param()))
		case "min":
			details.WriteString(fmt.Sprintf("%s must be at least %s", err.Field(), err.Param()))
		case "max":
			if err.Type().Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at most %s", err.Field(), err.Param()))
			}
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
		}
	}
	return details.String()
}

// validatedBody returns the request parsed by validationMiddleware
func validatedBody[T any](c *fiber.Ctx) (T, error) {
	var zero T
	if validated, ok := c.Locals("validated").(bool); !ok || !validated {
		return zero, fmt.Errorf("validation bypass detected")
	}
	body, ok := c.Locals("validatedBody").(*T)
	if !ok || body == nil {
		return zero, fmt.Errorf("validation data missing")
	}
	return *body, nil
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
