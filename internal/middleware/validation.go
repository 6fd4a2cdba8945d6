package middleware

import (
	"fmt"
	"strconv"

	"quiz-drill/internal/domain"
	"quiz-drill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the validation middleware.
const (
	ValidatedResultID = "validated_result_id"
	ValidatedSerial   = "validated_serial"
	ValidatedIndex    = "validated_index"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateResultID validates the :id path parameter of history routes.
func (vm *ValidationMiddleware) ValidateResultID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errors := vm.validator.ValidateResultID(id); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}
		c.Locals(ValidatedResultID, id)
		return c.Next()
	}
}

// ValidateSerial validates the :serial path parameter of mistake routes.
func (vm *ValidationMiddleware) ValidateSerial() fiber.Handler {
	return func(c *fiber.Ctx) error {
		serial, err := parseNumber("serial", c.Params("serial"))
		if err != nil {
			return err
		}
		if errors := vm.validator.ValidateSerial(serial); len(errors) > 0 {
			return errors
		}
		c.Locals(ValidatedSerial, serial)
		return c.Next()
	}
}

// ValidateIndex validates the :index path parameter of the jump route.
// The range check against the session happens in the controller.
func (vm *ValidationMiddleware) ValidateIndex() fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, err := parseNumber("index", c.Params("index"))
		if err != nil {
			return err
		}
		c.Locals(ValidatedIndex, index)
		return c.Next()
	}
}

// ValidateOverviewQuery checks the filter query of the overview route.
func (vm *ValidationMiddleware) ValidateOverviewQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if errors := vm.validator.ValidateAnswerFilter(c.Query("filter")); len(errors) > 0 {
			return errors
		}
		return c.Next()
	}
}

// ValidateMistakesQuery checks the sort query of the mistakes route.
func (vm *ValidationMiddleware) ValidateMistakesQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if errors := vm.validator.ValidateMistakeSort(c.Query("sortBy"), c.Query("order")); len(errors) > 0 {
			return errors
		}
		return c.Next()
	}
}

func parseNumber(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ValidationErrors{
			*domain.NewValidationError(field, fmt.Sprintf("%s must be a number: %s", field, raw)),
		}
	}
	return n, nil
}
