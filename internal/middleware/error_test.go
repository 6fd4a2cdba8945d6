package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-drill/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation errors", domain.ValidationErrors{*domain.NewValidationError("range", "Start question cannot be greater than end question")}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid input", domain.NewInvalidInputError("bad body"), http.StatusBadRequest, "INVALID_INPUT"},
		{"question not found", domain.NewQuestionNotFoundError(9), http.StatusNotFound, "QUESTION_NOT_FOUND"},
		{"result not found", domain.NewResultNotFoundError("x"), http.StatusNotFound, "RESULT_NOT_FOUND"},
		{"invalid transition", domain.NewInvalidTransitionError("no"), http.StatusConflict, "INVALID_TRANSITION"},
		{"confirmation required", domain.NewConfirmationRequiredError("exit"), http.StatusConflict, "CONFIRMATION_REQUIRED"},
		{"data not available", domain.NewDataNotAvailableError(domain.QuizModeOverview, domain.QuizModeResults), http.StatusConflict, "DATA_NOT_AVAILABLE"},
		{"internal", domain.NewInternalError("boom", errors.New("disk")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"fiber error", fiber.NewError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestErrorHandler_DetailsAndMessages(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/fallback", func(c *fiber.Ctx) error {
		return domain.NewDataNotAvailableError(domain.QuizModeOverview, domain.QuizModeResults)
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return domain.ValidationErrors{
			*domain.NewValidationError("startQuestion", "Start question must be between 1 and 24"),
			*domain.NewValidationError("range", "Start question cannot be greater than end question"),
		}
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fallback", nil))
	require.NoError(t, err)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "results", errResp.Details["fallback"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/validation", nil))
	require.NoError(t, err)
	var valResp ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&valResp))
	assert.Equal(t, []string{
		"Start question must be between 1 and 24",
		"Start question cannot be greater than end question",
	}, valResp.Messages)
	assert.Len(t, valResp.Errors, 2)
}

func TestValidationMiddleware_Serial(t *testing.T) {
	vm := NewValidationMiddleware()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Post("/mistakes/:serial", vm.ValidateSerial(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"serial": c.Locals(ValidatedSerial)})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/mistakes/12", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/mistakes/0", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/mistakes/twelve", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
