package handler

import (
	"quiz-drill/internal/domain"
	"quiz-drill/internal/dto"
	"quiz-drill/internal/middleware"
	"quiz-drill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ExamHandler exposes the exam trainer's view actions over HTTP.
type ExamHandler struct {
	controller service.ExamController
}

// NewExamHandler creates a new ExamHandler instance
func NewExamHandler(controller service.ExamController) *ExamHandler {
	return &ExamHandler{controller: controller}
}

// RegisterRoutes mounts every exam trainer route on api.
func RegisterRoutes(api fiber.Router, h *ExamHandler, vm *middleware.ValidationMiddleware) {
	api.Get("/state", h.GetState)

	exam := api.Group("/exam")
	exam.Post("/start", h.StartExam)
	exam.Post("/select", h.SelectOption)
	exam.Post("/submit", h.SubmitAnswer)
	exam.Post("/next", h.Next)
	exam.Post("/previous", h.Previous)
	exam.Post("/jump/:index", vm.ValidateIndex(), h.JumpTo)
	exam.Post("/finish", h.Finish)
	exam.Post("/pause", h.Pause)
	exam.Post("/resume", h.Resume)
	exam.Post("/exit", h.Exit)

	results := api.Group("/results")
	results.Post("/retake", h.Retake)
	results.Post("/overview", h.ViewOverview)
	results.Post("/history", h.ViewHistory)
	results.Get("/categories", h.GetResultCategories)

	api.Get("/overview", vm.ValidateOverviewQuery(), h.GetOverview)

	api.Get("/history", h.GetHistory)
	api.Get("/history/summary", h.GetHistorySummary)
	api.Post("/history/:id/view", vm.ValidateResultID(), h.ViewHistoryResult)

	api.Get("/mistakes", vm.ValidateMistakesQuery(), h.GetMistakes)
	api.Post("/mistakes/view", h.ViewMistakes)
	api.Post("/mistakes/:serial/practice", vm.ValidateSerial(), h.PracticeMistake)

	api.Post("/back", h.Back)
	api.Delete("/data", h.ClearAllData)
}

// parseConfirm reads an optional {confirm} body; a missing body means false.
func parseConfirm(c *fiber.Ctx) (bool, error) {
	if len(c.Body()) == 0 {
		return false, nil
	}
	var req dto.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return false, domain.NewInvalidInputError("request body must be {\"confirm\": bool}")
	}
	return req.Confirm, nil
}

func respond(c *fiber.Ctx, screen *dto.ScreenResponse, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(screen)
}

// GetState godoc
// @Summary Get the current view
// @Description Returns the current mode and the data its view renders
// @Tags state
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Router /state [get]
func (h *ExamHandler) GetState(c *fiber.Ctx) error {
	return c.JSON(h.controller.Screen())
}

// StartExam godoc
// @Summary Start an exam
// @Description Starts from a manual serial range or a quick-start preset
// @Tags exam
// @Accept json
// @Produce json
// @Param request body dto.StartExamRequest true "Exam settings"
// @Success 200 {object} dto.ScreenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/start [post]
func (h *ExamHandler) StartExam(c *fiber.Ctx) error {
	var req dto.StartExamRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid start exam request body")
	}

	if req.Preset != "" {
		screen, err := h.controller.StartPreset(c.UserContext(), req.Preset, req.Mode)
		return respond(c, screen, err)
	}
	screen, err := h.controller.StartExam(c.UserContext(), domain.ExamSettings{
		StartQuestion: req.StartQuestion,
		EndQuestion:   req.EndQuestion,
		Mode:          req.Mode,
	})
	return respond(c, screen, err)
}

// SelectOption godoc
// @Summary Select an option
// @Description Selects an option, or toggles it on a multiple-choice question
// @Tags exam
// @Accept json
// @Produce json
// @Param request body dto.SelectOptionRequest true "Option"
// @Success 200 {object} dto.ScreenResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/select [post]
func (h *ExamHandler) SelectOption(c *fiber.Ctx) error {
	var req dto.SelectOptionRequest
	if err := c.BodyParser(&req); err != nil || req.Option == "" {
		return domain.NewInvalidInputError("request body must be {\"option\": string}")
	}
	screen, err := h.controller.SelectOption(req.Option)
	return respond(c, screen, err)
}

// SubmitAnswer godoc
// @Summary Submit the current selection
// @Tags exam
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/submit [post]
func (h *ExamHandler) SubmitAnswer(c *fiber.Ctx) error {
	screen, err := h.controller.SubmitAnswer(c.UserContext())
	return respond(c, screen, err)
}

// Next godoc
// @Summary Go to the next question
// @Description On the last question this completes the exam
// @Tags exam
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/next [post]
func (h *ExamHandler) Next(c *fiber.Ctx) error {
	screen, err := h.controller.Next(c.UserContext())
	return respond(c, screen, err)
}

// Previous godoc
// @Summary Go to the previous question (practice mode)
// @Tags exam
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/previous [post]
func (h *ExamHandler) Previous(c *fiber.Ctx) error {
	screen, err := h.controller.Previous()
	return respond(c, screen, err)
}

// JumpTo godoc
// @Summary Jump to a question (practice mode)
// @Tags exam
// @Produce json
// @Param index path int true "Zero-based question index"
// @Success 200 {object} dto.ScreenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/jump/{index} [post]
func (h *ExamHandler) JumpTo(c *fiber.Ctx) error {
	index := c.Locals(middleware.ValidatedIndex).(int)
	screen, err := h.controller.JumpTo(index)
	return respond(c, screen, err)
}

// Finish godoc
// @Summary Finish a fully answered practice session
// @Tags exam
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/finish [post]
func (h *ExamHandler) Finish(c *fiber.Ctx) error {
	screen, err := h.controller.FinishPractice(c.UserContext())
	return respond(c, screen, err)
}

// Pause godoc
// @Summary Pause the exam and return to setup
// @Tags exam
// @Accept json
// @Produce json
// @Param request body dto.ConfirmRequest true "Confirmation"
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/pause [post]
func (h *ExamHandler) Pause(c *fiber.Ctx) error {
	confirm, err := parseConfirm(c)
	if err != nil {
		return err
	}
	screen, err := h.controller.PauseExam(c.UserContext(), confirm)
	return respond(c, screen, err)
}

// Resume godoc
// @Summary Resume a paused exam
// @Tags exam
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/resume [post]
func (h *ExamHandler) Resume(c *fiber.Ctx) error {
	screen, err := h.controller.ResumeExam(c.UserContext())
	return respond(c, screen, err)
}

// Exit godoc
// @Summary Abandon the exam without saving a result
// @Tags exam
// @Accept json
// @Produce json
// @Param request body dto.ConfirmRequest true "Confirmation"
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /exam/exit [post]
func (h *ExamHandler) Exit(c *fiber.Ctx) error {
	confirm, err := parseConfirm(c)
	if err != nil {
		return err
	}
	screen, err := h.controller.ExitExam(c.UserContext(), confirm)
	return respond(c, screen, err)
}

// Retake godoc
// @Summary Retake the exam over the same questions
// @Tags results
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /results/retake [post]
func (h *ExamHandler) Retake(c *fiber.Ctx) error {
	screen, err := h.controller.RetakeExam(c.UserContext())
	return respond(c, screen, err)
}

// ViewOverview godoc
// @Summary Open the detailed overview of the active result
// @Tags results
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /results/overview [post]
func (h *ExamHandler) ViewOverview(c *fiber.Ctx) error {
	screen, err := h.controller.ViewOverview(c.UserContext())
	return respond(c, screen, err)
}

// ViewHistory godoc
// @Summary Open the history view
// @Tags history
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /results/history [post]
func (h *ExamHandler) ViewHistory(c *fiber.Ctx) error {
	screen, err := h.controller.ViewHistory(c.UserContext())
	return respond(c, screen, err)
}

// GetResultCategories godoc
// @Summary Category breakdown of the active result
// @Tags results
// @Produce json
// @Success 200 {array} dto.CategoryBreakdown
// @Failure 409 {object} middleware.ErrorResponse
// @Router /results/categories [get]
func (h *ExamHandler) GetResultCategories(c *fiber.Ctx) error {
	categories, err := h.controller.ResultCategories()
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// GetOverview godoc
// @Summary Overview statistics and filtered questions
// @Tags results
// @Produce json
// @Param category query string false "Category, or all"
// @Param filter query string false "all, correct or incorrect"
// @Success 200 {object} dto.OverviewScreen
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /overview [get]
func (h *ExamHandler) GetOverview(c *fiber.Ctx) error {
	overview, err := h.controller.Overview(c.Query("category"), c.Query("filter"))
	if err != nil {
		return err
	}
	return c.JSON(overview)
}

// GetHistory godoc
// @Summary List past exam results, most recent first
// @Tags history
// @Produce json
// @Success 200 {object} dto.HistoryScreen
// @Router /history [get]
func (h *ExamHandler) GetHistory(c *fiber.Ctx) error {
	return c.JSON(h.controller.History())
}

// GetHistorySummary godoc
// @Summary Aggregate history figures
// @Tags history
// @Produce json
// @Success 200 {object} dto.HistorySummary
// @Router /history/summary [get]
func (h *ExamHandler) GetHistorySummary(c *fiber.Ctx) error {
	return c.JSON(h.controller.HistorySummary())
}

// ViewHistoryResult godoc
// @Summary Open a past result
// @Tags history
// @Produce json
// @Param id path string true "Result ID"
// @Success 200 {object} dto.ScreenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /history/{id}/view [post]
func (h *ExamHandler) ViewHistoryResult(c *fiber.Ctx) error {
	id := c.Locals(middleware.ValidatedResultID).(string)
	screen, err := h.controller.ViewHistoryResult(c.UserContext(), id)
	return respond(c, screen, err)
}

// GetMistakes godoc
// @Summary Mistake tally with filter and sort
// @Tags mistakes
// @Produce json
// @Param category query string false "Category, or all"
// @Param sortBy query string false "mistakeCount or lastMistakeDate"
// @Param order query string false "asc or desc"
// @Success 200 {object} dto.MistakesScreen
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /mistakes [get]
func (h *ExamHandler) GetMistakes(c *fiber.Ctx) error {
	mistakes, err := h.controller.Mistakes(service.MistakeQuery{
		Category: c.Query("category"),
		SortBy:   c.Query("sortBy"),
		Order:    c.Query("order"),
	})
	if err != nil {
		return err
	}
	return c.JSON(mistakes)
}

// ViewMistakes godoc
// @Summary Open the mistakes view
// @Tags mistakes
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /mistakes/view [post]
func (h *ExamHandler) ViewMistakes(c *fiber.Ctx) error {
	screen, err := h.controller.ViewMistakes(c.UserContext())
	return respond(c, screen, err)
}

// PracticeMistake godoc
// @Summary Practice a single missed question
// @Tags mistakes
// @Produce json
// @Param serial path int true "Question serial"
// @Success 200 {object} dto.ScreenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /mistakes/{serial}/practice [post]
func (h *ExamHandler) PracticeMistake(c *fiber.Ctx) error {
	serial := c.Locals(middleware.ValidatedSerial).(int)
	screen, err := h.controller.PracticeMistake(c.UserContext(), serial)
	return respond(c, screen, err)
}

// Back godoc
// @Summary Return to the logical parent view
// @Tags navigation
// @Produce json
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /back [post]
func (h *ExamHandler) Back(c *fiber.Ctx) error {
	screen, err := h.controller.Back(c.UserContext())
	return respond(c, screen, err)
}

// ClearAllData godoc
// @Summary Delete history, mistakes and the saved session
// @Tags data
// @Accept json
// @Produce json
// @Param request body dto.ConfirmRequest true "Confirmation"
// @Success 200 {object} dto.ScreenResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /data [delete]
func (h *ExamHandler) ClearAllData(c *fiber.Ctx) error {
	confirm, err := parseConfirm(c)
	if err != nil {
		return err
	}
	screen, err := h.controller.ClearAllData(c.UserContext(), confirm)
	return respond(c, screen, err)
}
