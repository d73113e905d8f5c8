// Package web exposes the engine and template store over HTTP.
package web

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/stepflow/stepflow/pkg/engine"
	"github.com/stepflow/stepflow/pkg/models"
	"github.com/stepflow/stepflow/pkg/persistence"
)

type APIHandlers struct {
	engine    *engine.Engine
	templates persistence.TemplateRepository
	validate  *validator.Validate
}

func NewAPIHandlers(eng *engine.Engine, templates persistence.TemplateRepository, validate *validator.Validate) *APIHandlers {
	return &APIHandlers{
		engine:    eng,
		templates: templates,
		validate:  validate,
	}
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	templates, err := h.templates.Templates(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(templates)
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	template, err := h.templates.TemplateByID(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsTemplateNotFound(err) {
			return notFound(c, "template not found")
		}

		return internalError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) CreateTemplate(c fiber.Ctx) error {
	template := &models.WorkflowTemplate{}
	if err := c.Bind().JSON(template); err != nil {
		return badRequest(c, "invalid template payload: "+err.Error())
	}

	if err := template.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.templates.SaveTemplate(c.Context(), template); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}

func (h *APIHandlers) DeleteTemplate(c fiber.Ctx) error {
	if err := h.templates.DeleteTemplate(c.Context(), c.Params("id")); err != nil {
		if persistence.IsTemplateNotFound(err) {
			return notFound(c, "template not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// StartExecution begins a run. With ?sync=true the handler blocks until the
// run reaches a terminal state and returns the full result; otherwise it
// acknowledges with the execution id.
func (h *APIHandlers) StartExecution(c fiber.Ctx) error {
	template, err := h.templates.TemplateByID(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsTemplateNotFound(err) {
			return notFound(c, "template not found")
		}

		return internalError(c, err)
	}

	req := StartExecutionRequest{}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "invalid execution payload: "+err.Error())
		}
	}

	initial := models.Context(req.Context)

	if c.Query("sync") == "true" {
		return c.JSON(h.engine.ExecuteWorkflow(c.Context(), template, initial))
	}

	executionID := h.engine.StartWorkflow(c.Context(), template, initial)

	return c.Status(fiber.StatusAccepted).JSON(StartExecutionResponse{ExecutionID: executionID})
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	executions, err := h.engine.Executions(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	out := make([]ExecutionResponse, 0, len(executions))
	for _, execution := range executions {
		out = append(out, toExecutionResponse(execution))
	}

	return c.JSON(out)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.engine.Execution(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, engine.ErrExecutionNotFound) {
			return notFound(c, "execution not found")
		}

		return internalError(c, err)
	}

	return c.JSON(toExecutionResponse(execution))
}

func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	err := h.engine.CancelExecution(c.Context(), c.Params("id"), c.Query("cancelled_by"))
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrExecutionNotFound):
			return notFound(c, "execution not found")
		case errors.Is(err, engine.ErrExecutionFinished):
			return conflict(c, "execution already finished")
		default:
			return internalError(c, err)
		}
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// ResolveReview delivers a reviewer decision. The first resolution, human
// or timeout, wins; later calls see 404.
func (h *APIHandlers) ResolveReview(c fiber.Ctx) error {
	req := ReviewRequest{}
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid review payload: "+err.Error())
	}

	err := h.engine.ResolveReview(c.Params("id"), c.Params("stepId"), models.ReviewDecision{
		Approved: req.Approved,
		Notes:    req.Notes,
	})
	if err != nil {
		if errors.Is(err, engine.ErrReviewNotFound) {
			return notFound(c, "no pending review for this execution and step")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetPendingReviews(c fiber.Ctx) error {
	return c.JSON(h.engine.PendingReviews())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.templates.HealthCheck(c.Context()); err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
