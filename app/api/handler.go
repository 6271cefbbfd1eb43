package api

import (
	"strings"

	"policyassist/classifier"
	"policyassist/rag"
	"policyassist/types"

	"github.com/gofiber/fiber/v2"
)

const scenarioTopK = 7

// RequestHandler serves the Q&A surface: ask, scenario analysis, and raw
// section summarization.
type RequestHandler struct {
	answerer *rag.Answerer
}

func NewRequestHandler(answerer *rag.Answerer) *RequestHandler {
	return &RequestHandler{answerer: answerer}
}

func (h *RequestHandler) HandleAsk(c *fiber.Ctx) error {
	var params types.AskParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest("invalid JSON request")
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	question := strings.TrimSpace(params.Question)
	if question == "" {
		return ErrBadRequest("question cannot be empty")
	}

	// The classifier picks the retrieval width and flags numeric questions
	// for table-aware retrieval.
	queryClass := classifier.Classify(question)

	result, err := h.answerer.Answer(c.Context(), question, types.DefaultCollection, queryClass.TopK, queryClass.Label)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *RequestHandler) HandleScenario(c *fiber.Ctx) error {
	var params types.ScenarioParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest("invalid JSON request")
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	scenario := strings.TrimSpace(params.Scenario)
	if scenario == "" {
		return ErrBadRequest("scenario cannot be empty")
	}

	result, err := h.answerer.AnalyzeScenario(c.Context(), scenario, types.DefaultCollection, scenarioTopK)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *RequestHandler) HandleSummarize(c *fiber.Ctx) error {
	var params types.SummarizeParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest("invalid JSON request")
	}

	summary, err := h.answerer.Summarize(c.Context(), params.SectionText)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"summary": summary})
}
