package api

import (
	"errors"
	"strings"

	"policyassist/diff"
	"policyassist/types"

	"github.com/gofiber/fiber/v2"
)

type CompareHandler struct {
	engine *diff.Engine
}

func NewCompareHandler(engine *diff.Engine) *CompareHandler {
	return &CompareHandler{engine: engine}
}

func (h *CompareHandler) HandleCompare(c *fiber.Ctx) error {
	var params types.CompareParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest("invalid JSON request")
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	collectionA := strings.TrimSpace(params.CollectionA)
	collectionB := strings.TrimSpace(params.CollectionB)
	if collectionA == collectionB {
		return ErrBadRequest("collection_a and collection_b must be different")
	}

	result, err := h.engine.Compare(c.Context(), collectionA, collectionB)
	if err != nil {
		switch {
		case errors.Is(err, diff.ErrNoChunksBoth),
			errors.Is(err, diff.ErrNoChunksA),
			errors.Is(err, diff.ErrNoChunksB):
			return ErrNotFound(err.Error())
		case errors.Is(err, diff.ErrSharedCollection):
			return ErrBadRequest(err.Error())
		}
		return err
	}
	return c.JSON(result)
}
