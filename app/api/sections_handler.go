package api

import (
	"fmt"

	"policyassist/sections"

	"github.com/gofiber/fiber/v2"
)

type SectionsHandler struct {
	cache *sections.Cache
}

func NewSectionsHandler(cache *sections.Cache) *SectionsHandler {
	return &SectionsHandler{cache: cache}
}

type SectionInfo struct {
	SectionName string `json:"section_name"`
	Summary     string `json:"summary"`
	PageRange   string `json:"page_range"`
}

// HandleList merges the cached section summaries of every upload.
func (h *SectionsHandler) HandleList(c *fiber.Ctx) error {
	secs, err := h.cache.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load sections: %w", err)
	}

	out := make([]SectionInfo, len(secs))
	for i, s := range secs {
		out[i] = SectionInfo{
			SectionName: s.SectionName,
			Summary:     s.Summary,
			PageRange:   s.PageRange(),
		}
	}
	return c.JSON(out)
}
