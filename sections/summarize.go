package sections

import (
	"context"
	"log"
	"strings"

	"policyassist/model"
	"policyassist/types"
)

const summarySystem = "You are PolicyAssist. Summarize the following policy section in 2-4 concise sentences. " +
	"Focus on key rules, conditions, and limits. Do NOT add information not present in the text."

const (
	// Sections shorter than this carry no summarizable substance.
	minSectionChars = 50
	// Section text is truncated before summarization to bound cost.
	maxSectionChars = 3000
)

// Summarize generates a summary per section. Sections under 50 characters
// are skipped entirely; a failed generation yields the literal
// "Summary unavailable." for that section without aborting the rest.
func Summarize(ctx context.Context, secs []types.Section, gen model.Generator) []types.Section {
	var out []types.Section
	for _, sec := range secs {
		text := strings.TrimSpace(sec.Text)
		if len(text) > maxSectionChars {
			text = text[:maxSectionChars]
		}
		if len(text) < minSectionChars {
			continue
		}

		summary, err := gen.Generate(ctx, summarySystem, "Section text:\n"+text+"\n\nProvide a concise summary.")
		if err != nil {
			log.Printf("[SECTIONS] summary failed for %q: %v", sec.SectionName, err)
			summary = "Summary unavailable."
		}

		out = append(out, types.Section{
			SectionName: sec.SectionName,
			StartPage:   sec.StartPage,
			EndPage:     sec.EndPage,
			Summary:     strings.TrimSpace(summary),
		})
	}
	return out
}
