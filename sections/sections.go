// Package sections detects headings in loaded documents, summarizes the
// resulting sections, and caches them per upload.
package sections

import (
	"regexp"
	"strings"

	"policyassist/loader"
	"policyassist/types"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Heading forms, checked per trimmed line after the length and punctuation
// gates:
//   - numbered outline: "3.", "2.1", "1.2.3 Title text"
//   - ALL CAPS line of letters, spaces and &-/, characters
//   - Title Case line with at least three capitalized words
var (
	numberedRe  = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+\S`)
	allCapsRe   = regexp.MustCompile(`^[A-Z][A-Z\s\-&/,]{4,}[A-Z]$`)
	titleCaseRe = regexp.MustCompile(`^([A-Z][a-zA-Z]*(\s+[A-Z][a-zA-Z]*){2,})[^.,:;!?]*$`)
)

// IsHeading reports whether a line looks like a section heading. Lines over
// 80 characters, under 2 words, or ending in sentence punctuation never
// qualify.
func IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 80 {
		return false
	}
	if len(strings.Fields(line)) < 2 {
		return false
	}
	if strings.ContainsRune(".?!;,", rune(line[len(line)-1])) {
		return false
	}

	return numberedRe.MatchString(line) ||
		allCapsRe.MatchString(line) ||
		titleCaseRe.MatchString(line)
}

// Detect splits a loaded document into heading-delimited sections. Text
// before the first heading collects under "Introduction / General"; a
// document without a single heading becomes one "Document Overview" section
// spanning its first to last page.
func Detect(doc *loader.Document) []types.Section {
	var sections []types.Section
	var current *types.Section

	save := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			sections = append(sections, *current)
		}
	}

	for _, page := range doc.Pages {
		for _, raw := range strings.Split(page.Text, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			if IsHeading(line) {
				save()
				current = &types.Section{
					SectionName: cleanHeading(line),
					StartPage:   page.Number,
					EndPage:     page.Number,
				}
				continue
			}
			if current == nil {
				current = &types.Section{
					SectionName: "Introduction / General",
					StartPage:   page.Number,
					EndPage:     page.Number,
				}
			}
			current.Text += " " + line
			current.EndPage = page.Number
		}
	}
	save()

	if len(sections) == 0 {
		var texts []string
		for _, page := range doc.Pages {
			texts = append(texts, page.Text)
		}
		start, end := 1, 1
		if len(doc.Pages) > 0 {
			start = doc.Pages[0].Number
			end = doc.Pages[len(doc.Pages)-1].Number
		}
		return []types.Section{{
			SectionName: "Document Overview",
			Text:        strings.Join(texts, " "),
			StartPage:   start,
			EndPage:     end,
		}}
	}

	return sections
}

var titleCaser = cases.Title(language.English)

// cleanHeading normalizes ALL CAPS headings to title case for display and
// leaves every other form verbatim.
func cleanHeading(line string) string {
	if line == strings.ToUpper(line) {
		return titleCaser.String(strings.ToLower(line))
	}
	return line
}
