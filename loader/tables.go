package loader

import (
	"fmt"
	"strings"

	"policyassist/types"
)

// ExtractTables pulls markdown tables out of the converted pages and returns
// them as table-flagged chunks. Best effort: malformed tables are skipped
// and a document without tables yields nil, never an error. The table index
// in the chunk id runs across the whole document, not per page.
func ExtractTables(doc *Document) []types.Chunk {
	if doc == nil {
		return nil
	}

	var chunks []types.Chunk
	tableIndex := 0

	for _, page := range doc.Pages {
		for _, grid := range findTables(page.Text) {
			md := tableToMarkdown(grid)
			if strings.TrimSpace(md) == "" {
				continue
			}
			chunks = append(chunks, types.Chunk{
				ChunkID:  fmt.Sprintf("%s_table_p%d_t%d", doc.Source, page.Number, tableIndex),
				Content:  fmt.Sprintf("[TABLE - Page %d]\n%s", page.Number, md),
				Page:     page.Number,
				Source:   doc.Source,
				Position: tableIndex,
				IsTable:  true,
			})
			tableIndex++
		}
	}
	return chunks
}

// findTables scans page text for blocks of consecutive pipe-delimited rows.
// A block needs at least a header and one body row to count as a table.
func findTables(text string) [][][]string {
	var tables [][][]string
	var rows [][]string

	closeTable := func() {
		if len(rows) >= 2 {
			tables = append(tables, rows)
		}
		rows = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.Contains(trimmed, "|") || trimmed == "" {
			closeTable()
			continue
		}
		if isSeparatorRow(trimmed) {
			continue
		}
		rows = append(rows, splitRow(trimmed))
	}
	closeTable()
	return tables
}

func splitRow(line string) []string {
	line = strings.Trim(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// isSeparatorRow matches the markdown "| --- | --- |" divider line.
func isSeparatorRow(line string) bool {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '|', '-', ':', ' ':
			return -1
		}
		return r
	}, line)
	return stripped == "" && strings.Contains(line, "-")
}

// tableToMarkdown canonicalizes a parsed grid into a fixed-width markdown
// table: header row, separator row, body rows. Short rows are padded with
// empty cells to header width.
func tableToMarkdown(grid [][]string) string {
	if len(grid) == 0 {
		return ""
	}

	header := grid[0]
	body := grid[1:]

	lines := []string{
		strings.Join(header, " | "),
		strings.Join(repeat("---", len(header)), " | "),
	}
	for _, row := range body {
		for len(row) < len(header) {
			row = append(row, "")
		}
		if len(row) > len(header) {
			row = row[:len(header)]
		}
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
