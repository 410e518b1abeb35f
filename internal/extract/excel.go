package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel renders every sheet as a markdown section with a pipe table.
// The first row of each sheet is used as the table header.
func extractExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var sections []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		width := 0
		for _, row := range rows {
			width = max(width, len(row))
		}

		var b strings.Builder
		fmt.Fprintf(&b, "## %s\n\n", sheet)
		for i, row := range rows {
			b.WriteString(tableRow(row, width))
			if i == 0 {
				b.WriteString(tableRow(repeat("---", width), width))
			}
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(sections, "\n\n"), nil
}

func tableRow(cells []string, width int) string {
	padded := make([]string, width)
	for i := range padded {
		if i < len(cells) {
			padded[i] = strings.ReplaceAll(strings.TrimSpace(cells[i]), "|", `\|`)
		}
	}
	return "| " + strings.Join(padded, " | ") + " |\n"
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
