package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// writeResult prints a query result the way the shell shows it: a box
// table with a row count, or the affected row count for modifications.
func writeResult(w io.Writer, res *result) error {
	if res.modified {
		_, err := fmt.Fprintf(w, "Query OK, %d %s affected\n", res.affected, plural(res.affected, "row", "rows"))
		return err
	}
	if len(res.columns) > 0 {
		if _, err := io.WriteString(w, formatTable(res.columns, res.rows)); err != nil {
			return err
		}
	}
	n := int64(len(res.rows))
	line := fmt.Sprintf("(%d %s)", n, plural(n, "row", "rows"))
	if res.truncated {
		line += fmt.Sprintf(" [truncated at %d]", maxRows)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatTable draws a box table. Headers and cells are right aligned and
// columns are sized by display width.
func formatTable(columns []string, rows [][]string) string {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range rows {
		for i := range columns {
			if i < len(row) {
				widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
			}
		}
	}

	var sb strings.Builder
	rule := func(left, mid, right string) {
		sb.WriteString(left)
		for i, w := range widths {
			if i > 0 {
				sb.WriteString(mid)
			}
			sb.WriteString(strings.Repeat("─", w+2))
		}
		sb.WriteString(right)
		sb.WriteByte('\n')
	}
	line := func(cells []string) {
		sb.WriteString("│")
		for i, w := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteByte(' ')
			sb.WriteString(runewidth.FillLeft(cell, w))
			sb.WriteString(" │")
		}
		sb.WriteByte('\n')
	}

	rule("┌", "┬", "┐")
	line(columns)
	rule("├", "┼", "┤")
	for _, row := range rows {
		line(row)
	}
	rule("└", "┴", "┘")
	return sb.String()
}
