package editor

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	clearLine = "\x1b[2K"
	// breakGlyph stands in for a display break, keeping redraw on one line.
	breakGlyph = "↵"
)

// Render redraws the prompt line: carriage return, clear, prompt and visible
// text, then moves the terminal cursor left over whatever follows the edit
// cursor. The output depends only on its arguments, so repeating it is
// harmless.
func Render(w io.Writer, prompt string, buf *Buffer, cursor int) error {
	head, tail := buf.visibleSplit(cursor)

	var b strings.Builder
	b.WriteString("\r")
	b.WriteString(clearLine)
	b.WriteString(prompt)
	b.WriteString(head)
	b.WriteString(tail)
	if back := runewidth.StringWidth(tail); back > 0 {
		fmt.Fprintf(&b, "\x1b[%dD", back)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("redraw: %w", err)
	}
	return nil
}

// visibleSplit returns the displayable text before and after cursor.
func (b *Buffer) visibleSplit(cursor int) (string, string) {
	vi := b.visibleIndex(b.clamp(cursor))
	show := func(rs []rune) string {
		return strings.ReplaceAll(string(rs), string(displayBreak), breakGlyph)
	}
	return show(b.visible[:vi]), show(b.visible[vi:])
}
