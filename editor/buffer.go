package editor

// displayBreak marks a line break that exists only in the visible text.
const displayBreak = '\n'

// Buffer holds the query being composed. real is what gets submitted;
// visible is what the user sees. They differ only by display breaks, which
// real text never contains, so cursor offsets always index real and are
// mapped onto visible by skipping breaks.
type Buffer struct {
	visible []rune
	real    []rune
}

// InsertChar inserts c at cursor. The caller advances the cursor.
func (b *Buffer) InsertChar(cursor int, c rune) {
	cursor = b.clamp(cursor)
	b.real = insertRune(b.real, cursor, c)
	b.visible = insertRune(b.visible, b.visibleIndex(cursor), c)
}

// DeleteAt removes the character at cursor. Deleting from an empty buffer,
// or at end of text, does nothing. For backspace the caller moves the cursor
// back first.
func (b *Buffer) DeleteAt(cursor int) {
	if cursor < 0 || cursor >= len(b.real) {
		return
	}
	vi := b.visibleIndex(cursor)
	// visibleIndex lands after any breaks, on the character itself.
	b.real = append(b.real[:cursor], b.real[cursor+1:]...)
	b.visible = append(b.visible[:vi], b.visible[vi+1:]...)
}

// BreakLine adds a display-only line break at cursor.
func (b *Buffer) BreakLine(cursor int) {
	cursor = b.clamp(cursor)
	b.visible = insertRune(b.visible, b.visibleIndex(cursor), displayBreak)
}

// Set replaces the whole buffer with text.
func (b *Buffer) Set(text string) {
	b.real = []rune(text)
	b.visible = []rune(text)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.real = b.real[:0]
	b.visible = b.visible[:0]
}

// Len is the length of the real text in characters.
func (b *Buffer) Len() int { return len(b.real) }

// At returns the real character at i.
func (b *Buffer) At(i int) rune { return b.real[i] }

// LastChar returns the final real character, if any.
func (b *Buffer) LastChar() (rune, bool) {
	if len(b.real) == 0 {
		return 0, false
	}
	return b.real[len(b.real)-1], true
}

// Real returns the text that will be submitted.
func (b *Buffer) Real() string { return string(b.real) }

// Visible returns the text as displayed.
func (b *Buffer) Visible() string { return string(b.visible) }

// Slice returns real[from:to] as a string.
func (b *Buffer) Slice(from, to int) string { return string(b.real[from:to]) }

// Replace substitutes real[from:to] with text. Display breaks between the
// replaced characters are dropped; breaks around the range are kept.
func (b *Buffer) Replace(from, to int, text string) {
	from, to = b.clamp(from), b.clamp(to)
	vfrom, vto := b.visibleIndex(from), b.visibleIndex(from)
	if to > from {
		vto = b.visibleIndex(to-1) + 1
	}
	r := []rune(text)
	b.real = splice(b.real, from, to, r)
	b.visible = splice(b.visible, vfrom, vto, r)
}

// visibleIndex maps a real offset to the visible offset of the same
// character, stepping over display breaks that precede it.
func (b *Buffer) visibleIndex(cursor int) int {
	n := 0
	for i, r := range b.visible {
		if r == displayBreak {
			continue
		}
		if n == cursor {
			return i
		}
		n++
	}
	return len(b.visible)
}

func (b *Buffer) clamp(cursor int) int {
	return max(0, min(cursor, len(b.real)))
}

func insertRune(s []rune, i int, r rune) []rune {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = r
	return s
}

func splice(s []rune, from, to int, r []rune) []rune {
	out := make([]rune, 0, len(s)-(to-from)+len(r))
	out = append(out, s[:from]...)
	out = append(out, r...)
	return append(out, s[to:]...)
}
