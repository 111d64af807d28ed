package editor

// Index is a prefix lookup returning matches oldest first.
// *trie.Trie satisfies it.
type Index interface {
	SearchAll(prefix string) []string
}

// HistoryRecall walks previously submitted queries that start with what the
// user has typed. offset 0 means no history entry is selected; offset n
// selects the n-th newest candidate.
type HistoryRecall struct {
	candidates []string
	offset     int
}

// Refresh re-filters the candidates by text. Call it on every edit.
func (h *HistoryRecall) Refresh(idx Index, text string) {
	h.candidates = idx.SearchAll(text)
}

// Reset drops the current selection.
func (h *HistoryRecall) Reset() { h.offset = 0 }

// Offset reports how far back the selection is.
func (h *HistoryRecall) Offset() int { return h.offset }

// Previous selects the next older candidate, stopping at the oldest. It
// returns the new cursor and false when there is nothing to recall.
func (h *HistoryRecall) Previous(buf *Buffer) (int, bool) {
	if len(h.candidates) == 0 {
		return 0, false
	}
	if h.offset < len(h.candidates) {
		h.offset++
	}
	return h.apply(buf), true
}

// Next selects the next newer candidate. Stepping past the newest, or
// pressing it with nothing selected, clears the buffer and re-filters
// against the empty text.
func (h *HistoryRecall) Next(idx Index, buf *Buffer) (int, bool) {
	if len(h.candidates) == 0 {
		return 0, false
	}
	if h.offset > 0 {
		h.offset--
	}
	if h.offset == 0 {
		buf.Clear()
		h.Refresh(idx, "")
		return 0, true
	}
	return h.apply(buf), true
}

func (h *HistoryRecall) apply(buf *Buffer) int {
	buf.Set(h.candidates[len(h.candidates)-h.offset])
	return buf.Len()
}

// SymbolCompletion replaces the word under the cursor with a matching
// symbol. Pressing it again right after a completion rotates through the
// matches for the word originally typed.
type SymbolCompletion struct {
	lastWord string // word extracted by the previous invocation
	inserted string // candidate the previous invocation put in the buffer
	index    int
	cycling  bool
}

// Reset ends any rotation in progress. Every non-completion key calls it.
func (s *SymbolCompletion) Reset() {
	s.cycling = false
	s.index = 0
}

// LastWord is the word the previous invocation matched against.
func (s *SymbolCompletion) LastWord() string { return s.lastWord }

// Complete resolves the current word against idx and returns the new
// cursor. It reports false, leaving buf untouched, when nothing matches.
func (s *SymbolCompletion) Complete(idx Index, buf *Buffer, cursor int) (int, bool) {
	word := CurrentWord(buf, cursor)
	again := s.cycling && word == s.inserted
	prefix := word
	if again {
		prefix = s.lastWord
	}

	matches := idx.SearchAll(prefix)
	s.lastWord = prefix
	if len(matches) == 0 {
		s.Reset()
		return cursor, false
	}
	if again {
		s.index = (s.index + 1) % len(matches)
	} else {
		s.index = 0
	}

	choice := matches[s.index]
	start := cursor - len([]rune(word))
	buf.Replace(start, cursor, choice)
	s.inserted = choice
	s.cycling = true
	return start + len([]rune(choice)), true
}

// CurrentWord returns the characters between the last ' ' before cursor and
// cursor. Only the space character separates words.
func CurrentWord(buf *Buffer, cursor int) string {
	start := cursor
	for start > 0 && buf.At(start-1) != ' ' {
		start--
	}
	return buf.Slice(start, cursor)
}
