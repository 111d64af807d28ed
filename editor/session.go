package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrEndOfInput is returned by ReadQuery when the user signals end of input
// (Ctrl-D or Ctrl-C) on an empty line.
var ErrEndOfInput = errors.New("end of input")

// Config selects the prompt, the statement terminator and which completion
// features are active.
type Config struct {
	Prompt     string
	Terminator rune
	History    bool
	Completion bool
}

// DefaultConfig returns the shell's standard editor settings.
func DefaultConfig() Config {
	return Config{
		Prompt:     "oxisql> ",
		Terminator: ';',
		History:    true,
		Completion: true,
	}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for ignored input.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session is the line editor state machine. It owns the query buffer, the
// cursor and both completion states for one input request at a time.
type Session struct {
	cfg     Config
	history Index
	symbols Index
	log     *slog.Logger

	buf    Buffer
	cursor int
	recall HistoryRecall
	symbol SymbolCompletion
}

// NewSession builds an editor over the given history and symbol indexes.
// A nil index behaves as an empty one.
func NewSession(cfg Config, history, symbols Index, opts ...Option) *Session {
	if history == nil {
		history = emptyIndex{}
	}
	if symbols == nil {
		symbols = emptyIndex{}
	}
	s := &Session{
		cfg:     cfg,
		history: history,
		symbols: symbols,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Reset starts a fresh input request.
func (s *Session) Reset() {
	s.buf.Clear()
	s.cursor = 0
	s.recall = HistoryRecall{}
	s.symbol = SymbolCompletion{}
	s.refreshHistory()
}

// ReadQuery reads keys until the buffer ends with the terminator and Enter
// is pressed, returning the real text. It returns ErrEndOfInput for an end
// of input signal on an empty line. Read and write failures are returned
// wrapped; the terminal is unusable after either.
func (s *Session) ReadQuery(keys KeySource, out io.Writer) (string, error) {
	s.Reset()
	if err := s.Redraw(out); err != nil {
		return "", err
	}
	for {
		k, err := keys.ReadKey()
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		done, err := s.Handle(k)
		if err != nil {
			return "", err
		}
		if err := s.Redraw(out); err != nil {
			return "", err
		}
		if done {
			return s.buf.Real(), nil
		}
	}
}

// Handle applies one key event. done reports a submitted query.
func (s *Session) Handle(k Key) (done bool, err error) {
	if k.Code != KeyTab {
		s.symbol.Reset()
	}

	switch k.Code {
	case KeyRune:
		s.buf.InsertChar(s.cursor, k.Rune)
		s.cursor++
		s.recall.Reset()
		s.refreshHistory()

	case KeyBackspace:
		if s.cursor > 0 {
			s.cursor--
			s.buf.DeleteAt(s.cursor)
		}
		s.recall.Reset()
		s.refreshHistory()

	case KeyLeft:
		s.cursor = max(s.cursor-1, 0)

	case KeyRight:
		s.cursor = min(s.cursor+1, s.buf.Len())

	case KeyUp:
		if !s.cfg.History {
			return false, nil
		}
		if c, ok := s.recall.Previous(&s.buf); ok {
			s.cursor = c
		}

	case KeyDown:
		if !s.cfg.History {
			return false, nil
		}
		if c, ok := s.recall.Next(s.history, &s.buf); ok {
			s.cursor = c
		}

	case KeyTab:
		if !s.cfg.Completion {
			return false, nil
		}
		s.cursor, _ = s.symbol.Complete(s.symbols, &s.buf, s.cursor)

	case KeyEOF, KeyInterrupt:
		if s.buf.Len() == 0 {
			return false, ErrEndOfInput
		}

	case KeyEnter:
		if last, ok := s.buf.LastChar(); ok && last == s.cfg.Terminator {
			return true, nil
		}
		s.buf.BreakLine(s.cursor)

	default:
		s.log.Debug("ignoring unrecognized key", "code", k.Code, "raw", fmt.Sprintf("%q", k.Raw))
	}
	return false, nil
}

// Redraw repaints the prompt line for the current state.
func (s *Session) Redraw(out io.Writer) error {
	return Render(out, s.cfg.Prompt, &s.buf, s.cursor)
}

// Text returns the real buffer contents.
func (s *Session) Text() string { return s.buf.Real() }

// Visible returns the buffer as displayed.
func (s *Session) Visible() string { return s.buf.Visible() }

// Cursor returns the cursor offset in characters.
func (s *Session) Cursor() int { return s.cursor }

func (s *Session) refreshHistory() {
	if s.cfg.History {
		s.recall.Refresh(s.history, s.buf.Real())
	}
}

type emptyIndex struct{}

func (emptyIndex) SearchAll(string) []string { return []string{} }
