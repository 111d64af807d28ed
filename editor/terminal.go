package editor

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Terminal connects a Session to a tty. It keeps one KeyReader for its
// lifetime so keys typed ahead of a prompt are not lost between requests.
type Terminal struct {
	fd   int
	out  io.Writer
	keys *KeyReader
}

// NewTerminal reads keys from in and writes redraws to out.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		fd:   int(in.Fd()),
		out:  out,
		keys: NewKeyReader(in),
	}
}

// IsTerminal reports whether the input is an interactive terminal.
func (t *Terminal) IsTerminal() bool { return term.IsTerminal(t.fd) }

// ReadKey implements KeySource.
func (t *Terminal) ReadKey() (Key, error) { return t.keys.ReadKey() }

// ReadQuery runs one input request with the terminal in raw mode, restoring
// it before returning and moving output to a fresh line.
func (t *Terminal) ReadQuery(s *Session) (string, error) {
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return "", fmt.Errorf("enter raw mode: %w", err)
	}
	query, readErr := s.ReadQuery(t, t.out)
	if err := term.Restore(t.fd, state); err != nil && readErr == nil {
		readErr = fmt.Errorf("restore terminal: %w", err)
	}
	if _, err := fmt.Fprintln(t.out); err != nil && readErr == nil {
		readErr = fmt.Errorf("write newline: %w", err)
	}
	return query, readErr
}
