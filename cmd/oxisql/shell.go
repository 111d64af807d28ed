package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"

	"github.com/bawdo/oxisql/editor"
	"github.com/bawdo/oxisql/trie"
)

var (
	colorGreen  = color.New(color.FgGreen)
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
)

// queryReader runs one input request against the session. *editor.Terminal
// is the interactive implementation.
type queryReader interface {
	ReadQuery(s *editor.Session) (string, error)
}

// shell is the read-dispatch loop: one query is edited, then run, then
// printed, strictly in turn.
type shell struct {
	conn        *dbConn
	session     *editor.Session
	reader      queryReader
	history     *trie.Trie
	historyPath string
	saveHistory bool
	commands    []commandEntry
	out         io.Writer
	errOut      io.Writer
	log         *slog.Logger
}

// loop runs until end of input or a quit command, then shuts down. Errors
// from the terminal end the loop and are reported with any shutdown errors.
func (s *shell) loop(ctx context.Context) error {
	for {
		input, err := s.reader.ReadQuery(s.session)
		if errors.Is(err, editor.ErrEndOfInput) || errors.Is(err, io.EOF) {
			return s.shutdown(nil)
		}
		if err != nil {
			return s.shutdown(fmt.Errorf("terminal: %w", err))
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if cmd, ok := lookupCommand(s.commands, input); ok {
			err := cmd.handler(s.out)
			if errors.Is(err, errQuit) {
				return s.shutdown(nil)
			}
			if err != nil {
				return s.shutdown(fmt.Errorf("%s: %w", cmd.name, err))
			}
			continue
		}

		s.history.Insert(input)
		_ = s.dispatch(ctx, input)
	}
}

// dispatch runs one query and prints its outcome. An interrupt cancels the
// query, not the shell. The query error is returned after being reported.
func (s *shell) dispatch(ctx context.Context, query string) error {
	qctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := s.conn.run(qctx, query)
	elapsed := time.Since(start)

	if err != nil {
		s.log.Debug("query failed", "error", err)
		_, _ = colorRed.Fprintf(s.errOut, "Error: %v\n", err)
		return err
	}
	if err := writeResult(s.out, res); err != nil {
		s.log.Warn("write result", "error", err)
	}
	_, _ = fmt.Fprintf(s.out, "Elapsed time: %dms\n", elapsed.Milliseconds())
	return nil
}

// shutdown saves history and closes the connection. Neither step stops the
// other; all failures are returned together.
func (s *shell) shutdown(cause error) error {
	var result *multierror.Error
	if cause != nil {
		result = multierror.Append(result, cause)
	}
	if s.saveHistory && s.historyPath != "" {
		if err := s.history.Save(s.historyPath); err != nil {
			result = multierror.Append(result, fmt.Errorf("save history: %w", err))
		} else {
			s.log.Debug("history saved", "path", s.historyPath, "entries", s.history.Len())
		}
	}
	if err := s.conn.close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close connection: %w", err))
	}
	_, _ = fmt.Fprintln(s.out, "Bye!")
	return result.ErrorOrNil()
}

// loadHistory reads the persisted history trie, falling back to an empty
// one when the file is missing or unreadable.
func loadHistory(path string, log *slog.Logger) *trie.Trie {
	if path == "" {
		return trie.New()
	}
	t, err := trie.LoadOrNew(path)
	switch {
	case err == nil:
		log.Debug("history loaded", "path", path, "entries", t.Len())
	case errors.Is(err, os.ErrNotExist):
		log.Debug("no history file", "path", path)
	default:
		log.Warn("history unreadable, starting empty", "path", path, "error", err)
	}
	return t
}
