// oxisql is an interactive SQL shell with prefix-based history recall and
// schema-aware tab completion.
//
// Configuration is merged from ~/.config/oxisql/config.yaml, the
// environment (OXISQL_ENGINE, DATABASE_URL) and the command line, later
// sources overriding earlier ones.
//
// Usage:
//
//	oxisql -h localhost -u root -D shop
//	oxisql -E sqlite -D ./app.db -e 'SELECT * FROM users;'
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bawdo/oxisql/editor"
	"github.com/bawdo/oxisql/trie"
)

// errReported is returned once the failure has already been shown.
var errReported = errors.New("query failed")

// flags holds the raw command-line values. Only flags the user actually set
// override the config file and environment.
type flags struct {
	configPath   string
	engine       string
	host         string
	port         int
	user         string
	password     string
	database     string
	dsn          string
	execute      string
	historyFile  string
	logFile      string
	noHistory    bool
	noCompletion bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "oxisql",
		Short:         "Interactive SQL shell with history recall and schema completion",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := run(cmd, &f)
			if err != nil && !errors.Is(err, errReported) {
				_, _ = colorRed.Fprintf(cmd.ErrOrStderr(), "[-] %v\n", err)
			}
			return err
		},
	}

	bindFlags(cmd, &f)
	return cmd
}

func bindFlags(cmd *cobra.Command, f *flags) {
	fs := cmd.Flags()
	// -h is the host, as in the mysql client.
	fs.Bool("help", false, "help for oxisql")
	fs.StringVar(&f.configPath, "config", defaultConfigPath(), "config file")
	fs.StringVarP(&f.engine, "engine", "E", "", "database engine: mysql, postgres or sqlite")
	fs.StringVarP(&f.host, "host", "h", "", "server host")
	fs.IntVarP(&f.port, "port", "P", 0, "server port (default by engine)")
	fs.StringVarP(&f.user, "user", "u", "", "user name")
	fs.StringVarP(&f.password, "password", "p", "", "password (prompted when omitted)")
	fs.StringVarP(&f.database, "database", "D", "", "database name, or file path for sqlite")
	fs.StringVar(&f.dsn, "dsn", "", "full driver DSN, overrides the individual connection flags")
	fs.StringVarP(&f.execute, "execute", "e", "", "run one query and exit")
	fs.StringVar(&f.historyFile, "history-file", "", "query history file")
	fs.StringVar(&f.logFile, "log-file", "", "write debug logs to this file")
	fs.BoolVar(&f.noHistory, "no-history", false, "disable history recall and persistence")
	fs.BoolVar(&f.noCompletion, "no-completion", false, "disable tab completion")
}

// resolveConfig merges file, environment and the flags that were set.
func resolveConfig(cmd *cobra.Command, f *flags, getenv func(string) string) (*Config, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(getenv)

	fs := cmd.Flags()
	if fs.Changed("engine") {
		cfg.Engine = f.engine
	}
	if fs.Changed("host") {
		cfg.Host = f.host
	}
	if fs.Changed("port") {
		cfg.Port = f.port
	}
	if fs.Changed("user") {
		cfg.User = f.user
	}
	if fs.Changed("password") {
		cfg.Password = f.password
	}
	if fs.Changed("database") {
		cfg.Database = f.database
	}
	if fs.Changed("dsn") {
		cfg.DSN = f.dsn
	}
	if fs.Changed("history-file") {
		cfg.HistoryFile = f.historyFile
	}
	if fs.Changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if f.noHistory {
		off := false
		cfg.History = &off
	}
	if f.noCompletion {
		off := false
		cfg.Completion = &off
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, f *flags) error {
	cfg, err := resolveConfig(cmd, f, os.Getenv)
	if err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if cmd.Flags().Changed("password") {
		_, _ = colorYellow.Fprintln(stderr, "[!] Warning: password is being passed as a command line argument, this is not secure")
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := promptMissing(cfg, os.Stdin); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dsn := buildDSN(cfg)
	logger.Debug("connecting", "engine", cfg.Engine, "dsn", sanitizeDSN(dsn))
	conn, err := connect(ctx, cfg.Engine, dsn)
	if err != nil {
		return fmt.Errorf("could not connect to %s server: %w", engineLabel(cfg.Engine), err)
	}
	_, _ = colorGreen.Fprintf(stdout, "[+] Connected to %s server\n", engineLabel(cfg.Engine))

	sh := &shell{
		conn:     conn,
		commands: controlCommands(),
		out:      stdout,
		errOut:   stderr,
		log:      logger,
	}

	if f.execute != "" {
		return sh.oneShot(ctx, f.execute)
	}

	tty := editor.NewTerminal(os.Stdin, stdout)
	if !tty.IsTerminal() {
		_ = conn.close()
		return fmt.Errorf("stdin is not a terminal; use -e to run a single query")
	}

	symbols := trie.New()
	if cfg.completionEnabled() {
		_, _ = colorGreen.Fprintln(stdout, "[+] Loading Symbols from Database")
		names, err := conn.loadSymbols(ctx)
		if err != nil {
			_, _ = colorRed.Fprintf(stderr, "[-] Could not get symbols: %v\n", err)
		} else {
			symbols = trie.FromSlice(names)
			logger.Debug("symbols loaded", "count", symbols.Len())
		}
	}

	sh.saveHistory = cfg.historyEnabled()
	sh.historyPath = cfg.HistoryFile
	if sh.saveHistory {
		sh.history = loadHistory(cfg.HistoryFile, logger)
	} else {
		sh.history = trie.New()
	}

	sh.reader = tty
	sh.session = editor.NewSession(editor.Config{
		Prompt:     cfg.Prompt,
		Terminator: ';',
		History:    cfg.historyEnabled(),
		Completion: cfg.completionEnabled(),
	}, sh.history, symbols, editor.WithLogger(logger))

	return sh.loop(ctx)
}

// oneShot runs a single query without the editor or history.
func (s *shell) oneShot(ctx context.Context, query string) error {
	queryErr := s.dispatch(ctx, query)
	closeErr := s.conn.close()
	if queryErr != nil {
		return errReported
	}
	if closeErr != nil {
		return fmt.Errorf("close connection: %w", closeErr)
	}
	return nil
}

// newLogger writes text logs to path, or discards them when path is empty.
// The terminal belongs to the editor, so logs never go to stderr.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newTextLogger(f), func() { _ = f.Close() }, nil
}

func newTextLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
