package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var driverName = map[string]string{
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite",
}

const maxRows = 1000

// dbConn is the shell's single connection. mu is held for the duration of
// one dispatch and never across an editing turn.
type dbConn struct {
	mu     sync.Mutex
	db     *sql.DB
	dsn    string
	engine string
}

// result is either a row set or, for data modification statements, an
// affected row count.
type result struct {
	columns   []string
	rows      [][]string
	affected  int64
	modified  bool
	truncated bool
}

func connect(ctx context.Context, engine, dsn string) (*dbConn, error) {
	driver, ok := driverName[engine]
	if !ok {
		return nil, fmt.Errorf("no driver for engine %q", engine)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if engine == "sqlite" {
		// Each pooled connection to :memory: would be a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &dbConn{db: db, dsn: dsn, engine: engine}, nil
}

func (c *dbConn) close() error {
	return c.db.Close()
}

// run executes one statement. INSERT, UPDATE and DELETE report rows
// affected; everything else is read as a result set.
func (c *dbConn) run(ctx context.Context, query string) (*result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if isModification(query) {
		res, err := c.db.ExecContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("exec: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		return &result{affected: n, modified: true}, nil
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectRows(rows)
}

func isModification(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	first := strings.ToUpper(fields[0])
	for _, kw := range []string{"INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(first, kw) {
			return true
		}
	}
	return false
}

func collectRows(rows *sql.Rows) (*result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	res := &result{columns: columns}
	for rows.Next() {
		if len(res.rows) >= maxRows {
			res.truncated = true
			break
		}
		vals := make([]*sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			vals[i] = &sql.NullString{}
			ptrs[i] = vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		res.rows = append(res.rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return res, nil
}

// loadSymbols returns the completion vocabulary: every table name, then
// every column name, in the order the schema enumerates them.
func (c *dbConn) loadSymbols(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tables, err := c.schemaTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	columns, err := c.schemaColumns(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	return append(tables, columns...), nil
}

func (c *dbConn) schemaTables(ctx context.Context) ([]string, error) {
	var query string
	switch c.engine {
	case "postgres":
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name"
	case "mysql":
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	case "sqlite":
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	default:
		return nil, fmt.Errorf("unsupported engine: %s", c.engine)
	}
	return c.queryStringColumn(ctx, query)
}

func (c *dbConn) schemaColumns(ctx context.Context, tables []string) ([]string, error) {
	switch c.engine {
	case "postgres":
		return c.queryStringColumn(ctx, "SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' ORDER BY table_name, ordinal_position")
	case "mysql":
		return c.queryStringColumn(ctx, "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() ORDER BY table_name, ordinal_position")
	case "sqlite":
		var all []string
		for _, t := range tables {
			cols, err := c.queryStringColumn(ctx, "SELECT name FROM pragma_table_info(?)", t)
			if err != nil {
				return nil, err
			}
			all = append(all, cols...)
		}
		return all, nil
	}
	return nil, fmt.Errorf("unsupported engine: %s", c.engine)
}

func (c *dbConn) queryStringColumn(ctx context.Context, query string, params ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// buildDSN turns connection settings into a driver DSN. An explicit DSN
// wins over the individual fields.
func buildDSN(cfg *Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	switch cfg.Engine {
	case "sqlite":
		if cfg.Database == "" {
			return ":memory:"
		}
		return cfg.Database
	case "postgres":
		var userInfo *url.Userinfo
		if cfg.Password != "" {
			userInfo = url.UserPassword(cfg.User, cfg.Password)
		} else {
			userInfo = url.User(cfg.User)
		}
		u := &url.URL{
			Scheme:   "postgres",
			User:     userInfo,
			Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Path:     "/" + cfg.Database,
			RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
		}
		return u.String()
	default:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Database
		return mc.FormatDSN()
	}
}

const passwordMask = "****"

// sanitizeDSN masks the password in a URL or MySQL style DSN for display.
// Anything it cannot parse, or that carries no password, is returned as is.
func sanitizeDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil || u.User == nil {
			return dsn
		}
		if _, ok := u.User.Password(); !ok {
			return dsn
		}
		// Redacted writes "xxxxx"; String would percent-escape the mask.
		return strings.Replace(u.Redacted(), ":xxxxx@", ":"+passwordMask+"@", 1)
	}

	mc, err := mysql.ParseDSN(dsn)
	if err != nil || mc.Passwd == "" {
		return dsn
	}
	mc.Passwd = passwordMask
	return mc.FormatDSN()
}

// engineLabel is the server name used in status messages.
func engineLabel(engine string) string {
	switch engine {
	case "postgres":
		return "PostgreSQL"
	case "sqlite":
		return "SQLite"
	}
	return "MySQL"
}
