package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/bawdo/oxisql/internal/testutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func noEnv(string) string { return "" }

func TestLoadConfigYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
engine: postgres
host: db.internal
port: 6432
user: app
database: shop
prompt: "shop> "
history: false
`)
	cfg, err := loadConfig(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Engine, "postgres")
	testutil.AssertEqual(t, cfg.Host, "db.internal")
	testutil.AssertEqual(t, cfg.Port, 6432)
	testutil.AssertEqual(t, cfg.User, "app")
	testutil.AssertEqual(t, cfg.Database, "shop")
	testutil.AssertEqual(t, cfg.Prompt, "shop> ")
	testutil.AssertEqual(t, cfg.historyEnabled(), false)
	testutil.AssertEqual(t, cfg.completionEnabled(), true)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, *cfg, Config{})
}

func TestLoadConfigMalformed(t *testing.T) {
	t.Parallel()
	_, err := loadConfig(writeConfig(t, "engine: [mysql\n"))
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	env := map[string]string{
		"OXISQL_ENGINE": " Postgres ",
		"DATABASE_URL":  "postgres://u@h/d",
	}
	cfg := &Config{Engine: "mysql"}
	cfg.applyEnv(func(k string) string { return env[k] })
	testutil.AssertEqual(t, cfg.Engine, "postgres")
	testutil.AssertEqual(t, cfg.DSN, "postgres://u@h/d")
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()
	cases := []struct {
		engine string
		host   string
		port   int
	}{
		{"", "localhost", 3306},
		{"mysql", "localhost", 3306},
		{"postgres", "localhost", 5432},
		{"sqlite", "", 0},
	}
	for _, tc := range cases {
		cfg := &Config{Engine: tc.engine}
		testutil.AssertNoError(t, cfg.applyDefaults())
		testutil.AssertEqual(t, cfg.Host, tc.host)
		testutil.AssertEqual(t, cfg.Port, tc.port)
		testutil.AssertEqual(t, cfg.Prompt, "oxisql> ")
		testutil.AssertEqual(t, cfg.SSLMode, "disable")
	}
}

func TestApplyDefaultsUnknownEngine(t *testing.T) {
	t.Parallel()
	cfg := &Config{Engine: "oracle"}
	testutil.AssertError(t, cfg.applyDefaults())
}

func TestNeedsPassword(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, (&Config{Engine: "mysql"}).needsPassword(), true)
	testutil.AssertEqual(t, (&Config{Engine: "mysql", Password: "x"}).needsPassword(), false)
	testutil.AssertEqual(t, (&Config{Engine: "mysql", DSN: "u:p@/d"}).needsPassword(), false)
	testutil.AssertEqual(t, (&Config{Engine: "sqlite"}).needsPassword(), false)
}

func TestDefaultHistoryPath(t *testing.T) {
	t.Parallel()
	if !strings.HasSuffix(defaultHistoryPath(), filepath.Join(".cache", "oxisql", "queries.trie.json")) {
		t.Errorf("unexpected history path %q", defaultHistoryPath())
	}
}

// --- Flag merging ---

func parseFlags(t *testing.T, args ...string) (*cobra.Command, *flags) {
	t.Helper()
	cmd := &cobra.Command{Use: "oxisql"}
	var f flags
	bindFlags(cmd, &f)
	testutil.AssertNoError(t, cmd.Flags().Parse(args))
	return cmd, &f
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "engine: postgres\nhost: filehost\nuser: fileuser\n")
	cmd, f := parseFlags(t, "--config", path, "-h", "flaghost", "-P", "7000", "-D", "shop")

	cfg, err := resolveConfig(cmd, f, noEnv)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Engine, "postgres")
	testutil.AssertEqual(t, cfg.Host, "flaghost")
	testutil.AssertEqual(t, cfg.Port, 7000)
	testutil.AssertEqual(t, cfg.User, "fileuser")
	testutil.AssertEqual(t, cfg.Database, "shop")
}

func TestResolveConfigEnvOverridesFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "engine: postgres\n")
	cmd, f := parseFlags(t, "--config", path)

	cfg, err := resolveConfig(cmd, f, func(k string) string {
		if k == "OXISQL_ENGINE" {
			return "sqlite"
		}
		return ""
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Engine, "sqlite")
	testutil.AssertEqual(t, cfg.Host, "")
}

func TestResolveConfigFlagOverridesEnv(t *testing.T) {
	t.Parallel()
	cmd, f := parseFlags(t, "--config", "", "-E", "mysql")
	cfg, err := resolveConfig(cmd, f, func(k string) string {
		if k == "OXISQL_ENGINE" {
			return "postgres"
		}
		return ""
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Engine, "mysql")
	testutil.AssertEqual(t, cfg.Port, 3306)
}

func TestResolveConfigFeatureSwitches(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "history_file: /tmp/from-file.json\n")
	cmd, f := parseFlags(t, "--config", path, "--no-history", "--no-completion", "--history-file", "/tmp/h.json")

	cfg, err := resolveConfig(cmd, f, noEnv)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.historyEnabled(), false)
	testutil.AssertEqual(t, cfg.completionEnabled(), false)
	testutil.AssertEqual(t, cfg.HistoryFile, "/tmp/h.json")
}

func TestHostShorthandIsNotHelp(t *testing.T) {
	t.Parallel()
	cmd, f := parseFlags(t, "--config", "", "-h", "db")
	testutil.AssertEqual(t, f.host, "db")
	help, err := cmd.Flags().GetBool("help")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, help, false)
}
