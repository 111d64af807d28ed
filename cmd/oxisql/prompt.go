package main

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

// promptMissing asks for connection settings that neither the config file,
// the environment nor the flags supplied. It does nothing when stdin is not
// a terminal.
func promptMissing(cfg *Config, in *os.File) error {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) || cfg.DSN != "" {
		return nil
	}

	if cfg.Engine == "sqlite" {
		if cfg.Database == "" {
			rl, err := newSetupReadline()
			if err != nil {
				return err
			}
			defer func() { _ = rl.Close() }()
			cfg.Database = prompt(rl, "Database path", ":memory:")
		}
		return nil
	}

	if cfg.User == "" || cfg.Database == "" {
		rl, err := newSetupReadline()
		if err != nil {
			return err
		}
		if cfg.User == "" {
			cfg.User = prompt(rl, "User", currentUsername())
		}
		if cfg.Database == "" {
			cfg.Database = prompt(rl, "Database", "")
		}
		_ = rl.Close()
	}

	if cfg.needsPassword() {
		fmt.Fprint(os.Stderr, "Enter password: ")
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		cfg.Password = string(pw)
	}
	return nil
}

func newSetupReadline() (*readline.Instance, error) {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "[Config] ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("readline init: %w", err)
	}
	return rl, nil
}

func prompt(rl *readline.Instance, label, defaultVal string) string {
	if rl == nil {
		return defaultVal
	}
	if defaultVal != "" {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s [%s]: ", label, defaultVal))
	} else {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s: ", label))
	}
	line, err := rl.ReadLine()
	if err != nil {
		return defaultVal
	}
	val := strings.TrimSpace(line)
	if val == "" {
		return defaultVal
	}
	return val
}

func currentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
