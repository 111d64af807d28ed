package main

import (
	"errors"
	"io"
)

// errQuit ends the shell loop from a control command.
var errQuit = errors.New("quit")

const clearScreen = "\x1B[2J\x1B[1;1H"

// commandEntry maps a control command to its handler. Control commands are
// matched exactly against the whole trimmed submission and are never
// sent to the database or recorded in history.
type commandEntry struct {
	name    string
	handler func(out io.Writer) error
}

func controlCommands() []commandEntry {
	return []commandEntry{
		{name: "exit;", handler: func(io.Writer) error { return errQuit }},
		{name: "quit;", handler: func(io.Writer) error { return errQuit }},
		{name: "clear;", handler: func(out io.Writer) error {
			_, err := io.WriteString(out, clearScreen)
			return err
		}},
	}
}

// lookupCommand returns the control command for input, if any.
func lookupCommand(commands []commandEntry, input string) (commandEntry, bool) {
	for _, c := range commands {
		if c.name == input {
			return c, true
		}
	}
	return commandEntry{}, false
}
