package main

import "strings"

type commandKind int

const (
	cmdEmpty commandKind = iota
	cmdInvalid
	cmdSend
	cmdOnline
	cmdHistory
	cmdQuit
)

type command struct {
	kind commandKind
	to   string
	text string
}

// parseCommand reads one prompt line: "@user message", "/online", "/history" or "/quit".
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return command{kind: cmdEmpty}
	case line == "/online":
		return command{kind: cmdOnline}
	case line == "/history":
		return command{kind: cmdHistory}
	case line == "/quit":
		return command{kind: cmdQuit}
	case strings.HasPrefix(line, "@"):
		to, text, ok := strings.Cut(line[1:], " ")
		text = strings.TrimSpace(text)
		if !ok || to == "" || text == "" {
			return command{kind: cmdInvalid}
		}
		return command{kind: cmdSend, to: to, text: text}
	default:
		return command{kind: cmdInvalid}
	}
}
