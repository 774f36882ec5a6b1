package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"curator/internal/preflight"
	"curator/internal/stage"
)

// checkState is the outcome shown in brackets on a status line.
type checkState int

const (
	stateInfo checkState = iota
	stateOK
	stateWarn
	stateError
)

var stateStyles = map[checkState]struct{ label, color string }{
	stateInfo:  {"INFO", "\x1b[34m"},
	stateOK:    {"OK", "\x1b[32m"},
	stateWarn:  {"WARN", "\x1b[33m"},
	stateError: {"ERROR", "\x1b[31m"},
}

const (
	ansiReset  = "\x1b[0m"
	labelWidth = 22
)

// statusPrinter accumulates the sections of `curator status`.
type statusPrinter struct {
	colorize bool
	lines    []string
}

func (p *statusPrinter) section(title string) {
	if len(p.lines) > 0 {
		p.lines = append(p.lines, "")
	}
	p.lines = append(p.lines, p.paint(fmt.Sprintf("== %s ==", strings.TrimSpace(title)), stateStyles[stateInfo].color))
}

func (p *statusPrinter) check(label string, state checkState, message string) {
	p.lines = append(p.lines, formatCheck(label, state, message, p.colorize))
}

func (p *statusPrinter) paint(text, color string) string {
	if !p.colorize || color == "" {
		return text
	}
	return color + text + ansiReset
}

func formatCheck(label string, state checkState, message string, colorize bool) string {
	style := stateStyles[state]
	text := fmt.Sprintf("  %-*s [%s]", labelWidth, label+":", style.label)
	if message != "" {
		text += " " + message
	}
	if colorize {
		return style.color + text + ansiReset
	}
	return text
}

func stageState(h stage.Health) (checkState, string) {
	if h.Ready {
		return stateOK, "Ready"
	}
	return stateError, h.Detail
}

// preflightState downgrades failed advisory checks to warnings.
func preflightState(r preflight.Result) checkState {
	switch {
	case r.Passed:
		return stateOK
	case r.Required:
		return stateError
	default:
		return stateWarn
	}
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
