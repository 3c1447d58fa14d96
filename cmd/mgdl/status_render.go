package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"mgdl/internal/mirror"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
	statusLocked
)

const ansiReset = "\x1b[0m"

// statusStyle is the bracketed tag and colour of a status kind.
type statusStyle struct {
	tag   string
	color string
}

var statusStyles = map[statusKind]statusStyle{
	statusInfo:   {"INFO", "\x1b[34m"},
	statusOK:     {"OK", "\x1b[32m"},
	statusWarn:   {"WARN", "\x1b[33m"},
	statusError:  {"ERROR", "\x1b[31m"},
	statusLocked: {"LOCKED", "\x1b[35m"},
}

func styleOf(kind statusKind) statusStyle {
	if style, ok := statusStyles[kind]; ok {
		return style
	}
	return statusStyles[statusInfo]
}

// labelColumn is wide enough for "Interrupted removes:" and most manga names.
const labelColumn = 20

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-*s [%s]", labelColumn, label+":", styleOf(kind).tag)
	if message != "" {
		b.WriteString(" ")
		b.WriteString(message)
	}
	return paint(b.String(), kind, colorize)
}

func paint(text string, kind statusKind, colorize bool) string {
	if !colorize {
		return text
	}
	return styleOf(kind).color + text + ansiReset
}

// sweepStatus classifies one sweep item for the report table. A manga held
// by another process is LOCKED rather than ERROR.
func sweepStatus(item mirror.SweepItem) (statusKind, string) {
	switch {
	case item.OK():
		return statusOK, "ok"
	case errors.Is(item.Err, mirror.ErrLocked):
		return statusLocked, "locked"
	default:
		return statusError, "failed"
	}
}

func renderSectionHeader(title string, colorize bool) string {
	return paint("== "+strings.TrimSpace(title)+" ==", statusInfo, colorize)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
