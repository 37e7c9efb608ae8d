package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ANSI colour codes
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
)

var (
	mu     sync.Mutex
	out    io.Writer = os.Stdout
	colour           = true
)

// SetOutput redirects all log lines, e.g. to a buffer in tests or to stderr
// when stdout carries data. nil restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

func SetColor(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colour = enabled
}

func ts() string {
	return time.Now().Format("15:04:05")
}

func logf(code, level, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	msg := fmt.Sprintf(format, a...)
	if !colour {
		fmt.Fprintf(out, "[%s] %-7s %s\n", ts(), level, msg)
		return
	}
	fmt.Fprintf(out, "%s[%s] %-7s %s%s\n", code, ts(), level, msg, reset)
}

func Info(format string, a ...interface{}) {
	logf(blue, "[INFO]", format, a...)
}

func Success(format string, a ...interface{}) {
	logf(green, "[OK]", format, a...)
}

func Warn(format string, a ...interface{}) {
	logf(yellow, "[WARN]", format, a...)
}

func Error(format string, a ...interface{}) {
	logf(red, "[ERROR]", format, a...)
}

func Section(title string) {
	mu.Lock()
	defer mu.Unlock()
	if !colour {
		fmt.Fprintf(out, "\n[%s] ══════════ %s ══════════\n\n", ts(), title)
		return
	}
	fmt.Fprintf(out, "\n%s[%s] ══════════ %s ══════════%s\n\n", cyan, ts(), title, reset)
}
