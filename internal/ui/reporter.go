package ui

import (
	"fmt"
	"io"
	"sync"
)

// Reporter writes run messages to a single stream. Documents may be
// processed concurrently, so writes are serialised.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	silent bool
	styles *StyleManager
}

// NewReporter creates a reporter writing to w. A silent reporter only
// prints errors.
func NewReporter(w io.Writer, silent bool) *Reporter {
	return &Reporter{
		w:      w,
		silent: silent,
		styles: DefaultStyles(w),
	}
}

// Info prints a plain progress message
func (r *Reporter) Info(format string, args ...any) {
	r.print(false, r.styles.Info.Render(fmt.Sprintf(format, args...)))
}

// Dim prints a low-importance message, such as a fence left untouched
func (r *Reporter) Dim(format string, args ...any) {
	r.print(false, r.styles.Dim.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a message about something the user likely wants to fix
func (r *Reporter) Warn(format string, args ...any) {
	r.print(false, r.styles.Warn.Render(fmt.Sprintf(format, args...)))
}

// Success prints a message about a change that was made
func (r *Reporter) Success(format string, args ...any) {
	r.print(false, r.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Error prints even when silent
func (r *Reporter) Error(format string, args ...any) {
	r.print(true, r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Location formats a document position for message prefixes
func (r *Reporter) Location(path string, line int) string {
	if line <= 0 {
		return r.styles.Path.Render(path)
	}
	return r.styles.Path.Render(fmt.Sprintf("%s:%d", path, line))
}

func (r *Reporter) print(force bool, msg string) {
	if r.silent && !force {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, msg)
}
