package calculation

import (
	"fmt"
	"io"
)

// Logger is a minimal logging interface for the simulation engine.
// Implementations should be fast; the default is a no-op.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no output.
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...any) {}
func (NopLogger) Infof(format string, args ...any)  {}
func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// WriterLogger writes leveled lines to an io.Writer. The CLI points it at
// stderr so run diagnostics never mix with formatted results on stdout.
type WriterLogger struct {
	W     io.Writer
	Debug bool
}

func (wl WriterLogger) Debugf(format string, args ...any) {
	if wl.Debug {
		fmt.Fprintf(wl.W, "DEBUG "+format+"\n", args...)
	}
}

func (wl WriterLogger) Infof(format string, args ...any) {
	fmt.Fprintf(wl.W, "INFO  "+format+"\n", args...)
}

func (wl WriterLogger) Warnf(format string, args ...any) {
	fmt.Fprintf(wl.W, "WARN  "+format+"\n", args...)
}

func (wl WriterLogger) Errorf(format string, args ...any) {
	fmt.Fprintf(wl.W, "ERROR "+format+"\n", args...)
}
