// Package diag carries the non-fatal findings of the pipeline stages.
package diag

import (
	"fmt"

	"go.uber.org/zap"
)

type Severity int

const (
	Debug Severity = iota
	Info
	Warning
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	}
	return "debug"
}

type Diagnostic struct {
	Severity Severity
	Ref      string
	Message  string
}

func (d Diagnostic) String() string {
	if d.Ref == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Ref, d.Message)
}

// List accumulates diagnostics in the order they were raised.
type List []Diagnostic

func (l *List) Add(sev Severity, ref, format string, args ...interface{}) {
	*l = append(*l, Diagnostic{Severity: sev, Ref: ref, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of diagnostics at or above sev.
func (l List) Count(sev Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity >= sev {
			n++
		}
	}
	return n
}

// Log writes every diagnostic to log at the matching level.
func (l List) Log(log *zap.SugaredLogger) {
	for _, d := range l {
		switch d.Severity {
		case Warning:
			log.Warnw(d.Message, "ref", d.Ref)
		case Info:
			log.Infow(d.Message, "ref", d.Ref)
		default:
			log.Debugw(d.Message, "ref", d.Ref)
		}
	}
}
