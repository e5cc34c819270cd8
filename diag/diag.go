// Package diag is the leveled diagnostic writer config.verbose/config.debug
// select: three severities printed in color, the same split
// report.Race's SEVERE/NORMAL/LOW levels use, generalized from race reports
// to rejection/warning/trace lines.
package diag

import (
	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/rst0git/herdtools7/config"
)

// Level is the severity of a diagnostic line.
type Level int

const (
	Severe Level = iota // a candidate was rejected outright (cycle, intervening write, failed assertion)
	Warn                // a degraded-but-continuing condition (loop-unroll bound reached)
	Trace               // informational detail, printed only under verbose
)

// Logger writes leveled, colored diagnostics. The zero value prints Severe
// and Warn lines and discards Trace and debug output; use New to enable
// verbose/debug output.
type Logger struct {
	verbose int
	debug   config.DebugFlags
}

// New builds a Logger from the verbose/debug knobs of config.Config.
func New(verbose int, debug config.DebugFlags) *Logger {
	return &Logger{verbose: verbose, debug: debug}
}

func (l *Logger) Rejectf(format string, args ...any) {
	color.HiRed(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	color.HiYellow(format, args...)
}

func (l *Logger) Tracef(format string, args ...any) {
	if l == nil || l.verbose <= 0 {
		return
	}
	color.HiBlue(format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !(l.debug.Solver || l.debug.Rfm) {
		return
	}
	color.HiGreen(format, args...)
}

// SolverEnabled reports whether config.debug.solver is set.
func (l *Logger) SolverEnabled() bool {
	return l != nil && l.debug.Solver
}

// RfmEnabled reports whether config.debug.rfm is set — the gate enumerate
// uses to decide whether a rejected RF tuple gets persisted to a Journal.
func (l *Logger) RfmEnabled() bool {
	return l != nil && l.debug.Rfm
}

// Log writes a formatted line at the given severity, the single entry point
// callers outside this package reach for when the severity itself is a
// runtime value rather than known at the call site.
func (l *Logger) Log(level Level, format string, args ...any) {
	switch level {
	case Severe:
		l.Rejectf(format, args...)
	case Warn:
		l.Warnf(format, args...)
	default:
		l.Tracef(format, args...)
	}
}

// AggregateErrors collects every non-nil error from errs into one, the same
// way distsys's EffectContext.Cleanup stack aggregates per-frame errors
// without stopping at the first.
func AggregateErrors(errs ...error) error {
	return multierr.Combine(errs...)
}
