// Package auditlog implements the mutex-protected, append-only audit log
// spec §5/§6 requires: the core writes an audit line only for safety events
// (kill switch, target-lock violation, vision-fallback usage), never for
// routine step activity. Grounded on the teacher's internal/agent/ExecLogger
// (mutex + *os.File, one write method per event family), adapted from a
// truncate-on-session markdown log to an append-only plain-text one.
package auditlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Log is a thread-safe append-only writer over a single file.
type Log struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (creating if necessary) the audit log at path in append mode.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("auditlog: open %q: %w", path, err)
	}
	return &Log{file: f}, nil
}

func (l *Log) writef(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	fmt.Fprintf(l.file, "%s "+format+"\n", append([]any{ts}, args...)...)
}

// KillSwitch records that the kill switch was tripped mid-run.
func (l *Log) KillSwitch(scope string) {
	l.writef("[KillSwitch] tripped; scope=%s marked skipped", scope)
}

// TargetLockViolation records a target-lock drift (spec §7's TargetLockViolation kind).
func (l *Log) TargetLockViolation(flowName string, stepOrder int, detail string) {
	l.writef("[TargetLock] flow=%q step=%d violation: %s", flowName, stepOrder, detail)
}

// VisionFallbackUsed records a step that resolved via the vision path
// (spec §4.7's "always append an audit line" invariant).
func (l *Log) VisionFallbackUsed(flowName string, stepOrder int, confidence float64) {
	l.writef("[Vision] flow=%q step=%d fallback used; confidence=%.2f", flowName, stepOrder, confidence)
}

// AllowlistViolation records a process-allowlist rejection.
func (l *Log) AllowlistViolation(processPath string) {
	l.writef("[Allowlist] rejected process %q", processPath)
}

// Close closes the underlying file.
func (l *Log) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Nop is a Log that discards everything — used when no audit path is
// configured so call sites never need a nil check.
func Nop() *Log {
	return &Log{file: nil}
}
