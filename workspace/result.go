package workspace

import "fmt"

// Level is the severity a front-end uses to render a Result.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Result is what every mutating operation returns. Batch operations keep
// going after a failing item; Failures lists one message per failed item and
// Processed counts the items that succeeded.
type Result struct {
	Level     Level    `json:"level"`
	Message   string   `json:"message"`
	Processed int      `json:"processed"`
	Failures  []string `json:"failures,omitempty"`
	Notes     []string `json:"notes,omitempty"`
}

func (r Result) Failed() bool {
	return r.Level == LevelError
}

func errorResult(format string, args ...any) Result {
	return Result{Level: LevelError, Message: fmt.Sprintf(format, args...)}
}

func warningResult(format string, args ...any) Result {
	return Result{Level: LevelWarning, Message: fmt.Sprintf(format, args...)}
}

// batch accumulates per-item outcomes.
type batch struct {
	processed int
	failures  []string
	notes     []string
	warned    bool
}

func (b *batch) ok() { b.processed++ }

func (b *batch) fail(format string, args ...any) {
	b.failures = append(b.failures, fmt.Sprintf(format, args...))
}

func (b *batch) note(format string, args ...any) {
	b.notes = append(b.notes, fmt.Sprintf(format, args...))
}

// warn records a note that lowers a successful result to a warning.
func (b *batch) warn(format string, args ...any) {
	b.note(format, args...)
	b.warned = true
}

// result picks the level: success when nothing failed, warning on partial
// success or notes that need attention, error when every item failed.
func (b *batch) result(format string, args ...any) Result {
	r := Result{
		Level:     LevelSuccess,
		Message:   fmt.Sprintf(format, args...),
		Processed: b.processed,
		Failures:  b.failures,
		Notes:     b.notes,
	}
	switch {
	case len(b.failures) > 0 && b.processed == 0:
		r.Level = LevelError
		r.Message = b.failures[0]
		if len(b.failures) > 1 {
			r.Message = fmt.Sprintf("%s (and %d more)", b.failures[0], len(b.failures)-1)
		}
	case len(b.failures) > 0 || b.warned:
		r.Level = LevelWarning
	}
	return r
}
