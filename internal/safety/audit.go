package safety

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrNilWriter is returned by AuditLogger.Log when no destination writer is
// configured.
var ErrNilWriter = errors.New("audit logger: writer is nil")

// AuditEntry records one tool invocation against the appliance: which tool
// ran, with what arguments, and how it ended. Result carries the outcome
// label ("ok: completed", "denied", "cancelled", "error: ..."), so denied and
// unconfirmed destructive calls leave a trace even though they never reach
// the appliance.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Tool      string         `json:"tool"`
	Params    map[string]any `json:"params"`
	Result    string         `json:"result"`
	Duration  time.Duration  `json:"duration_ns"`
}

// AuditLogger appends entries to a log as newline-delimited JSON, one line
// per tool call. Safe for concurrent use by tool handlers.
type AuditLogger struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewAuditLogger returns an AuditLogger that writes to w. A nil writer yields
// a nil logger, which Log treats as a configuration error; tool code goes
// through tools.LogAudit, which skips a nil logger entirely.
func NewAuditLogger(w io.Writer) *AuditLogger {
	if w == nil {
		return nil
	}
	return &AuditLogger{enc: json.NewEncoder(w)}
}

// Log appends entry as one JSON line. The encoder is guarded by a mutex so
// concurrent tool handlers never interleave partial lines.
func (l *AuditLogger) Log(entry AuditEntry) error {
	if l == nil || l.enc == nil {
		return ErrNilWriter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}
