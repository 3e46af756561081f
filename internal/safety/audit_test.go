package safety

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func Test_AuditLogger_WritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(&buf)

	entries := []AuditEntry{
		{Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Tool: "list_tenants", Params: map[string]any{}, Result: "ok", Duration: time.Millisecond},
		{Timestamp: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC), Tool: "destroy_tenant", Params: map[string]any{"name": "alpha", "confirm": false}, Result: "cancelled", Duration: 2 * time.Millisecond},
	}
	for _, e := range entries {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var decoded AuditEntry
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("line 2 is not valid JSON: %v", err)
	}
	if decoded.Tool != "destroy_tenant" || decoded.Result != "cancelled" {
		t.Errorf("decoded = %+v, want destroy_tenant/cancelled", decoded)
	}
	if decoded.Params["name"] != "alpha" {
		t.Errorf("params[name] = %v, want alpha", decoded.Params["name"])
	}
}

func Test_NewAuditLogger_NilWriter(t *testing.T) {
	logger := NewAuditLogger(nil)
	if logger != nil {
		t.Fatal("NewAuditLogger(nil) should return nil")
	}

	// Logging on the nil logger reports ErrNilWriter rather than panicking.
	err := logger.Log(AuditEntry{Tool: "x"})
	if !errors.Is(err, ErrNilWriter) {
		t.Errorf("err = %v, want ErrNilWriter", err)
	}
}

// syncBuffer serialises writes so the race detector can validate the logger's
// own locking rather than the test buffer's.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func Test_AuditLogger_ConcurrentWritesStayLineDelimited(t *testing.T) {
	buf := &syncBuffer{}
	logger := NewAuditLogger(buf)

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_ = logger.Log(AuditEntry{Tool: "list_tenants", Result: "ok"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != writers {
		t.Fatalf("lines = %d, want %d", len(lines), writers)
	}
	for i, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("line %d is not valid JSON: %q", i, line)
		}
	}
}
