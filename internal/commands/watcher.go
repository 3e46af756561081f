package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zilgopy/exa-mcp/internal/graphql"
	"github.com/zilgopy/exa-mcp/internal/progress"
)

// defaultPollInterval is the fixed delay between status polls.
const defaultPollInterval = 3 * time.Second

const summaryQuery = `query CheckStateMachine($id: Int!) {
  stateMachine {
    getCmdSummary(id: $id) {
      name
      state
      failureReason
    }
  }
}`

// Watcher polls a command's state machine through the GraphQL client until a
// terminal state is observed. Between polls it emits one progress line per
// non-terminal status.
type Watcher struct {
	client       graphql.Client
	reporter     progress.Reporter
	pollInterval time.Duration
	maxWait      time.Duration
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithPollInterval overrides the default 3 second poll interval. Values of
// zero or less keep the default.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithMaxWait bounds the total time Wait spends on a single command. Zero
// (the default) means no bound: the watcher polls until the command reaches
// a terminal state or the context is cancelled.
func WithMaxWait(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.maxWait = d
		}
	}
}

// NewWatcher returns a Watcher backed by the provided GraphQL client and
// progress reporter.
func NewWatcher(client graphql.Client, reporter progress.Reporter, opts ...Option) *Watcher {
	if client == nil {
		panic("graphql client must not be nil")
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	w := &Watcher{
		client:       client,
		reporter:     reporter,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// summaryResponse is the JSON wrapper for a getCmdSummary query response.
type summaryResponse struct {
	StateMachine struct {
		GetCmdSummary Summary `json:"getCmdSummary"`
	} `json:"stateMachine"`
}

// Wait polls the command with the given id until it reaches a terminal
// state and returns that terminal Summary. A command that terminates in
// "failed", "canceled", or "skipped" is a normal return, not an error;
// callers must inspect State and FailureReason.
//
// Wait returns early with an error only when a poll itself fails, the
// context is cancelled, or the configured maximum wait elapses.
func (w *Watcher) Wait(ctx context.Context, id int) (*Summary, error) {
	var deadline time.Time
	if w.maxWait > 0 {
		deadline = time.Now().Add(w.maxWait)
	}

	for {
		summary, err := w.poll(ctx, id)
		if err != nil {
			return nil, err
		}
		if summary.Terminal() {
			return summary, nil
		}

		w.reporter.Info(ctx, fmt.Sprintf("%s is still ongoing.", summary.Name))

		if !deadline.IsZero() && time.Now().Add(w.pollInterval).After(deadline) {
			return nil, fmt.Errorf("commands: command %d did not reach a terminal state within %s (last state %q)", id, w.maxWait, summary.State)
		}

		timer := time.NewTimer(w.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// poll fetches one command status snapshot.
func (w *Watcher) poll(ctx context.Context, id int) (*Summary, error) {
	data, err := w.client.Execute(ctx, summaryQuery, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("commands: check state machine: %w", err)
	}

	var resp summaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("commands: parse state machine response: %w", err)
	}

	return &resp.StateMachine.GetCmdSummary, nil
}
