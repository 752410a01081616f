package history

import (
	"context"
	"errors"
	"time"

	"github.com/steveyegge/autoprompter/internal/dispatch"
)

// Recorder writes a run to the database as its events arrive. It is a
// dispatch.Sink and is meant to sit next to the user-facing sink in a
// dispatch.MultiSink. Database failures never reach the engine; the first
// one is kept and reported by Err.
type Recorder struct {
	db    *DB
	runID string
	now   func() time.Time

	started  bool
	finished bool
	current  *Item
	err      error
}

// NewRecorder creates a recorder that stores events under runID.
func NewRecorder(db *DB, runID string) *Recorder {
	return &Recorder{db: db, runID: runID, now: time.Now}
}

// Err returns the first database error, if any.
func (r *Recorder) Err() error {
	return r.err
}

// Emit implements dispatch.Sink.
func (r *Recorder) Emit(e dispatch.Event) {
	ctx := context.Background()

	switch e.Type {
	case dispatch.TypeLoaded:
		r.record(r.db.StartRun(ctx, Run{
			ID:        r.runID,
			CSVPath:   e.Str("csv_path"),
			StartedAt: r.now(),
			DryRun:    e.Bool("dry_run"),
			Total:     e.Int("total"),
		}))
		r.started = r.err == nil

	case dispatch.TypeProgress:
		if !r.started {
			return
		}
		switch e.Str("step") {
		case dispatch.StepStart:
			r.current = &Item{
				Index:    e.Int("index"),
				Prompt:   e.Str("prompt"),
				Outcome:  OutcomePending,
				Attempts: 1,
			}
			r.saveItem(ctx)
		case dispatch.StepSend:
			r.settle(ctx, OutcomeSent)
		case dispatch.StepSimulate:
			r.settle(ctx, OutcomeSimulated)
		}

	case dispatch.TypeRetry:
		if r.current != nil {
			r.current.Attempts = e.Int("attempt") + 1
		}

	case dispatch.TypeError:
		if r.current != nil {
			r.current.Attempts = e.Int("attempts")
			r.current.Error = e.Str("step") + ": " + e.Str("error")
			r.settle(ctx, OutcomeFailed)
		}

	case dispatch.TypeResult:
		if !r.started || r.finished {
			return
		}
		res := dispatch.Result{Total: e.Int("total"), Sent: e.Int("sent"), Failed: e.Int("failed")}
		status := StatusCompleted
		if res.AllFailed() {
			status = StatusAllFailed
		}
		r.finish(ctx, res, status)
	}
}

// Fail closes out a run that ended with err instead of a result.
func (r *Recorder) Fail(res dispatch.Result, err error) {
	if !r.started || r.finished || err == nil {
		return
	}
	status := StatusError
	if errors.Is(err, dispatch.ErrInterrupted) {
		status = StatusInterrupted
	}
	r.finish(context.Background(), res, status)
}

func (r *Recorder) settle(ctx context.Context, outcome string) {
	if r.current == nil {
		return
	}
	r.current.Outcome = outcome
	r.saveItem(ctx)
	r.current = nil
}

func (r *Recorder) saveItem(ctx context.Context) {
	r.record(r.db.RecordItem(ctx, r.runID, *r.current))
}

func (r *Recorder) finish(ctx context.Context, res dispatch.Result, status string) {
	r.finished = true
	r.record(r.db.FinishRun(ctx, r.runID, r.now(), res.Total, res.Sent, res.Failed, status))
}

func (r *Recorder) record(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}
