package dispatch

import (
	"encoding/json"
	"time"
)

// EventType tags an Event. Consumers must ignore types they do not know.
type EventType string

const (
	TypePhase       EventType = "phase"
	TypeLoaded      EventType = "loaded"
	TypeWindowFound EventType = "window_found"
	TypeCoordinate  EventType = "coordinate"
	TypeCountdown   EventType = "countdown"
	TypeProgress    EventType = "progress"
	TypeRetry       EventType = "retry"
	TypeCSVUpdated  EventType = "csv_updated"
	TypeWait        EventType = "wait"
	TypeError       EventType = "error"
	TypeResult      EventType = "result"
)

// Phase is a named stage of a dispatch run.
type Phase string

const (
	PhaseInitialization Phase = "initialization"
	PhaseWindowSearch   Phase = "window_search"
	PhaseCoordinate     Phase = "coordinate_setup"
	PhaseProcessingPrep Phase = "processing_prep"
	PhaseProcessing     Phase = "processing"
	PhaseGenerationWait Phase = "generation_wait"
	PhaseFinalWait      Phase = "final_wait"
)

// Progress steps reported while sending one item.
const (
	StepStart     = "start"
	StepSimulate  = "simulate"
	StepActivate  = "activate"
	StepClick     = "click"
	StepSelectAll = "select_all"
	StepCopy      = "copy"
	StepPaste     = "paste"
	StepSend      = "send"
)

// Event is a flat status record emitted by the engine. It marshals to a
// single JSON object: {"type": ..., <fields>...}.
type Event struct {
	Type   EventType
	Fields map[string]interface{}
}

// MarshalJSON flattens the event type and its fields into one object.
func (e Event) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		flat[k] = v
	}
	flat["type"] = e.Type
	return json.Marshal(flat)
}

// Str returns a string field, or "" if absent.
func (e Event) Str(key string) string {
	switch v := e.Fields[key].(type) {
	case string:
		return v
	case Phase:
		return string(v)
	}
	return ""
}

// Int returns an integer field, or 0 if absent.
func (e Event) Int(key string) int {
	switch v := e.Fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Bool returns a boolean field, or false if absent.
func (e Event) Bool(key string) bool {
	v, _ := e.Fields[key].(bool)
	return v
}

// Sink consumes the events of a run. The engine never writes output itself;
// everything a user sees is rendered by a Sink.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// MultiSink fans events out to several sinks in order. Nil sinks are skipped.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(e)
			}
		}
	})
}

func newEvent(t EventType, fields map[string]interface{}) Event {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return Event{Type: t, Fields: fields}
}

// Payload helpers for the event types.

// PhaseEvent is emitted on entry to each phase.
func PhaseEvent(p Phase) Event {
	return newEvent(TypePhase, map[string]interface{}{"name": string(p)})
}

// LoadedEvent reports the work list size after filtering and max-items.
func LoadedEvent(total int, csvPath string, dryRun bool, maxItems int, downgraded bool) Event {
	f := map[string]interface{}{
		"total":    total,
		"csv_path": csvPath,
		"dry_run":  dryRun,
	}
	if maxItems > 0 {
		f["max_items"] = maxItems
	}
	if downgraded {
		f["overrides_downgraded"] = true
	}
	return newEvent(TypeLoaded, f)
}

// WindowFoundEvent reports the window discovered during window search.
func WindowFoundEvent(title string, dryRun bool) Event {
	f := map[string]interface{}{"title": title}
	if dryRun {
		f["dry_run"] = true
	}
	return newEvent(TypeWindowFound, f)
}

// CoordinateEvent reports the captured injection target.
func CoordinateEvent(t InjectionTarget, title string, dryRun bool) Event {
	f := map[string]interface{}{
		"x": t.X,
		"y": t.Y,
	}
	if dryRun {
		f["dry_run"] = true
	} else {
		f["window_captured"] = true
		f["window_title"] = title
		f["window_handle"] = string(t.Window)
	}
	return newEvent(TypeCoordinate, f)
}

// CountdownEvent is emitted once per second before coordinate capture and
// before processing starts.
func CountdownEvent(secondsLeft int, phase Phase, message string) Event {
	return newEvent(TypeCountdown, map[string]interface{}{
		"seconds_left": secondsLeft,
		"phase":        string(phase),
		"message":      message,
	})
}

// ProgressEvent reports a sub-step of sending item index of total.
func ProgressEvent(step string, index, total int) Event {
	return newEvent(TypeProgress, map[string]interface{}{
		"step":  step,
		"index": index,
		"total": total,
	})
}

// ClickEvent is the click progress step, which also reports the point.
func ClickEvent(index, total, x, y int) Event {
	ev := ProgressEvent(StepClick, index, total)
	ev.Fields["x"] = x
	ev.Fields["y"] = y
	return ev
}

// RetryEvent is emitted before each repeated attempt.
func RetryEvent(attempt, maxRetry, index, total int) Event {
	return newEvent(TypeRetry, map[string]interface{}{
		"attempt":   attempt,
		"max_retry": maxRetry,
		"index":     index,
		"total":     total,
	})
}

// CSVUpdatedEvent reports that an item was marked done in the work list.
func CSVUpdatedEvent(markedDone string) Event {
	return newEvent(TypeCSVUpdated, map[string]interface{}{
		"marked_done": markedDone,
	})
}

// WaitEvent is one tick of a generation or final wait.
func WaitEvent(secondsLeft, nextIndex, total int, final bool) Event {
	f := map[string]interface{}{
		"seconds_left": secondsLeft,
		"minutes":      secondsLeft / 60,
		"seconds":      secondsLeft % 60,
	}
	if final {
		f["final"] = true
	} else {
		f["next_index"] = nextIndex
		f["total"] = total
	}
	return newEvent(TypeWait, f)
}

// ErrorEvent reports an item that failed after all attempts.
func ErrorEvent(step string, index, total int, err error, attempts, maxRetry int) Event {
	return newEvent(TypeError, map[string]interface{}{
		"step":      step,
		"index":     index,
		"total":     total,
		"error":     err.Error(),
		"attempts":  attempts,
		"max_retry": maxRetry,
	})
}

// ResultEvent is the terminal event of a completed run.
func ResultEvent(r Result) Event {
	return newEvent(TypeResult, map[string]interface{}{
		"total":  r.Total,
		"sent":   r.Sent,
		"failed": r.Failed,
	})
}

// Result is the outcome of a run.
type Result struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// AllFailed reports whether every loaded item failed.
func (r Result) AllFailed() bool {
	return r.Total > 0 && r.Failed == r.Total
}

// waitSlice is the longest single sleep between wait ticks.
const waitSlice = 10 * time.Second
