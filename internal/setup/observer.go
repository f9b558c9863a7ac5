package setup

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/orchestrator/internal/resource"
)

// Observer receives structured provisioning events.
type Observer interface {
	// Event emits a structured event.
	Event(event Event)

	// WithFields returns a new Observer with additional context fields.
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType
	Phase     string // resource kind, or "run"
	Message   string
	Resource  string // resource name if applicable
	Timestamp time.Time
	Fields    map[string]string
	Err       error
}

// EventType represents the type of provisioning event.
type EventType string

const (
	EventPhaseStarted   EventType = "phase.started"
	EventPhaseCompleted EventType = "phase.completed"
	EventPhaseFailed    EventType = "phase.failed"

	EventResourceCreating EventType = "resource.creating"
	EventResourceCreated  EventType = "resource.created"
	EventResourceExists   EventType = "resource.exists"
	EventResourceFailed   EventType = "resource.failed"
	// EventResourceSkipped indicates a kind was not attempted because a
	// dependency was not ready.
	EventResourceSkipped  EventType = "resource.skipped"
	EventResourceDeleting EventType = "resource.deleting"
	EventResourceDeleted  EventType = "resource.deleted"
)

// LogObserver implements Observer on top of a logr.Logger.
type LogObserver struct {
	log    logr.Logger
	fields map[string]string
}

// NewLogObserver creates an observer writing to log.
func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log, fields: map[string]string{}}
}

// Event implements Observer. Failure events are logged at error level.
func (o *LogObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	kv := []any{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}

	merged := mergeFields(o.fields, event.Fields)
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		kv = append(kv, k, merged[k])
	}

	switch event.Type {
	case EventPhaseFailed, EventResourceFailed:
		o.log.Error(event.Err, event.Message, kv...)
	default:
		if event.Err != nil {
			kv = append(kv, "reason", event.Err.Error())
		}
		o.log.Info(event.Message, kv...)
	}
}

// WithFields implements Observer.
func (o *LogObserver) WithFields(fields map[string]string) Observer {
	return &LogObserver{log: o.log, fields: mergeFields(o.fields, fields)}
}

func mergeFields(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	maps.Copy(merged, base)
	maps.Copy(merged, extra)
	return merged
}

// LogPhaseStart logs the start of a kind.
func LogPhaseStart(observer Observer, kind resource.Type, action string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   kind.String(),
		Message: action + " started",
	})
}

// LogPhaseComplete logs the completion of a kind.
func LogPhaseComplete(observer Observer, kind resource.Type, action string, ready bool, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   kind.String(),
		Message: fmt.Sprintf("%s completed in %v", action, duration.Round(time.Millisecond)),
		Fields:  map[string]string{"ready": fmt.Sprint(ready)},
	})
}

// LogPhaseFailed logs a failed kind.
func LogPhaseFailed(observer Observer, kind resource.Type, action string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   kind.String(),
		Message: action + " failed",
		Err:     err,
	})
}

// LogResourceSkipped logs a kind that was not attempted.
func LogResourceSkipped(observer Observer, kind resource.Type, err error) {
	observer.Event(Event{
		Type:    EventResourceSkipped,
		Phase:   kind.String(),
		Message: "skipped",
		Err:     err,
	})
}

// LogResourceCreated logs a single created resource.
func LogResourceCreated(observer Observer, kind resource.Type, name string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    kind.String(),
		Resource: name,
		Message:  "created " + kind.String(),
	})
}

// LogResourceDeleting logs the start of a kind teardown.
func LogResourceDeleting(observer Observer, kind resource.Type) {
	observer.Event(Event{
		Type:    EventResourceDeleting,
		Phase:   kind.String(),
		Message: "deleting " + kind.String(),
	})
}

// LogResourceDeleted logs a completed kind teardown.
func LogResourceDeleted(observer Observer, kind resource.Type, duration time.Duration) {
	observer.Event(Event{
		Type:    EventResourceDeleted,
		Phase:   kind.String(),
		Message: fmt.Sprintf("deleted %s in %v", kind, duration.Round(time.Millisecond)),
	})
}
