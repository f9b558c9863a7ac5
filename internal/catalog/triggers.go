package catalog

// WorkerTriggerType is a category of periodic job.
type WorkerTriggerType string

// Worker trigger types, in catalog order.
const (
	Snos           WorkerTriggerType = "Snos"
	Proving        WorkerTriggerType = "Proving"
	DataSubmission WorkerTriggerType = "DataSubmission"
	UpdateState    WorkerTriggerType = "UpdateState"
)

var workerTriggers = []WorkerTriggerType{Snos, Proving, DataSubmission, UpdateState}

// WorkerTriggers returns a copy of the trigger catalog in attachment order.
func WorkerTriggers() []WorkerTriggerType {
	out := make([]WorkerTriggerType, len(workerTriggers))
	copy(out, workerTriggers)
	return out
}

// String implements fmt.Stringer. It is also the message body delivered to
// the worker trigger queue.
func (w WorkerTriggerType) String() string {
	return string(w)
}
