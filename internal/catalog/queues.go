package catalog

import "fmt"

// Queue base names.
const (
	JobHandleFailureQueue                 = "job_handle_failure"
	SnosJobProcessingQueue                = "snos_job_processing"
	SnosJobVerificationQueue              = "snos_job_verification"
	ProvingJobProcessingQueue             = "proving_job_processing"
	ProvingJobVerificationQueue           = "proving_job_verification"
	ProofRegistrationJobProcessingQueue   = "proof_registration_job_processing"
	ProofRegistrationJobVerificationQueue = "proof_registration_job_verification"
	DataSubmissionJobProcessingQueue      = "data_submission_job_processing"
	DataSubmissionJobVerificationQueue    = "data_submission_job_verification"
	UpdateStateJobProcessingQueue         = "update_state_job_processing"
	UpdateStateJobVerificationQueue       = "update_state_job_verification"
	WorkerTriggerQueue                    = "worker_trigger"
)

const (
	defaultVisibilityTimeout = 300
	defaultMaxReceiveCount   = 5
)

// DlqConfig binds a queue to its dead-letter queue.
type DlqConfig struct {
	// MaxReceiveCount is the number of receives before a message moves to the DLQ.
	MaxReceiveCount int
	// Name is the catalog base name of the dead-letter queue.
	Name string
}

// QueueSpec declares one queue of the catalog.
type QueueSpec struct {
	Name string
	// VisibilityTimeout in seconds.
	VisibilityTimeout int
	DLQ               *DlqConfig
}

var queues = []QueueSpec{
	{Name: JobHandleFailureQueue, VisibilityTimeout: defaultVisibilityTimeout},
	withFailureDLQ(SnosJobProcessingQueue),
	withFailureDLQ(SnosJobVerificationQueue),
	withFailureDLQ(ProvingJobProcessingQueue),
	withFailureDLQ(ProvingJobVerificationQueue),
	withFailureDLQ(ProofRegistrationJobProcessingQueue),
	withFailureDLQ(ProofRegistrationJobVerificationQueue),
	withFailureDLQ(DataSubmissionJobProcessingQueue),
	withFailureDLQ(DataSubmissionJobVerificationQueue),
	withFailureDLQ(UpdateStateJobProcessingQueue),
	withFailureDLQ(UpdateStateJobVerificationQueue),
	{Name: WorkerTriggerQueue, VisibilityTimeout: defaultVisibilityTimeout},
}

func withFailureDLQ(name string) QueueSpec {
	return QueueSpec{
		Name:              name,
		VisibilityTimeout: defaultVisibilityTimeout,
		DLQ:               &DlqConfig{MaxReceiveCount: defaultMaxReceiveCount, Name: JobHandleFailureQueue},
	}
}

// Queues returns a copy of the default queue catalog in provisioning order.
func Queues() []QueueSpec {
	out := make([]QueueSpec, len(queues))
	for i, q := range queues {
		out[i] = q
		if q.DLQ != nil {
			dlq := *q.DLQ
			out[i].DLQ = &dlq
		}
	}
	return out
}

// ValidateQueues checks catalog invariants: unique names, positive
// timeouts, and every DLQ declared earlier in the catalog than its users.
func ValidateQueues(specs []QueueSpec) error {
	seen := make(map[string]bool, len(specs))
	for _, q := range specs {
		if q.Name == "" {
			return fmt.Errorf("queue catalog: empty queue name")
		}
		if seen[q.Name] {
			return fmt.Errorf("queue catalog: duplicate queue name %q", q.Name)
		}
		if q.VisibilityTimeout < 0 {
			return fmt.Errorf("queue catalog: negative visibility timeout for %q", q.Name)
		}
		if q.DLQ != nil {
			if q.DLQ.MaxReceiveCount <= 0 {
				return fmt.Errorf("queue catalog: max receive count for %q must be positive", q.Name)
			}
			if !seen[q.DLQ.Name] {
				return fmt.Errorf("queue catalog: dead-letter queue %q for %q must be declared before it", q.DLQ.Name, q.Name)
			}
		}
		seen[q.Name] = true
	}
	return nil
}
