package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueues_DefaultCatalogIsValid(t *testing.T) {
	t.Parallel()

	qs := Queues()
	require.NoError(t, ValidateQueues(qs))
	require.Len(t, qs, 12)
	assert.Equal(t, JobHandleFailureQueue, qs[0].Name)
	assert.Equal(t, WorkerTriggerQueue, qs[len(qs)-1].Name)
	assert.Nil(t, qs[0].DLQ)

	for _, q := range qs[1 : len(qs)-1] {
		require.NotNil(t, q.DLQ, q.Name)
		assert.Equal(t, 5, q.DLQ.MaxReceiveCount)
		assert.Equal(t, JobHandleFailureQueue, q.DLQ.Name)
		assert.Equal(t, 300, q.VisibilityTimeout)
	}
}

func TestQueues_ReturnsCopy(t *testing.T) {
	t.Parallel()

	qs := Queues()
	qs[0].Name = "mutated"
	qs[1].DLQ.MaxReceiveCount = 99

	fresh := Queues()
	assert.Equal(t, JobHandleFailureQueue, fresh[0].Name)
	assert.Equal(t, 5, fresh[1].DLQ.MaxReceiveCount)
}

func TestValidateQueues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		specs   []QueueSpec
		wantErr string
	}{
		{
			name:  "single queue",
			specs: []QueueSpec{{Name: "jobs", VisibilityTimeout: 30}},
		},
		{
			name:    "duplicate",
			specs:   []QueueSpec{{Name: "jobs"}, {Name: "jobs"}},
			wantErr: "duplicate queue name",
		},
		{
			name:    "empty name",
			specs:   []QueueSpec{{Name: ""}},
			wantErr: "empty queue name",
		},
		{
			name: "dlq declared later",
			specs: []QueueSpec{
				{Name: "jobs", DLQ: &DlqConfig{MaxReceiveCount: 3, Name: "failed"}},
				{Name: "failed"},
			},
			wantErr: "must be declared before",
		},
		{
			name: "zero receive count",
			specs: []QueueSpec{
				{Name: "failed"},
				{Name: "jobs", DLQ: &DlqConfig{MaxReceiveCount: 0, Name: "failed"}},
			},
			wantErr: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateQueues(tt.specs)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerTriggers_Order(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []WorkerTriggerType{Snos, Proving, DataSubmission, UpdateState}, WorkerTriggers())
	assert.Equal(t, "DataSubmission", DataSubmission.String())
}
