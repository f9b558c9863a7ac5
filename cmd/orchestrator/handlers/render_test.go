package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/orchestrator/internal/resource"
	"github.com/imamik/orchestrator/internal/setup"
)

func TestRenderReport(t *testing.T) {
	t.Parallel()
	r := &setup.Report{
		RunID:     "2NmBvR7nTQx1",
		Operation: setup.OpSetup,
		Duration:  3 * time.Second,
		Outcomes: []setup.Outcome{
			{Kind: resource.Storage, Ready: true, Duration: 1200 * time.Millisecond},
			{Kind: resource.Queue, Err: errors.New("queue: failed to create queue")},
			{Kind: resource.Notification},
			{Kind: resource.Cron, Skipped: true, Err: &resource.DependencyNotReadyError{Kind: resource.Cron, DependsOn: resource.Queue, Timeout: time.Minute}},
		},
	}

	out := renderReport(r)
	assert.Contains(t, out, "orchestrator setup")
	assert.Contains(t, out, "run 2NmBvR7nTQx1")
	assert.Contains(t, out, "1.2s")
	assert.Contains(t, out, "queue: failed to create queue")
	assert.Contains(t, out, "dependency queue not ready within 1m0s")
	assert.Contains(t, out, "Total")
}

func TestOutcomeLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		op   setup.Operation
		o    setup.Outcome
		want string
	}{
		{"ready", setup.OpSetup, setup.Outcome{Ready: true}, "ready"},
		{"not ready", setup.OpStatus, setup.Outcome{}, "not ready"},
		{"failed", setup.OpSetup, setup.Outcome{Err: errors.New("x")}, "failed"},
		{"skipped", setup.OpSetup, setup.Outcome{Skipped: true, Err: errors.New("x")}, "skipped"},
		{"deleted", setup.OpTeardown, setup.Outcome{}, "deleted"},
		{"teardown failed", setup.OpTeardown, setup.Outcome{Err: errors.New("x")}, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, _ := outcomeLabel(tt.op, tt.o)
			assert.Equal(t, tt.want, got)
		})
	}
}
