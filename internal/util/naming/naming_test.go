package naming

import "testing"

func TestNamingFunctions(t *testing.T) {
	prefix := "orch"

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "Queue",
			got:      Queue(prefix, "jobs", "q1"),
			expected: "orch_jobs_q1",
		},
		{
			name:     "QueueURL",
			got:      QueueURL("https://q.example", "orch_jobs_q1"),
			expected: "https://q.example/orch_jobs_q1",
		},
		{
			name:     "QueueURL trailing slash",
			got:      QueueURL("https://q.example/", "orch_jobs_q1"),
			expected: "https://q.example/orch_jobs_q1",
		},
		{
			name:     "TriggerRule",
			got:      TriggerRule(prefix),
			expected: "orch-worker-trigger",
		},
		{
			name:     "TriggerRole",
			got:      TriggerRole(prefix),
			expected: "orch-worker-trigger-role",
		},
		{
			name:     "TriggerPolicy",
			got:      TriggerPolicy(prefix),
			expected: "orch-worker-trigger-policy",
		},
		{
			name:     "Trigger",
			got:      Trigger("orch-worker-trigger", "Snos"),
			expected: "orch-worker-trigger-Snos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.got)
			}
		})
	}
}
