package eventbridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateExpression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		period  time.Duration
		want    string
		wantErr bool
	}{
		{period: time.Minute, want: "rate(1 minute)"},
		{period: 5 * time.Minute, want: "rate(5 minutes)"},
		{period: 90 * time.Minute, want: "rate(90 minutes)"},
		{period: time.Hour, want: "rate(1 hour)"},
		{period: 3 * time.Hour, want: "rate(3 hours)"},
		{period: 24 * time.Hour, want: "rate(1 day)"},
		{period: 48 * time.Hour, want: "rate(2 days)"},
		{period: 30 * time.Second, wantErr: true},
		{period: 90 * time.Second, wantErr: true},
		{period: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			t.Parallel()
			got, err := RateExpression(tt.period)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicies(t *testing.T) {
	t.Parallel()

	trust, err := trustPolicy()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":["events.amazonaws.com","scheduler.amazonaws.com"]},"Action":"sts:AssumeRole"}]}`, trust)

	send, err := sendPolicy("arn:aws:sqs:us-west-1:1:q")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Action":"sqs:SendMessage","Resource":"arn:aws:sqs:us-west-1:1:q"}]}`, send)

	qp, err := queuePolicy("arn:aws:sqs:us-west-1:1:q", "orch-worker-trigger")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Version":"2012-10-17","Statement":[{"Sid":"AllowEventBridgeSend","Effect":"Allow","Principal":{"Service":"events.amazonaws.com"},"Action":"sqs:SendMessage","Resource":"arn:aws:sqs:us-west-1:1:q","Condition":{"ArnLike":{"aws:SourceArn":"arn:aws:events:us-west-1:1:rule/orch-worker-trigger-*"}}}]}`, qp)

	_, err = queuePolicy("not-an-arn", "r")
	assert.Error(t, err)
}
