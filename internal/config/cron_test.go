package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronTime(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    time.Duration
		wantErr string
	}{
		{in: "60", want: time.Minute},
		{in: " 300 ", want: 5 * time.Minute},
		{in: "@every 5m", want: 5 * time.Minute},
		{in: "@every 1h30m", want: 90 * time.Minute},
		{in: "", wantErr: "empty"},
		{in: "30", wantErr: "at least one minute"},
		{in: "90", wantErr: "whole number of minutes"},
		{in: "@every 45s", wantErr: "at least one minute"},
		{in: "@hourly", wantErr: "not a fixed period"},
		{in: "*/5 * * * *", wantErr: "failed to parse"},
		{in: "-60", wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCronTime(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
