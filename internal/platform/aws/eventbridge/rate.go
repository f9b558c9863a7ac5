package eventbridge

import (
	"fmt"
	"time"
)

// RateExpression renders a period as an EventBridge rate expression using
// the largest unit that divides it evenly. The period must be a positive
// whole number of minutes.
func RateExpression(period time.Duration) (string, error) {
	if period < time.Minute || period%time.Minute != 0 {
		return "", fmt.Errorf("period %s is not a positive whole number of minutes", period)
	}

	minutes := int64(period / time.Minute)
	value, unit := minutes, "minute"
	switch {
	case minutes%(24*60) == 0:
		value, unit = minutes/(24*60), "day"
	case minutes%60 == 0:
		value, unit = minutes/60, "hour"
	}
	if value != 1 {
		unit += "s"
	}
	return fmt.Sprintf("rate(%d %s)", value, unit), nil
}
