package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// descriptorParser accepts only "@" descriptors; calendar expressions cannot
// be expressed as a fixed trigger rate.
var descriptorParser = cron.NewParser(cron.Descriptor)

// ParseCronTime parses a trigger period. Accepted forms are integer seconds
// ("60") and robfig/cron "@every" descriptors ("@every 5m"). The period must
// be a positive whole number of minutes, the granularity of rate expressions.
func ParseCronTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("cron time is empty")
	}

	var period time.Duration
	if secs, err := strconv.ParseUint(s, 10, 64); err == nil {
		period = time.Duration(secs) * time.Second
	} else {
		sched, perr := descriptorParser.Parse(s)
		if perr != nil {
			return 0, fmt.Errorf("failed to parse cron time %q: %w", s, perr)
		}
		every, ok := sched.(cron.ConstantDelaySchedule)
		if !ok {
			return 0, fmt.Errorf("cron time %q is not a fixed period", s)
		}
		period = every.Delay
	}

	if period < time.Minute {
		return 0, fmt.Errorf("cron time %q: period must be at least one minute", s)
	}
	if period%time.Minute != 0 {
		return 0, fmt.Errorf("cron time %q: period must be a whole number of minutes", s)
	}
	return period, nil
}
