package naming

import (
	"fmt"
	"strings"
)

func Queue(prefix, name, suffix string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, name, suffix)
}

// QueueURL joins a queue base URL and a queue name. The result is a guess:
// the authoritative URL is whatever the queue service returns.
func QueueURL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + "/" + name
}

func TriggerRule(prefix string) string {
	return fmt.Sprintf("%s-worker-trigger", prefix)
}

func TriggerRole(prefix string) string {
	return fmt.Sprintf("%s-worker-trigger-role", prefix)
}

func TriggerPolicy(prefix string) string {
	return fmt.Sprintf("%s-worker-trigger-policy", prefix)
}

func Trigger(rule, trigger string) string {
	return fmt.Sprintf("%s-%s", rule, trigger)
}
