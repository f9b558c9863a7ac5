// Package sns provides the Notification resource, the alerting topic.
//
// The configured endpoint is either a topic ARN or a bare topic name. ARNs
// are probed directly; names are resolved by listing topics.
package sns
