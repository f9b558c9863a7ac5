package resource

import (
	"strings"
)

// Type identifies a provisionable resource kind.
type Type string

const (
	// Queue is the message queue catalog (SQS).
	Queue Type = "queue"
	// Storage is the object storage bucket (S3).
	Storage Type = "storage"
	// Cron is the set of periodic worker triggers (EventBridge).
	Cron Type = "cron"
	// Notification is the alerting topic (SNS).
	Notification Type = "notification"
)

// Types lists every known kind in setup priority order.
var Types = []Type{Storage, Queue, Notification, Cron}

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// Valid reports whether t is one of the known kinds.
func (t Type) Valid() bool {
	switch t {
	case Queue, Storage, Cron, Notification:
		return true
	}
	return false
}

// ParseType maps a kind name to its Type, ignoring case.
// Unknown names report false; there is no default kind.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", false
	}
	return t, true
}

// TypeFromString is ParseType for dynamic, configuration-originated lookups
// where an unknown name is an error.
func TypeFromString(s string) (Type, error) {
	t, ok := ParseType(s)
	if !ok {
		return "", &UnknownResourceTypeError{Value: s}
	}
	return t, nil
}
