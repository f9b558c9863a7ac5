// Package sqs provides the Queue resource: the catalog of job queues and
// their dead-letter wiring.
//
// Setup walks the catalog in order and creates each queue named
// {prefix}_{name}_{suffix} that does not already exist, applying its
// visibility timeout and redrive policy in a single attribute update.
// Check is the conjunction of every catalog queue's existence.
package sqs
