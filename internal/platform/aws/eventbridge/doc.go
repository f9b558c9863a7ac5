// Package eventbridge provides the Cron resource: periodic triggers that
// deliver a worker trigger name to the target queue at a fixed rate.
//
// Setup first creates the shared infrastructure (an IAM role the trigger
// services assume, a policy allowing sqs:SendMessage on the target queue
// and, in rule mode, a queue policy admitting EventBridge). After a settle
// delay it attaches one trigger per worker type, named {rule}-{worker},
// either as an EventBridge rule with an SQS target or as an EventBridge
// Scheduler schedule.
package eventbridge
