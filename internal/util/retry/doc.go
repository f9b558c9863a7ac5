// Package retry provides exponential backoff retry logic for transient failures.
//
// [WithExponentialBackoff] retries an operation with configurable max
// retries, initial delay and maximum delay. Teardown uses it for cloud calls
// that fail while a dependent entity is still being released (IAM delete
// conflicts, buckets that are not yet empty).
package retry
