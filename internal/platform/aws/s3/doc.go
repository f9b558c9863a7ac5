// Package s3 provides the Storage resource: the object storage bucket the
// orchestrator writes job artifacts to.
//
// [Client] wraps the S3 API calls the resource needs (bucket creation with a
// location constraint, existence probe, emptying and deletion). [Storage]
// implements setup, check and teardown on top of it.
package s3
