// Package resource defines the lifecycle contract shared by every provisionable
// infrastructure kind.
//
// A resource is built from a cloud provider handle, then driven through
// Setup, Check and Teardown. [Poll] turns a Check into a bounded,
// fixed-interval readiness gate. The package also owns the closed [Type]
// enumeration and the error taxonomy used across provisioning.
package resource
