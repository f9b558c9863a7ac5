// Package cloud provides the cloud provider handle that every resource is
// built from.
//
// A [Provider] is an opaque, already-authenticated capability tagged with
// its vendor. Resources ask it for vendor-specific configuration and get a
// configuration error, never a panic, when the variant does not match.
package cloud
