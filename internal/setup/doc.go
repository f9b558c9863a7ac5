// Package setup drives a provisioning run across every resource kind.
//
// A [Factory] builds each kind through its registered [Creator], runs Setup,
// gates readiness with [resource.Poll] and records the result in a shared
// [StatusTable]. Cron waits on Queue readiness through that table before it
// is attempted. Kinds are held in a [ResourceWrapper], a closed tagged union
// over the concrete resource types.
package setup
