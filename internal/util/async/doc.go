// Package async provides utilities for parallel task execution with
// error collection.
//
// [RunParallel] executes independent provisioning steps concurrently and
// returns every failure joined together, so one failing step never hides
// another.
package async
