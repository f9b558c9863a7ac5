// Package handlers executes the CLI commands.
//
// Commands in the commands package parse flags and delegate here. Handlers
// build the logger, load configuration, construct the cloud provider and run
// the resource factory, then render the report.
package handlers
