// Package cmd implements the command-line interface for the tfstated state
// backend. It provides a hierarchical command structure with operations for
// running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the tfstated server
//   - state: Commands for state backend operations (get, put, lock, etc.)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See tfstated -help for a list of all commands.
package cmd
