// Package cmd provides the command-line interface for kubecall.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - explore: Lists the callable kinds and their actions
//   - invoke: Performs one action against the cluster
//   - info: Shows the declared schemas of one action
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest release
//
// Connection settings come from a config file (--config), a kubeconfig
// (--kubeconfig/--context) or individual flags; flags take precedence.
// Discovery can be disabled with --offline, in which case the bundled
// schema document is used and no network round trip happens at
// construction.
//
// Command Structure:
//
//	kubecall explore [kind]
//	kubecall invoke --kind Pod --action get --param namespace=default --param name=web-0
//	kubecall info --kind Deployment --action list
//	kubecall version
//	kubecall self-update
package cmd
