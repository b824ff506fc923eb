// Package command provides the siege-leviathan command tree.
//
// It uses urfave/cli/v2 for command parsing. Running the binary without a
// subcommand is the same as "serve".
//
//   - serve: wait for a valid client identity, then serve HTTP
//   - check: build the bundle once and print the leaf certificate
//   - version: print build information
package command
