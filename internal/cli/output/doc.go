// Package output provides output formatting for siege-leviathan commands.
//
//   - formatter.go: Formatter interface and factory
//   - text.go: aligned key/value rendering
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
package output
