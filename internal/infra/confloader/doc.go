// Package confloader provides configuration loading mechanism.
//
// This package implements a flexible configuration loader that supports
// multiple sources and formats using koanf as the underlying library.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Prefixed environment variables (LEVIATHAN_BUNDLE_PATH)
//  3. Alias environment variables (CERT_BUNDLE, TARGET_URL)
//  4. Configuration file (YAML)
//  5. Default values already present in the target struct
package confloader
