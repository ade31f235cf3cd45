// Package config loads, validates, and defaults mediasort's TOML
// configuration.
//
// Load resolves the config path (explicit flag, then the user config dir,
// then a project-local mediasort.toml), decodes it over Default values,
// normalizes paths and enumerated fields, and validates the result. A
// missing file is not an error; defaults apply so the tool works with zero
// configuration.
package config
