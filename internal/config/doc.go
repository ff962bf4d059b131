// Package config defines the build-time wiring of the controller: which role
// is bound to which output line, the hardware backend, the delay provider and
// the duty-cycle schedule.
//
// The default configuration is embedded into the binary from laminator.yaml.
// A YAML file can replace it during development, and a few operational
// settings can be overridden from LAMINATOR_* environment variables.
package config
