// Package config loads the boot plan from YAML, validates it, fills in
// defaults and converts it into an immutable boot.BootPlan.
package config
