// Package env reads process configuration for the pieces that run before
// the typed config is loaded, such as logger setup.
package env

import "os"

// Get looks up key in the process environment. Unset or empty variables
// fall back to the provided default so callers always get a usable value.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
