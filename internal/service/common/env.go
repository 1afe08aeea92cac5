//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// displayVariables are the variables a graphical client needs one of.
//
//nolint:gochecknoglobals // Read-only lookup list.
var displayVariables = []string{"DISPLAY", "WAYLAND_DISPLAY"}

// Environ returns the inherited environment with overlay applied.
// Overlay keys are appended in sorted order so the result is stable.
func Environ(overlay map[string]string) []string {
	base := os.Environ()
	if len(overlay) == 0 {
		return base
	}

	env := make([]string, 0, len(base)+len(overlay))

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := overlay[key]; replaced {
			continue
		}

		env = append(env, kv)
	}

	for _, key := range slices.Sorted(maps.Keys(overlay)) {
		env = append(env, key+"="+overlay[key])
	}

	return env
}

// HasDisplay reports whether env names a display server.
func HasDisplay(env []string) bool {
	for _, kv := range env {
		key, value, _ := strings.Cut(kv, "=")
		if value != "" && slices.Contains(displayVariables, key) {
			return true
		}
	}

	return false
}
