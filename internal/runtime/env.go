// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"maps"
	"slices"
	"strings"
)

// BuildEnv composes a subprocess environment. It starts from host (usually
// os.Environ()) and applies extra on top, so a key in extra always wins over
// the inherited value. Keys from host keep their original order; keys only
// present in extra are appended in sorted order.
func BuildEnv(host []string, extra map[string]string) []string {
	env := make([]string, 0, len(host)+len(extra))
	seen := make(map[string]bool, len(extra))

	for _, kv := range host {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if v, override := extra[key]; override {
			env = append(env, key+"="+v)
			seen[key] = true
			continue
		}
		env = append(env, kv)
	}

	for _, key := range slices.Sorted(maps.Keys(extra)) {
		if seen[key] {
			continue
		}
		env = append(env, key+"="+extra[key])
	}
	return env
}

// EnvToSlice converts an environment map to KEY=VALUE form, sorted by key.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		result = append(result, k+"="+env[k])
	}
	return result
}

// EnvLookup returns the value of key in a KEY=VALUE slice. The last
// occurrence wins, matching how exec resolves duplicates.
func EnvLookup(env []string, key string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			value, found = v, true
		}
	}
	return value, found
}
