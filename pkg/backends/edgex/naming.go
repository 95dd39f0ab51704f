package edgex

import "strings"

// deviceName computes the device-facing name for an attribute or command:
// underscore-separated words are capitalized and joined, and a non-empty
// controller path is prefixed upper-cased. "temp_sp" under "motor1" becomes
// "MOTOR1_TempSp". The transform must be injective across the whole tree;
// collisions are a configuration error rejected during binding.
func deviceName(path, name string) string {
	var b strings.Builder
	for _, word := range strings.Split(name, "_") {
		if word == "" {
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}
	if path == "" {
		return b.String()
	}
	return strings.ToUpper(path) + "_" + b.String()
}
