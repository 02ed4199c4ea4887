package provider

import "strings"

// redact replaces every occurrence of the given secrets in text. Error bodies
// are persisted with conversation metadata, and some backends echo the key
// they rejected.
func redact(text string, secrets ...string) string {
	for _, s := range secrets {
		if len(s) < 4 {
			continue
		}
		text = strings.ReplaceAll(text, s, "[REDACTED]")
	}
	return text
}
