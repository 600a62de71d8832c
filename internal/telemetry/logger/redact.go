// Package logger provides structured logging for jobrunner.
package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"bearer",
}

// payloadKey attributes are logged as their size only.
const payloadKey = "payload"

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if strings.EqualFold(a.Key, payloadKey) {
		return slog.String(a.Key, payloadSize(a.Value))
	}

	if a.Value.Kind() == slog.KindString {
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		return a
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

func payloadSize(v slog.Value) string {
	switch p := v.Any().(type) {
	case []byte:
		return fmt.Sprintf("%d bytes", len(p))
	case string:
		return fmt.Sprintf("%d bytes", len(p))
	default:
		return redactedValue
	}
}

// RedactString masks a secret for display, keeping two characters at each
// end of long values.
func RedactString(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "***"
	}
	return value[:2] + "..." + value[len(value)-2:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
