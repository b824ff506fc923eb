package logger

import (
	"bytes"
	"log/slog"
	"net/url"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"private_key",
	"privatekey",
	"credential",
	"authorization",
	"bearer",
}

// pemKeyMarker appears in every PEM private key block header
// ("PRIVATE KEY", "EC PRIVATE KEY", "RSA PRIVATE KEY", ...).
const pemKeyMarker = "PRIVATE KEY-----"

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		if strVal == "" {
			return a
		}
		// Key material wins over every other rule.
		if strings.Contains(strVal, pemKeyMarker) {
			return slog.String(a.Key, redactedValue)
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if masked, ok := redactURL(strVal); ok {
			return slog.String(a.Key, masked)
		}

	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok && bytes.Contains(b, []byte(pemKeyMarker)) {
			return slog.String(a.Key, redactedValue)
		}

	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// redactURL masks the password of a URL with userinfo. ok is false when
// value is not such a URL.
func redactURL(value string) (string, bool) {
	if !strings.Contains(value, "://") || !strings.Contains(value, "@") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return "", false
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return "", false
	}
	return u.Redacted(), true
}

// RedactString manually redacts a string value.
// Use this when you need to redact a value before logging.
func RedactString(value string) string {
	if strings.Contains(value, pemKeyMarker) {
		return redactedValue
	}
	if masked, ok := redactURL(value); ok {
		return masked
	}
	return value
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

// IsSensitiveValue checks if a value appears to be sensitive.
func IsSensitiveValue(value string) bool {
	if strings.Contains(value, pemKeyMarker) {
		return true
	}
	_, ok := redactURL(value)
	return ok
}
