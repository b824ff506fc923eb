package config

import "net/url"

// Sanitize returns a copy of the config safe for logging. Userinfo in the
// target URL is masked.
func Sanitize(cfg *ServiceConfig) *ServiceConfig {
	sanitized := *cfg

	if sanitized.Target.URL != "" {
		sanitized.Target.URL = maskURL(sanitized.Target.URL)
	}

	return &sanitized
}

// maskURL hides the password of a URL with userinfo. Unparseable values are
// replaced entirely.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	if u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		return u.Redacted()
	}
	u.User = url.User("xxxxx")
	return u.String()
}
