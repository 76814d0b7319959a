package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyKind      = "kind"
	KeyAction    = "action"
	KeyVersion   = "version"
	KeyGroup     = "group"
	KeyPath      = "path"
	KeyMethod    = "method"
	KeyHost      = "host"
	KeyStatus    = "status"
	KeyDuration  = "duration"
	KeyError     = "error"
)

// ipv4Regex matches IPv4 addresses for sanitization.
var ipv4Regex = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// ipv6Regex matches IPv6 addresses for sanitization, including the
// bracketed form used in URLs ([2001:db8::1]).
var ipv6Regex = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// Kind returns a slog attribute for the resource kind.
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// Action returns a slog attribute for the action verb.
func Action(action string) slog.Attr {
	return slog.String(KeyAction, action)
}

// Version returns a slog attribute for the API version.
func Version(version string) slog.Attr {
	return slog.String(KeyVersion, version)
}

// Group returns a slog attribute for the API group.
func Group(group string) slog.Attr {
	return slog.String(KeyGroup, group)
}

// Path returns a slog attribute for a request path template.
func Path(path string) slog.Attr {
	return slog.String(KeyPath, path)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(KeyMethod, method)
}

// Status returns a slog attribute for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Duration returns a slog attribute for an elapsed duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Host returns a slog attribute for a host with IP addresses sanitized.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, SanitizeHost(host))
}

// SanitizedErr returns a slog attribute for an error with IP addresses
// redacted. Use it when logging errors that may embed API server addresses,
// which could leak network topology information.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, SanitizeHost(err.Error()))
}

// SanitizeHost redacts IP addresses from a host string or free-form text.
// Hostnames are preserved; only literal addresses are replaced.
func SanitizeHost(s string) string {
	if s == "" {
		return s
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		host := u.Hostname()
		if ipv4Regex.MatchString(host) || ipv6Regex.MatchString(host) {
			u.Host = strings.Replace(u.Host, host, "REDACTED", 1)
			return u.String()
		}
		return s
	}
	s = ipv4Regex.ReplaceAllString(s, "REDACTED")
	s = ipv6Regex.ReplaceAllString(s, "REDACTED")
	return s
}
