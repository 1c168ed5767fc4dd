package logger

import "regexp"

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// Matches password=xxx, pwd=xxx, pass=xxx until the next delimiter.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches user:pass@host credentials embedded in URIs.
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	// Matches key=value API keys of plausible length.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|token)=[A-Za-z0-9-_]{20,}`)
)

// SanitizeURI removes credentials from descriptor and deployment URIs
// before they reach a log line.
func SanitizeURI(uri string) string {
	if uri == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(uri, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}

// SanitizeError scrubs error text that may carry connection credentials.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}

// RedactValues replaces every value of a credentials map. Deployment env
// credentials are sensitive by definition; only the key names may be logged.
func RedactValues(credentials map[string]string) map[string]string {
	if len(credentials) == 0 {
		return nil
	}
	out := make(map[string]string, len(credentials))
	for k := range credentials {
		out[k] = RedactedText
	}
	return out
}
