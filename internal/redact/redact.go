// Package redact strips credentials, file paths, SQL and other internal
// details from error text before it is logged or stored where clients can
// read it, such as the error of a failed generation request.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedStackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules run in order; later rules see the output of earlier ones.
var rules = []rule{
	// Everything from the start of a panic or goroutine dump onwards.
	{regexp.MustCompile(`(?s)(?:panic: |goroutine \d+ \[).*`), RedactedStackPlaceholder},

	// user:password in database and file URLs.
	{regexp.MustCompile(`(?i)\b(postgres(?:ql)?|sqlite|file)://[^\s@/]+@`), "${1}://" + RedactedCredentialPlaceholder + "@"},

	// Google API keys as used by the Gemini client.
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`), RedactedKeyPlaceholder},

	// key=value secrets in DSNs, query strings and messages.
	{regexp.MustCompile(`(?i)\b(api[_-]?key|key|token|secret|password|passwd|pwd)=[^&\s"']+`), "${1}=" + RedactedCredentialPlaceholder},

	// SQL statements up to the end of the line or statement.
	{regexp.MustCompile(`(?i)\b(?:SELECT|INSERT INTO|UPDATE|DELETE FROM)\b[^;\n]*`), RedactedSQLPlaceholder},

	{regexp.MustCompile(`(?:/[\w.\-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\\s:]+(?:\\[^\\\s:]+)+`), RedactedPathPlaceholder},

	// host:port pairs of database and API endpoints.
	{regexp.MustCompile(`\b(?:localhost|[a-zA-Z0-9][a-zA-Z0-9\-]*(?:\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}):\d{1,5}\b`), RedactedHostPlaceholder},
}

// String redacts sensitive fragments of input.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.replacement)
	}
	return input
}

// Error redacts the text of err. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
