package sanitize

import "regexp"

// Decrypted credentials travel through probe error paths, so every error
// message is scrubbed before it is stored or logged.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`),
	regexp.MustCompile(`(?i)authorization:\s*(basic|bearer|token)\s+\S+`),
	regexp.MustCompile(`(?i)authorization:\s*\S+`),
	regexp.MustCompile(`(?i)token=[^\s&"']+`),
	regexp.MustCompile(`(?i)(api[_-]?key|secret|password)=[^\s&"']+`),
}

// ErrorMessage redacts credential material from an error string.
func ErrorMessage(msg string) string {
	for _, p := range secretPatterns {
		msg = p.ReplaceAllString(msg, "[REDACTED]")
	}
	return msg
}

// Error is a nil-safe convenience over ErrorMessage.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return ErrorMessage(err.Error())
}
