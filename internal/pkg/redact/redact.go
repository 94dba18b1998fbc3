// Package redact masks secrets out of error strings before they are
// persisted or logged, e.g. a feed's LastError (spec 4.C's error
// bookkeeping) surfacing a raw transport error that embeds a DSN password
// or provider API key.
package redact

import "regexp"

var (
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)
	dbPasswordPattern   = regexp.MustCompile(`://([^:]+):([^@]+)@`)
)

// Error returns err's message with API keys and DSN passwords masked.
func Error(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")

	return msg
}
