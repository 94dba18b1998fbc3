package fetcher

import "errors"

// Sentinel errors for full-page content fetching. Callers (the ingest
// normalizer) treat every one of these as non-fatal: the item keeps its
// feed-provided content rather than propagating the failure.
var (
	// ErrInvalidURL indicates the URL format is invalid or uses an
	// unsupported scheme. Only http:// and https:// are supported.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the URL resolves to a private IP address,
	// preventing Server-Side Request Forgery (SSRF).
	ErrPrivateIP = errors.New("private IP access denied (SSRF prevention)")

	// ErrTooManyRedirects indicates the redirect chain exceeded the
	// configured maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response body exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("request timeout")

	// ErrReadabilityFailed indicates content extraction failed: the HTML
	// could not be parsed or no readable article text was found.
	ErrReadabilityFailed = errors.New("content extraction failed")
)
