package fetch

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Kind classifies adapter failures so callers can log them differently.
type Kind string

const (
	// KindTransport is a network failure before a response was received.
	KindTransport Kind = "transport"
	// KindTimeout is a request that exceeded its deadline. Callers may retry.
	KindTimeout Kind = "timeout"
	// KindStatus is a non-2xx response.
	KindStatus Kind = "status"
	// KindSchema is a response that does not match the expected shape.
	KindSchema Kind = "schema"
)

// maxBodySnippet bounds the response body kept on status errors.
const maxBodySnippet = 512

// Error represents a failed adapter call.
type Error struct {
	URL        string
	Kind       Kind
	StatusCode int
	Body       string
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Kind == KindStatus {
		msg = fmt.Sprintf("HTTP status %d", e.StatusCode)
		if e.Body != "" {
			msg += ": " + e.Body
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error for %s: %s: %v", e.Kind, e.URL, msg, e.Cause)
	}
	return fmt.Sprintf("%s error for %s: %s", e.Kind, e.URL, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewSchemaError reports a structurally invalid response.
func NewSchemaError(url, message string, cause error) *Error {
	return &Error{URL: url, Kind: KindSchema, Message: message, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsTimeout reports whether err is a timed-out adapter call.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsSchema reports whether err is a response schema mismatch.
func IsSchema(err error) bool { return KindOf(err) == KindSchema }

// IsStatus reports whether err is a non-2xx response.
func IsStatus(err error) bool { return KindOf(err) == KindStatus }

func snippet(body []byte) string {
	if len(body) > maxBodySnippet {
		cut := maxBodySnippet
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		return string(body[:cut]) + "..."
	}
	return string(body)
}
