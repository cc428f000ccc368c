// Package fetch retrieves raw snapshot bodies from the configured
// source, either the HTTP endpoint or a local file.
package fetch

import "fmt"

// Kind classifies a fetch failure. The distinction is part of the user
// contract: each kind produces its own troubleshooting message.
type Kind int

const (
	// KindUnreachable: connection, DNS or timeout failure. The
	// endpoint could not be talked to at all.
	KindUnreachable Kind = iota
	// KindStatus: the endpoint answered with a non-2xx status.
	KindStatus
	// KindContentType: the endpoint answered, but the body is not
	// JSON (an HTML error page, a proxy banner). Distinct from a
	// decode failure so the user checks the URL, not the schema.
	KindContentType
	// KindDecode: the body is JSON but does not decode into the
	// expected document.
	KindDecode
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindStatus:
		return "http-status"
	case KindContentType:
		return "content-type"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a classified fetch failure.
type Error struct {
	Kind   Kind
	Source string
	// Detail carries kind-specific context: the content type, the
	// HTTP status, the decode error text.
	Detail string
	// Body is the raw response body, kept for debug display on
	// status and decode failures.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("fetch %s: %s: %s", e.Source, e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Source, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the troubleshooting text shown in the last-error
// line for this failure.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindUnreachable:
		return fmt.Sprintf("failed to connect to %s. Make sure the service is running and the URL and port are correct.", e.Source)
	case KindStatus:
		return fmt.Sprintf("the server returned %s. Check that %s is the account-limits endpoint.", e.Detail, e.Source)
	case KindContentType:
		return fmt.Sprintf("the endpoint did not return JSON (got %s). Check that %s points at the account-limits endpoint.", e.Detail, e.Source)
	case KindDecode:
		return fmt.Sprintf("could not decode the response body: %s", e.Detail)
	default:
		return e.Error()
	}
}

// WrapDecode classifies a snapshot-building failure as a decode error,
// keeping the body for debug display.
func WrapDecode(source string, body []byte, err error) *Error {
	return &Error{
		Kind:   KindDecode,
		Source: source,
		Detail: err.Error(),
		Body:   body,
		Err:    err,
	}
}
