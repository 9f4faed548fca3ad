package assistants

import (
	"errors"
	"fmt"
)

// ErrEmptyPage is returned when a page has no items, no explicit boundary
// identifiers and still claims has_more. There is no cursor to continue from.
var ErrEmptyPage = errors.New("empty page has no boundary identifiers")

// UnknownDiscriminatorError reports a "type" tag the decoder does not know.
// It usually means the service speaks a newer protocol version.
type UnknownDiscriminatorError struct {
	// Path is the dotted field path of the union being decoded.
	Path string
	Tag  string
}

func (e *UnknownDiscriminatorError) Error() string {
	return fmt.Sprintf("%s: unknown type %q", e.Path, e.Tag)
}

// MalformedPayloadError reports a recognised tag whose payload is absent or has
// the wrong shape.
type MalformedPayloadError struct {
	Path string
	Err  error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: malformed payload", e.Path)
	}
	return fmt.Sprintf("%s: malformed payload: %v", e.Path, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// MissingRequiredFieldError reports a required field that is absent or null.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// ParamError reports a list parameter that could not be bound or is out of
// range. Param is the query parameter name.
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s parameter: %v", e.Param, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }
