package domain

import "errors"

type DescribeErrorKind string

const (
	KindAPI           DescribeErrorKind = "api"
	KindEmptyResponse DescribeErrorKind = "empty_response"
	KindTransport     DescribeErrorKind = "transport"
)

// FallbackCaption replaces an empty model answer.
const FallbackCaption = "Could not describe the scene. Please try again."

// DescribeError is returned by every vision provider. StatusCode is only set
// for KindAPI.
type DescribeError struct {
	Kind       DescribeErrorKind
	Message    string
	StatusCode int
}

func (e *DescribeError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *DescribeError) Is(target error) bool {
	t, ok := target.(*DescribeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var ErrEmptyResponse = &DescribeError{Kind: KindEmptyResponse}

func APIError(status int, message string) error {
	if message == "" {
		message = "API request failed"
	}
	return &DescribeError{Kind: KindAPI, Message: message, StatusCode: status}
}

func TransportError(err error) error {
	msg := "Failed to process image"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &DescribeError{Kind: KindTransport, Message: msg}
}

// DescribeKind reports the kind of a describe failure, or "" for foreign errors.
func DescribeKind(err error) DescribeErrorKind {
	var de *DescribeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
