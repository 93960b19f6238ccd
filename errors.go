package streams

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrorKind classifies why a resolve failed
type ErrorKind int

const (
	KindInvalidURL ErrorKind = iota + 1
	KindInvalidFormat
	KindMissingRequired
	KindUnsupportedFormat
	KindNoAvailableStream
	KindNetwork
)

var kindNames = map[ErrorKind]string{
	KindInvalidURL:        "invalid url",
	KindInvalidFormat:     "invalid format",
	KindMissingRequired:   "missing required",
	KindUnsupportedFormat: "unsupported format",
	KindNoAvailableStream: "no available stream",
	KindNetwork:           "network error",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrInvalidURL        = &Error{Kind: KindInvalidURL}
	ErrInvalidFormat     = &Error{Kind: KindInvalidFormat}
	ErrMissingRequired   = &Error{Kind: KindMissingRequired}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrNoAvailableStream = &Error{Kind: KindNoAvailableStream}
	ErrNetwork           = &Error{Kind: KindNetwork}
)

// Error is the failure carried by a Failed session
type Error struct {
	Kind    ErrorKind
	URL     string
	Message string
	Cause   error
	Fields  logrus.Fields
}

func newError(kind ErrorKind, rawURL string, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, URL: rawURL, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.URL != "" {
		msg += fmt.Sprintf(" (%s)", e.URL)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// LogWith writes the error to logger at error level with its fields
func (e *Error) LogWith(logger *logrus.Logger) {
	fields := logrus.Fields{"kind": e.Kind.String()}
	if e.URL != "" {
		fields["url"] = e.URL
	}
	for k, v := range e.Fields {
		fields[k] = v
	}

	entry := logger.WithFields(fields)
	if e.Cause != nil {
		entry = entry.WithError(e.Cause)
	}
	entry.Error(e.Message)
}
