// Package trainerr defines the structured error kinds shared by every
// component, per the propagation policy in spec §7.
package trainerr

import "fmt"

// Kind classifies a failure so callers can branch on it without string
// matching.
type Kind int

const (
	// Format covers a malformed header, unsupported protocol, or truncated
	// payload.
	Format Kind = iota
	// Integrity covers a header or payload CRC mismatch.
	Integrity
	// Reference covers a data record referencing an undefined local
	// definition, or a developer field referencing an unknown
	// developer-data-index.
	Reference
	// Range covers a sensor value outside physiological bounds.
	Range
	// MissingInput covers a metric requested without the required
	// threshold or data coverage.
	MissingInput
	// Config covers a catalog load failure.
	Config
	// Cancelled covers caller-initiated cancellation.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Format:
		return "format"
	case Integrity:
		return "integrity"
	case Reference:
		return "reference"
	case Range:
		return "range"
	case MissingInput:
		return "missing-input"
	case Config:
		return "config"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a structured, context-carrying error. It always names a Kind and
// carries whatever subset of Path/ByteOffset/SessionID/SampleIndex applies.
type Error struct {
	Kind        Kind
	Path        string
	ByteOffset  int64
	SessionID   string
	SampleIndex int
	Message     string
	Cause       error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Path != "" {
		s += fmt.Sprintf(" (path=%s", e.Path)
		if e.ByteOffset > 0 {
			s += fmt.Sprintf(" offset=%d", e.ByteOffset)
		}
		s += ")"
	}
	if e.SessionID != "" {
		s += fmt.Sprintf(" [session=%s]", e.SessionID)
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithPath returns a copy of e with Path/ByteOffset set.
func (e *Error) WithPath(path string, offset int64) *Error {
	c := *e
	c.Path = path
	c.ByteOffset = offset
	return &c
}

// WithSession returns a copy of e with SessionID set.
func (e *Error) WithSession(id string) *Error {
	c := *e
	c.SessionID = id
	return &c
}

// WithSample returns a copy of e with SampleIndex set.
func (e *Error) WithSample(idx int) *Error {
	c := *e
	c.SampleIndex = idx
	return &c
}

// KindOf reports the Kind of err if it is (or wraps) a *Error, and whether
// one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if as(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
