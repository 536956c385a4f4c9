package midi

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind uint8

const (
	StreamOpenError ErrorKind = iota + 1
	StreamReadError
	StreamWriteError
	StreamCloseError
)

func (k ErrorKind) String() string {
	switch k {
	case StreamOpenError:
		return "stream open"
	case StreamReadError:
		return "stream read"
	case StreamWriteError:
		return "stream write"
	case StreamCloseError:
		return "stream close"
	}
	return "stream"
}

// Sentinels for errors.Is, one per kind.
var (
	ErrStreamOpen  = &StreamError{Kind: StreamOpenError}
	ErrStreamRead  = &StreamError{Kind: StreamReadError}
	ErrStreamWrite = &StreamError{Kind: StreamWriteError}
	ErrStreamClose = &StreamError{Kind: StreamCloseError}
)

// StreamError is the only error type that leaves a Source or a Sink.
type StreamError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func newStreamError(kind ErrorKind, path string, err error) error {
	return errors.WithStack(&StreamError{Kind: kind, Path: path, Err: err})
}

func (e *StreamError) Error() string {
	msg := e.Kind.String() + " error"
	if e.Path != "" {
		msg = fmt.Sprintf("%s on %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

func (e *StreamError) Cause() error {
	return e.Err
}

// Is matches any StreamError of the same kind.
func (e *StreamError) Is(target error) bool {
	t, ok := target.(*StreamError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first StreamError in err's chain, 0 if none.
func KindOf(err error) ErrorKind {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// Wrap turns err into a StreamError of the given kind unless it already is
// one.
func Wrap(kind ErrorKind, path string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != 0 {
		return err
	}
	return newStreamError(kind, path, err)
}
