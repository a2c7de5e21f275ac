package meshup

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches one of
// these with errors.Is.
var (
	ErrNotInitialized  = errors.New("meshup is not initialized")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrDomain          = errors.New("geometric domain error")
	ErrUnimplemented   = errors.New("not implemented")
)

// Refined kinds.
var (
	ErrDisposed          = fmt.Errorf("%w: entity was disposed", ErrInvalidState)
	ErrNoBoundingBox     = fmt.Errorf("%w: no bounding box", ErrDomain)
	ErrNotEnoughVertices = fmt.Errorf("%w: not enough vertices", ErrDomain)
	ErrNonPlanar         = fmt.Errorf("%w: curve is not planar", ErrDomain)
)

// OpError records the facade operation that failed.
type OpError struct {
	Op  string // e.g. "Mesh.Translate"
	Err error
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// opErr wraps err with op. A nil err stays nil.
func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	return &OpError{Op: op, Err: err}
}

// argErr builds an ErrInvalidArgument for op.
func argErr(op, format string, args ...any) error {
	return &OpError{Op: op, Err: fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))}
}
