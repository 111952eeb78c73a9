package relations

import (
	"fmt"

	"github.com/Daskott/lifeline/server/store"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// opError is a failure the manager classified itself. Anything else that
// escapes an operation is reported as Internal.
type opError struct {
	st *status.Status
}

func (e *opError) Error() string {
	return fmt.Sprintf("%s: %s", e.st.Code(), e.st.Message())
}

// GRPCStatus lets status.Code & status.FromError read the kind
func (e *opError) GRPCStatus() *status.Status {
	return e.st
}

func newOpError(code codes.Code, format string, args ...interface{}) error {
	return &opError{st: status.Newf(code, format, args...)}
}

func unauthenticated(format string, args ...interface{}) error {
	return newOpError(codes.Unauthenticated, format, args...)
}

func invalidArgument(format string, args ...interface{}) error {
	return newOpError(codes.InvalidArgument, format, args...)
}

func notFound(format string, args ...interface{}) error {
	return newOpError(codes.NotFound, format, args...)
}

func alreadyExists(format string, args ...interface{}) error {
	return newOpError(codes.AlreadyExists, format, args...)
}

func failedPrecondition(format string, args ...interface{}) error {
	return newOpError(codes.FailedPrecondition, format, args...)
}

// classify keeps errors the manager raised & turns everything else into Internal
func classify(err error) error {
	if err == nil {
		return nil
	}

	var oe *opError
	if errors.As(err, &oe) {
		return oe
	}

	if errors.Is(err, store.ErrUserNotFound) {
		return newOpError(codes.NotFound, "%v", err)
	}

	if errors.Is(err, store.ErrSameUser) {
		return newOpError(codes.InvalidArgument, "%v", err)
	}

	logg.Errorf("internal error: %+v", err)
	return newOpError(codes.Internal, "internal error: %v", err)
}
