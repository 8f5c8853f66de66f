package errors

import (
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MapToGRPCError translates a domain error into a gRPC status.
func MapToGRPCError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, ErrAuthRejected), stderrors.Is(err, ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, err.Error())
	case stderrors.Is(err, ErrInvalidMessage), stderrors.Is(err, ErrMissingFields):
		return status.Error(codes.InvalidArgument, err.Error())
	case stderrors.Is(err, ErrUserNotFound), stderrors.Is(err, ErrMessageNotFound):
		return status.Error(codes.NotFound, err.Error())
	case stderrors.Is(err, ErrBlocked), stderrors.Is(err, ErrRequestForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case stderrors.Is(err, ErrStorageFault):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
