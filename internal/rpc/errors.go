package rpc

import (
	"errors"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/groundwave/core"
	"github.com/signalsfoundry/groundwave/internal/service"
)

// errorDomain is the ErrorInfo domain attached to LFMF status details.
const errorDomain = "groundwave.signalsfoundry.github.com"

// ToStatusError maps service and engine errors onto gRPC status codes. LFMF
// return codes travel as an ErrorInfo detail with "code" and "field"
// metadata.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var lfmfErr *core.Error
	switch {
	case errors.As(err, &lfmfErr) && lfmfErr.Kind() == core.KindValidation:
		return withErrorInfo(codes.InvalidArgument, err, "LFMF_VALIDATION", lfmfErr)
	case errors.As(err, &lfmfErr):
		return withErrorInfo(codes.Internal, err, "LFMF_ENGINE", lfmfErr)

	case errors.Is(err, service.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, service.ErrPersistenceDisabled):
		return status.Error(codes.Unimplemented, err.Error())

	case errors.Is(err, core.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func withErrorInfo(code codes.Code, err error, reason string, lfmfErr *core.Error) error {
	md := map[string]string{"code": strconv.Itoa(int(lfmfErr.Code))}
	if f := lfmfErr.Field(); f.Valid() {
		md["field"] = f.String()
	}
	st, detailErr := status.New(code, err.Error()).WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   errorDomain,
		Metadata: md,
	})
	if detailErr != nil {
		return status.Error(code, err.Error())
	}
	return st.Err()
}

// LFMFCode extracts the LFMF return code carried by a status error.
func LFMFCode(err error) (core.ErrorCode, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return 0, false
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		n, err := strconv.Atoi(info.GetMetadata()["code"])
		if err != nil {
			return 0, false
		}
		return core.ErrorCode(n), true
	}
	return 0, false
}
