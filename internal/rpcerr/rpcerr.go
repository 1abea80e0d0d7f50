// Package rpcerr gives the balancer a single typed error currency across
// in-process calls, probe results, and forwarded RPCs. Every error the
// engine raises carries a codes.Code so callers can switch on status
// rather than parse strings, and so an Error converts cleanly to a gRPC
// status for any transport that wants one.
package rpcerr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is an application error tagged with a status code.
type Error struct {
	Code    codes.Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// GRPCStatus lets errors.As/status.FromError recover the code from a plain
// error value without the caller needing to know about this package.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

func newf(code codes.Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// UnableToEstablishConnectivity is returned by Registry.Add when a backend
// cannot be dialed.
func UnableToEstablishConnectivity(address string, cause error) *Error {
	return newf(codes.Unavailable, cause, "unable to establish connectivity to %q", address)
}

// RouteNotFoundToDelete is returned by Registry.RemoveStrict for an
// unknown address, for callers that require acknowledgment of absence.
func RouteNotFoundToDelete(address string) *Error {
	return newf(codes.NotFound, nil, "route %q not found to delete", address)
}

// NoProbeFound is raised by the Selector when the pool is empty or every
// sample's backend is inactive.
func NoProbeFound() *Error {
	return newf(codes.Internal, nil, "no usable backend found")
}

// Unavailable wraps a transient backend outage (probe or forward).
func Unavailable(address string, cause error) *Error {
	return newf(codes.Unavailable, cause, "backend %q unavailable", address)
}

// Internal wraps an unexpected failure talking to a backend.
func Internal(address string, cause error) *Error {
	return newf(codes.Internal, cause, "backend %q failed", address)
}

// PermissionDenied wraps a hard, non-transient rejection from a backend;
// the scheduler treats this like any other non-Unavailable probe failure
// and inactivates the backend.
func PermissionDenied(address string, cause error) *Error {
	return newf(codes.PermissionDenied, cause, "backend %q denied the request", address)
}

// Code extracts the status code carried by err, defaulting to
// codes.Unknown for errors that were never tagged by this package.
func Code(err error) codes.Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Unknown
}

// IsUnavailable reports whether err denotes a transient backend outage —
// the ProbeScheduler treats these specially (sample eviction, no
// inactivation).
func IsUnavailable(err error) bool {
	return Code(err) == codes.Unavailable
}
