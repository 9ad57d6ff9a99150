package pipeline

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"google.golang.org/genai"
)

// Sentinel error kinds returned by Client.ExtractTransactions. Callers match
// them with errors.Is.
var (
	// ErrConfiguration means no credential is configured. No call was made.
	ErrConfiguration = errors.New("pipeline: extraction credential is not configured")
	// ErrValidation means the input text was empty after trimming.
	ErrValidation = errors.New("pipeline: input text is empty")
	// ErrParse means the model answered but the body was not a valid
	// transaction array.
	ErrParse = errors.New("pipeline: malformed extraction response")
	// ErrConnectivity means every attempt failed with a network fault.
	ErrConnectivity = errors.New("pipeline: connectivity failure")
	// ErrCollaborator means the extraction service itself rejected the call
	// (bad key, quota, invalid request). The service error is wrapped too.
	ErrCollaborator = errors.New("pipeline: extraction service error")
)

const connectivityAdvice = "could not reach the extraction service after several attempts; " +
	"check your internet connection (a VPN may be required in some regions) and try again"

// ConnectivityError is returned once the retry budget is exhausted on network
// faults. Its message is the user-facing advice; the last fault is kept as
// the cause.
type ConnectivityError struct {
	Attempts int
	Cause    error
}

func (e *ConnectivityError) Error() string {
	return connectivityAdvice
}

func (e *ConnectivityError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrConnectivity) match.
func (e *ConnectivityError) Is(target error) bool {
	return target == ErrConnectivity
}

// IsNetworkFault reports whether err is a transport-level failure worth
// another attempt. Errors reported by the remote service itself (bad key,
// quota, invalid request) and caller cancellation are not.
func IsNetworkFault(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
