package token

import "errors"

var (
	// ErrConnectionFailed indicates the token service could not be reached or
	// the request outcome is unknown.
	ErrConnectionFailed = errors.New("token: connection failed")

	// ErrAuthFailed indicates the RPC credentials were rejected.
	ErrAuthFailed = errors.New("token: authentication failed")

	// ErrInvalidResponse indicates a malformed or unexpected response.
	ErrInvalidResponse = errors.New("token: invalid response")

	// ErrRPC indicates the service answered with an error object.
	ErrRPC = errors.New("token: rpc error")

	// ErrTransferRejected indicates the service definitively refused a transfer.
	// Nothing was moved.
	ErrTransferRejected = errors.New("token: transfer rejected")
)
