package sysenv

import "errors"

var (
	// ErrPermissionDenied is returned by a Store when the running policy does not
	// allow the key to be read or written.
	ErrPermissionDenied = errors.New("permission denied for system property")
	// ErrMalformedKey is returned by the platform store for keys it cannot hold.
	ErrMalformedKey = errors.New("malformed platform property key")
)
