package auth

import "errors"

var (
	ErrStateRequired  = errors.New("session state is required")
	ErrStoreRequired  = errors.New("secure store is required")
	ErrRemoteRequired = errors.New("remote auth operations are required")
)
