package reviewerr

import "errors"

var (
	ErrMissingEncryptionKey = errors.New("no encryption key")
	ErrDecrypt              = errors.New("decrypt service auth token")
	ErrUnknownService       = errors.New("unknown service")
	ErrInvalidToken         = errors.New("invalid token")
	ErrStoreUnavailable     = errors.New("auth token store unavailable")
)
