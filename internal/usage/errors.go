package usage

import "errors"

// ErrNotFound indicates no usage has been reported for a user yet.
var ErrNotFound = errors.New("usage not found")
