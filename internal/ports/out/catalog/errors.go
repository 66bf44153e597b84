package catalog

import "errors"

// ErrNotFound indicates no airport/airline exists for the key.
var ErrNotFound = errors.New("entity not found")
