package database

import "errors"

// ErrNotReady reports that the pool cannot currently reach the server.
var ErrNotReady = errors.New("database not ready")
