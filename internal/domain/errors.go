package domain

import "errors"

// ErrNotFound is returned by repositories when a record is absent.
// Services translate it into the HTTP-facing error taxonomy.
var ErrNotFound = errors.New("record not found")
