package storage

import "errors"

// ErrIO wraps file system failures other than a missing snapshot file.
var ErrIO = errors.New("snapshot file i/o failed")
