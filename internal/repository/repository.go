package repository

import "errors"

// ErrNotFound indicates the referenced row does not exist. Domain layers
// translate it into a typed not-found error; everything else coming out of a
// repository is an opaque infrastructure failure.
var ErrNotFound = errors.New("repository: not found")
