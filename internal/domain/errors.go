package domain

import "errors"

// ErrDuplicate marks an insert refused because the item already exists.
var ErrDuplicate = errors.New("duplicate item")
