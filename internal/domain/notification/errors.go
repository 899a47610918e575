package notification

import "errors"

// ErrNotificationNotFound covers both a missing row and a row owned by
// someone else; the two are indistinguishable to the caller.
var ErrNotificationNotFound = errors.New("notification not found")
