package reminderstore

import "errors"

var ErrInvalidDocument = errors.New("invalid reminder document")
