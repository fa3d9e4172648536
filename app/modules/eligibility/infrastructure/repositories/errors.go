package eligibilitydb

import "errors"

var ErrGrantNotFound = errors.New("role grant not found")
