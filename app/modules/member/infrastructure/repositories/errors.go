package memberdb

import "errors"

var ErrNotFound = errors.New("member not found")
