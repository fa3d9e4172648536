package nominationdb

import "errors"

var (
	ErrNotFound         = errors.New("nomination thread not found")
	ErrOpenThreadExists = errors.New("open nomination thread already exists")
	ErrDuplicateVote    = errors.New("vote already recorded for voter")
	ErrThreadNotOpen    = errors.New("nomination thread is not open")
)
