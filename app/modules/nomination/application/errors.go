package nominationservice

import "errors"

// ErrUnknownTier is a domain failure: the tier id is not in the catalog.
var ErrUnknownTier = errors.New("unknown tier")
