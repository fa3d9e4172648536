package tierdomain

import (
	"errors"
	"fmt"
)

// ErrInvalidTier is wrapped by every ConfigError.
var ErrInvalidTier = errors.New("invalid tier definition")

// ConfigError reports a malformed tier definition. It is raised when tiers are
// loaded and blocks use of the tier.
type ConfigError struct {
	Tier   string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tier %q: %s", e.Tier, e.Reason)
	}
	return fmt.Sprintf("tier %q: %s: %s", e.Tier, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidTier }

// paramError is returned by Requirement.validate and located by Tier.Validate.
type paramError struct {
	field  string
	reason string
}

func (e *paramError) Error() string { return e.field + ": " + e.reason }

func missing(field string) error { return &paramError{field: field, reason: "is required"} }
