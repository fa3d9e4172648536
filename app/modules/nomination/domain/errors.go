package nominationdomain

import "errors"

var (
	ErrNominationDisabled      = errors.New("nomination is not enabled for this tier")
	ErrNominatorNotEligible    = errors.New("nominator does not hold a nominator role for this tier")
	ErrSelfNomination          = errors.New("members cannot nominate themselves")
	ErrThreadAlreadyOpen       = errors.New("an open nomination thread already exists for this nominee and tier")
	ErrThreadNotAcceptingVotes = errors.New("nomination thread is not accepting votes")
	ErrThreadNotFound          = errors.New("nomination thread not found")
	ErrSelfVote                = errors.New("nominees cannot vote on their own nomination")
	ErrVoterNotEligible        = errors.New("voter does not hold an eligible voter role")
	ErrDuplicateVote           = errors.New("voter has already voted on this thread")
	ErrInvalidCloseReason      = errors.New("invalid close reason")
)

// IsRejection reports whether err is a domain rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrNominationDisabled,
		ErrNominatorNotEligible,
		ErrSelfNomination,
		ErrThreadAlreadyOpen,
		ErrThreadNotAcceptingVotes,
		ErrThreadNotFound,
		ErrSelfVote,
		ErrVoterNotEligible,
		ErrDuplicateVote,
		ErrInvalidCloseReason,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
