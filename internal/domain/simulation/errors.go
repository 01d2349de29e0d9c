package simulation

import "errors"

// ErrNoEligibleParticipants is returned when a race has no entries.
var ErrNoEligibleParticipants = errors.New("no eligible participants")
