package settlement

import "errors"

// ErrSettlementFailure means the race was not recorded and no balance changed.
var ErrSettlementFailure = errors.New("race not recorded")
