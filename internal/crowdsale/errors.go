package crowdsale

import "errors"

var (
	ErrUnknownStrategy = errors.New("unknown crowdsale strategy")
	ErrNotUpdatable    = errors.New("attribute is not updatable for this strategy")
	ErrBadTime         = errors.New("bad tier time")
	ErrBadWhitelist    = errors.New("bad whitelist entry")
	ErrZeroRate        = errors.New("tier rate is zero")
)
