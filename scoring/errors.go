package scoring

import "errors"

var (
	ErrRuleNotFound = errors.New("scoring: rule not found")
	ErrLimitReached = errors.New("scoring: daily submission limit reached")
	ErrPaceNotMet   = errors.New("scoring: pace requirement not met")
	ErrInvalidRule  = errors.New("scoring: invalid rule")
)
