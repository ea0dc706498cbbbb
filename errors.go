package spill

import "errors"

var (
	// ErrInvalidDemand is delivered to a subscriber that requested negative demand.
	ErrInvalidDemand = errors.New("demand can't be negative")
	// ErrAlreadySubscribed is delivered to every subscriber after the first one.
	ErrAlreadySubscribed = errors.New("stage already has a subscriber")
)
