package amm

import "errors"

var (
	// ErrInvalidArgument reports a negative or missing reserve or amount.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDepletedReserve reports an output larger than the reserve holding it.
	ErrDepletedReserve = errors.New("depleted reserve")
)
