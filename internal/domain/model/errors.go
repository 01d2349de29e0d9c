package model

import "errors"

// ErrInvalidAttribute marks a vehicle or race parameter outside its domain.
var ErrInvalidAttribute = errors.New("invalid attribute")
