package apperror

import "errors"

var (
	ErrSpokeTwice    = errors.New("you can't speak twice in a row")
	ErrWrongNumber   = errors.New("wrong number")
	ErrNoIdentity    = errors.New("no remote address found")
	ErrStateNotFound = errors.New("state not found")
	ErrInvalidState  = errors.New("invalid state")
)
