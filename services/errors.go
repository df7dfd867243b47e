package services

import (
	"errors"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrNotPublished     = errors.New("not published")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrValidation       = errors.New("validation failed")
)
