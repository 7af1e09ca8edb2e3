package services

import "errors"

// ErrValidation marks errors caused by bad caller input. The API layer maps
// anything wrapping it to a 400 response.
var ErrValidation = errors.New("validation failed")
