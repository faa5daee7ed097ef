package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of a record before it is persisted
func Validate(record any) error {
	return validate.Struct(record)
}
