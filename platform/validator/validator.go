// Package validator wraps go-playground/validator so handlers share one
// configured instance through dependency injection.
package validator

import "github.com/go-playground/validator/v10"

type Validator struct {
	v *validator.Validate
}

// New creates a Validator. Custom rules are added via RegisterValidation.
func New() *Validator {
	return &Validator{
		v: validator.New(),
	}
}

// Struct validates a struct against its validation tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var validates a single value against a tag.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
