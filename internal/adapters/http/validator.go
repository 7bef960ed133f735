package http

import (
	"github.com/go-playground/validator/v10"

	"github.com/hudeditor/hudstore/internal/domain/entities"
)

// RequestValidator wraps the validator
type RequestValidator struct {
	validator *validator.Validate
}

// NewRequestValidator returns an echo.Validator that knows the slot tag
func NewRequestValidator() *RequestValidator {
	v := validator.New()
	_ = v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		return entities.IsValidSlotName(fl.Field().String())
	})
	return &RequestValidator{validator: v}
}

// Validate validates structs
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validator.Struct(i)
}
