package validator

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// FieldError describe un campo que no pasó validación.
type FieldError struct {
	FailedField string
	Tag         string
	Value       string
}

// ValidateStruct valida los tags `validate` del struct y devuelve la lista
// de campos fallidos (vacía si todo está bien).
func ValidateStruct(s any) []FieldError {
	var errs []FieldError
	if err := validate.Struct(s); err != nil {
		for _, ve := range err.(validator.ValidationErrors) {
			errs = append(errs, FieldError{
				FailedField: ve.StructNamespace(),
				Tag:         ve.Tag(),
				Value:       ve.Param(),
			})
		}
	}
	return errs
}
