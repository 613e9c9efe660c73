package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ValidationError struct {
	Errors validator.ValidationErrors
}

func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for _, fe := range v.Errors {
		fields = append(fields, fe.Field())
	}
	return fmt.Sprintf("validation failed on: %s", strings.Join(fields, ", "))
}

func (v *ValidationError) ToErrorDetails() []ErrorDetail {
	details := make([]ErrorDetail, 0, len(v.Errors))
	for _, fe := range v.Errors {
		details = append(details, ErrorDetail{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
		})
	}
	return details
}

func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &ValidationError{Errors: ve}
	}

	return err
}
