package tickets

import (
	"errors"

	"tablebook/internal/shared/errs"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate runs the struct tags of a Ticket or ShiftTicket and reports the first failing
// field as invalid_config.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errs.New(errs.CodeInvalidConfig, "%s failed %q validation", fe.Namespace(), fe.Tag()).
			WithDetail("field", fe.Field())
	}
	return errs.Wrap(errs.CodeInvalidConfig, err, "invalid configuration")
}
