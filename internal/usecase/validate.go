package usecase

import (
	"errors"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/apperror"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateParams runs struct-tag validation and folds the first failure
// into a ValidationFailed error. Validation happens before any store
// access.
func validateParams(params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperror.Validation("invalid field %q (rule %q)", fe.Field(), fe.Tag())
	}
	return apperror.Validation("invalid request: %v", err)
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperror.Validation("invalid %s: %s", field, value)
	}
	return t, nil
}
