package accounts

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// PasswordMinLen and PasswordMaxLen bound the accepted password length.
const (
	PasswordMinLen = 8
	PasswordMaxLen = 20
)

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrors flattens ozzo validation output into a field error
// list carrying `{param, msg}` pairs.
func FormatValidationErrors(err error) []FieldError {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return []FieldError{{Param: "form", Msg: err.Error()}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for param, ferr := range verrs {
		if ferr == nil {
			continue
		}
		fields = append(fields, FieldError{
			Param: param,
			Msg:   ferr.Error(),
		})
	}

	return fields
}

// FormatValidationErrorToMap keeps the map form used by view rendering.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	for _, f := range FormatValidationErrors(err) {
		out[f.Param] = f.Msg
	}
	return out
}
