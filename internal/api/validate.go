package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// fieldMessages are reported in this order when several fields fail.
var fieldMessages = []struct {
	field string
	msg   string
}{
	{"Name", "Habit name is required"},
	{"TargetType", "Invalid target type"},
	{"TargetCount", "Invalid target count"},
	{"TargetUnits", "Target units are required"},
	{"Count", "Invalid count"},
}

// validationMessage validates s and returns a client-facing message, or "" when s is valid.
func validationMessage(s any) string {
	err := validate.Struct(s)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.StructField()] = true
	}
	for _, fm := range fieldMessages {
		if failed[fm.field] {
			return fm.msg
		}
	}
	return "Invalid " + verrs[0].Field()
}
