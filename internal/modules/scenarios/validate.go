package scenarios

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/aristath/capstack/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names so issue paths match the document
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateShape checks the struct-tag constraints of a decoded scenario: required ids,
// enum values and numeric ranges. Cross-field rules are left to the engine modules.
func ValidateShape(s domain.Scenario) domain.Issues {
	var issues domain.Issues

	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		issues.Add("scenario", "%v", err)
		return issues
	}
	for _, e := range verrs {
		issues.Add(issuePath(e.Namespace()), "%s", validationMessage(e))
	}
	return issues
}

// issuePath drops the root type name: "Scenario.capital.tranches[0].id" → "capital.tranches[0].id".
func issuePath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return "must have at least " + e.Param() + " entries"
		}
		return "must be at least " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	default:
		return "is invalid (" + e.Tag() + ")"
	}
}
