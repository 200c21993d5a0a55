package schedule

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"clinicgrid/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := model.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("visitstatus", func(fl validator.FieldLevel) bool {
		return model.IsKnownStatus(model.VisitStatus(fl.Field().String()))
	})
	// clockafter=Field: the value is a later HH:mm than the sibling field.
	_ = validate.RegisterValidation("clockafter", func(fl validator.FieldLevel) bool {
		other := fl.Parent().FieldByName(fl.Param())
		if !other.IsValid() || other.Kind() != reflect.String {
			return false
		}
		start, err := model.ParseClock(other.String())
		if err != nil {
			// reported on the sibling field
			return true
		}
		end, err := model.ParseClock(fl.Field().String())
		if err != nil {
			return true
		}
		return end > start
	})
}

// Validate checks a tagged request struct and returns a *ValidationError
// with one message per failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, ok := out.Fields[fe.Field()]; ok {
			continue
		}
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

// ValidateVisit checks a visit before it is submitted.
func ValidateVisit(v model.Visit) error {
	return Validate(v)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "clock":
		return "must be a time in HH:mm format"
	case "datekey":
		return "must be a date in yyyy-MM-dd format"
	case "clockafter":
		return "must be after " + toSnake(fe.Param())
	case "visitstatus":
		return "unknown status"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "gt", "gte":
		return "must be positive"
	default:
		return "is invalid"
	}
}

// toSnake turns a Go field name into its json spelling, e.g. StartTime.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
