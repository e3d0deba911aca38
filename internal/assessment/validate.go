package assessment

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("gender", validateGender)
		_ = v.RegisterValidation("category", validateCategory)
		_ = v.RegisterValidation("notfuture", validateNotFuture)
		validate = v
	})
	return validate
}

func validateGender(fl validator.FieldLevel) bool {
	g := Gender(fl.Field().String())
	for _, known := range AllGenders {
		if g == known {
			return true
		}
	}
	return false
}

func validateCategory(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).Valid()
}

func validateNotFuture(fl validator.FieldLevel) bool {
	t, err := time.Parse(BirthDateLayout, fl.Field().String())
	if err != nil {
		// Format errors are reported by the datetime tag.
		return true
	}
	return !t.After(time.Now())
}

// ValidateProfile checks the onboarding form. It returns a
// *ValidationError listing every invalid field.
func ValidateProfile(p UserProfile) error {
	var fields []FieldError
	if err := structValidator().Struct(p); err != nil {
		fields = append(fields, fieldErrors(err)...)
	}
	if p.Photo != nil {
		if !strings.HasPrefix(p.Photo.MIMEType, "image/") {
			fields = append(fields, FieldError{Field: "photo", Message: "must be an image"})
		} else if len(p.Photo.Data) == 0 {
			fields = append(fields, FieldError{Field: "photo", Message: "is empty"})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateQuestion checks a question submitted to the question bank.
func ValidateQuestion(q Question) error {
	var fields []FieldError
	if err := structValidator().Struct(q); err != nil {
		fields = append(fields, fieldErrors(err)...)
	}
	seen := make(map[string]Label)
	for _, l := range q.Options.Labels() {
		text, _ := q.Options.Get(l)
		key := strings.ToLower(strings.TrimSpace(text))
		if prev, dup := seen[key]; dup {
			fields = append(fields, FieldError{
				Field:   "options." + string(l),
				Message: fmt.Sprintf("duplicates option %s", prev),
			})
			continue
		}
		seen[key] = l
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "input", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: friendlyMessage(fe),
		})
	}
	return out
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "notfuture":
		return "must not be in the future"
	case "gender":
		return "must be one of Male, Female, Non-Binary, Prefer Not to Say"
	case "category":
		return "must be a known category"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
