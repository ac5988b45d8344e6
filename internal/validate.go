package internal

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			switch name {
			case "":
				return field.Name
			case "-":
				// confirmPassword is client-only and never serialized
				return lowerFirst(field.Name)
			default:
				return name
			}
		})
		validate = v
	})
	return validate
}

// fieldMessages are the messages shown for each field/tag failure
var fieldMessages = map[string]string{
	"fullName.required":        "Full name is required",
	"fullName.min":             "Name must be at least 2 characters",
	"email.required":           "Email is required",
	"email.email":              "Please enter a valid email address",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 8 characters",
	"confirmPassword.eqfield":  "Passwords don't match",
	"companyName.required":     "Company name is required",
	"companyName.notblank":     "Company name is required",
	"positionTitle.required":   "Position title is required",
	"positionTitle.notblank":   "Position title is required",
	"workMode.oneof":           "Work mode must be one of ONSITE, REMOTE, HYBRID",
	"jobPostingUrl.url":        "Must be a valid URL",
	"salaryMin.min":            "Salary must be a positive number",
	"salaryMax.min":            "Salary must be a positive number",
	"status.required":          "Status is required",
	"status.oneof":             "Status must be one of APPLIED, INTERVIEWING, OFFER, ACCEPTED, REJECTED, WITHDRAWN",
	"applicationDate.required": "Application date is required",
	"applicationDate.datetime": "Application date must be YYYY-MM-DD",
	"nextStepDate.datetime":    "Next step date must be YYYY-MM-DD",
	"content.required":         "Content is required",
	"content.notblank":         "Content is required",
}

// Validate checks a request struct and returns a *ValidationError listing every bad field
func Validate(req interface{}) error {
	fields := make(map[string]string)

	if err := getValidator().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validation: %w", err)
		}
		for _, fe := range verrs {
			name := fe.Field()
			if _, seen := fields[name]; seen {
				continue
			}
			msg, ok := fieldMessages[name+"."+fe.Tag()]
			if !ok {
				msg = fmt.Sprintf("failed %q check", fe.Tag())
			}
			fields[name] = msg
		}
	}

	if app, ok := req.(ApplicationRequest); ok {
		checkSalaryRange(app, fields)
	}
	if app, ok := req.(*ApplicationRequest); ok && app != nil {
		checkSalaryRange(*app, fields)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkSalaryRange(app ApplicationRequest, fields map[string]string) {
	if app.SalaryMin == nil || app.SalaryMax == nil {
		return
	}
	if _, bad := fields["salaryMax"]; bad {
		return
	}
	if *app.SalaryMax < *app.SalaryMin {
		fields["salaryMax"] = "Maximum salary must be at least the minimum"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
