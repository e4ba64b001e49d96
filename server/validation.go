package server

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// riotIDPattern matches a Riot ID such as "TestUser#NA1": a 3-16 character game name and a 3-5
// character tagline.
var riotIDPattern = regexp.MustCompile(`^[\p{L}\p{N} ]{3,16}#[\p{L}\p{N}]{3,5}$`)

// Forms posted by the onboarding pages. The msg tag is shown to the user when the field fails.
type signupForm struct {
	Email    string `validate:"required,email" msg:"Please enter a valid email"`
	Password string `validate:"required,min=8" msg:"Password must be at least 8 characters"`
}

type profileForm struct {
	Username    string `validate:"required,min=3,max=32,alphanumdash" msg:"Username must be 3 to 32 letters, digits, - or _"`
	DisplayName string `validate:"required,min=2,max=64" msg:"Display name must be 2 to 64 characters"`
}

type riotAccountForm struct {
	RiotID string `validate:"required,riotid" msg:"Riot ID must look like Name#TAG"`
}

type settingsForm struct {
	Theme         string `validate:"required,oneof=light dark" msg:"Choose the light or dark theme"`
	Notifications bool
}

func newValidator() (*validator.Validate, error) {
	validate := validator.New()

	if err := validate.RegisterValidation("riotid", func(fl validator.FieldLevel) bool {
		return riotIDPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	}); err != nil {
		return nil, err
	}

	// Allow alphanumeric, hyphens, and underscores only
	if err := validate.RegisterValidation("alphanumdash", func(fl validator.FieldLevel) bool {
		for _, char := range fl.Field().String() {
			if !((char >= 'a' && char <= 'z') ||
				(char >= 'A' && char <= 'Z') ||
				(char >= '0' && char <= '9') ||
				char == '-' ||
				char == '_') {
				return false
			}
		}
		return true
	}); err != nil {
		return nil, err
	}
	return validate, nil
}

// validationMessage returns the msg tag of the first failing field of form
func validationMessage(form interface{}, err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Please check the form and try again"
	}

	t := reflect.TypeOf(form)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if field, ok := t.FieldByName(fieldErrs[0].StructField()); ok {
		if msg := field.Tag.Get("msg"); msg != "" {
			return msg
		}
	}
	return fieldErrs[0].Error()
}
