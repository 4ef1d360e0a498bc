package handlers

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Global validator instance (reused across all handlers)
var validate = newValidator()

// phonePattern accepts international and local Bulgarian formats:
// +359 88 123 4567, 0888123456, (02) 123-45-67
var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{6,20}$`)

func newValidator() *validator.Validate {
	v := validator.New()

	// Report errors under the JSON names the form uses
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return v
}

// fieldMessages override the generic per-tag text for specific fields.
var fieldMessages = map[string]map[string]string{
	"guestName": {
		"required": "Моля, въведете вашето име.",
		"min":      "Името трябва да съдържа поне 2 символа.",
		"max":      "Името не може да бъде по-дълго от 100 символа.",
	},
	"email": {
		"required": "Моля, въведете имейл адрес.",
		"email":    "Моля, въведете валиден имейл адрес.",
	},
	"phone": {
		"phone": "Моля, въведете валиден телефонен номер.",
	},
	"attending": {
		"required": "Моля, посочете дали ще присъствате.",
	},
	"plusOneName": {
		"required_if": "Моля, въведете името на вашия придружител.",
	},
	"childrenCount": {
		"min": "Броят на децата не може да бъде отрицателен.",
		"max": "Броят на децата не може да бъде повече от 10.",
	},
	"allergies": {
		"max": "Полето за алергии не може да бъде по-дълго от 500 символа.",
	},
}

// ValidateRequest validates req and returns per-field Bulgarian messages,
// or nil when the request is valid.
func ValidateRequest(req interface{}) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": "Невалидни данни."}
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		name := fieldName(fe)
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = formatValidationError(fe)
	}
	return fields
}

// fieldName drops the struct prefix so nested errors read "guestIds[0]".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	if byTag, ok := fieldMessages[fe.Field()]; ok {
		if msg, ok := byTag[fe.Tag()]; ok {
			return msg
		}
	}

	switch fe.Tag() {
	case "required", "required_if":
		return "Полето е задължително."
	case "email":
		return "Моля, въведете валиден имейл адрес."
	case "phone":
		return "Моля, въведете валиден телефонен номер."
	case "min":
		return fmt.Sprintf("Стойността трябва да е поне %s.", fe.Param())
	case "max":
		return fmt.Sprintf("Стойността не може да надвишава %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Позволените стойности са: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return "Невалидна стойност."
	}
}

var unsafeChars = strings.NewReplacer("<", "", ">", "")

// sanitizeString trims whitespace and strips angle brackets.
func sanitizeString(s string) string {
	return strings.TrimSpace(unsafeChars.Replace(s))
}

func sanitizeStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeString(*s)
	return &clean
}
