package http

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/aussiebroadwan/till/pkg/httpx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

var roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Validate checks request DTOs. Errors are keyed by JSON field name.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Machine role names: lower case letters, digits, "_" and "-".
	_ = v.RegisterValidation("rolename", func(fl validator.FieldLevel) bool {
		return roleNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// decodeAndValidate reads the body into dst and validates it, writing a
// 400 or 422 envelope and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		slogx.FromContext(r.Context()).Debug("invalid request body", "err", err)
		authsdk.ErrBadRequest.WithMessage("Request body must be a valid JSON object.").WriteError(w)
		return false
	}

	if err := Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			authsdk.ErrBadRequest.WriteError(w)
			return false
		}
		authsdk.ValidationError(validationFields(verrs)).WriteError(w)
		return false
	}
	return true
}

// validationFields reports the first failed rule per field. Nested fields
// such as roles[0] are reported under their parent.
func validationFields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i > 0 {
			field = field[:i]
		}
		if _, seen := fields[field]; seen {
			continue
		}
		fields[field] = describe(fe)
	}
	return fields
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "The " + fe.Field() + " field is required."
	case "email":
		return "The " + fe.Field() + " field must be a valid email address."
	case "min":
		return "The " + fe.Field() + " field must be at least " + fe.Param() + " characters."
	case "max":
		return "The " + fe.Field() + " field must not be greater than " + fe.Param() + " characters."
	case "oneof":
		return "The " + fe.Field() + " field must be one of: " + fe.Param() + "."
	case "eqfield":
		return "The " + fe.Field() + " field confirmation does not match."
	case "rolename":
		return "The " + fe.Field() + " field may only contain lower case letters, numbers, dashes and underscores."
	default:
		return "The " + fe.Field() + " field is invalid."
	}
}
