package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/unideal/unideal-server/internal/httputil"
)

// indianPhonePattern matches 10-digit Indian mobile numbers.
var indianPhonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report field paths by json tag name so error details match the wire shape
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// inphone: Indian mobile number
	_ = v.RegisterValidation("inphone", func(fl validator.FieldLevel) bool {
		return indianPhonePattern.MatchString(fl.Field().String())
	})

	return v
}

// DecodeJSON decodes a request body into dst. Unknown fields are
// ignored, matching the upstream API contract; malformed JSON is an
// error the caller reports as a validation failure.
func DecodeJSON(body io.Reader, dst any) error {
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

// Struct validates a tagged struct and returns one FieldError per
// failing constraint, with dot-joined paths for nested fields.
// Returns nil when validation passes.
func Struct(s any) []httputil.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []httputil.FieldError{{Field: "", Message: "invalid request"}}
	}

	details := make([]httputil.FieldError, 0, len(validationErrs))
	for _, e := range validationErrs {
		details = append(details, httputil.FieldError{
			Field:   fieldPath(e),
			Message: errorMessage(e),
		})
	}
	return details
}

// fieldPath strips the root struct name from the namespace, leaving
// the dot-joined json path (e.g. "college.slug").
func fieldPath(e validator.FieldError) string {
	path := e.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

func errorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("Must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("Must be at most %s", e.Param())
	case "url":
		return "Must be a valid URL"
	case "uuid":
		return "Invalid ID"
	case "inphone":
		return "Invalid Indian phone number"
	default:
		return fmt.Sprintf("Failed on the '%s' constraint", e.Tag())
	}
}

// Pagination holds normalized cursor-based pagination query parameters.
type Pagination struct {
	Cursor string
	Limit  int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
)

// ParsePagination validates cursor/limit query parameters. A missing
// limit falls back to the default; an out-of-range or non-numeric one
// is a field-level validation failure.
func ParsePagination(query url.Values) (Pagination, []httputil.FieldError) {
	p := Pagination{
		Cursor: query.Get("cursor"),
		Limit:  defaultPageLimit,
	}

	raw := query.Get("limit")
	if raw == "" {
		return p, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return p, []httputil.FieldError{{Field: "limit", Message: "Must be a number"}}
	}
	if limit < 1 || limit > maxPageLimit {
		return p, []httputil.FieldError{{Field: "limit", Message: fmt.Sprintf("Must be between 1 and %d", maxPageLimit)}}
	}

	p.Limit = limit
	return p, nil
}
