package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"candlebliss-api/internal/model"
)

var voucherCodePattern = regexp.MustCompile(`^[A-Z0-9-]{3,15}$`)

// NewValidator returns a validator with the storefront rules registered
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so messages match the request body
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("password", validatePassword)
	_ = v.RegisterValidation("vouchercode", func(fl validator.FieldLevel) bool {
		return voucherCodePattern.MatchString(fl.Field().String())
	})
	v.RegisterStructValidation(validateVoucherRequest, model.VoucherRequest{})

	return v
}

// validatePassword requires 8+ characters with at least one letter and one digit
func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len([]rune(password)) < 8 {
		return false
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func validateVoucherRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.VoucherRequest)

	if (req.PercentOff == nil) == (req.AmountOff == nil) {
		sl.ReportError(req.PercentOff, "percent_off", "PercentOff", "percent_or_amount", "")
	}

	if req.StartDate == "" || req.EndDate == "" {
		return
	}
	start, err := model.ParseTimestamp(req.StartDate)
	if err != nil {
		sl.ReportError(req.StartDate, "start_date", "StartDate", "datetime", "")
		return
	}
	end, err := model.ParseTimestamp(req.EndDate)
	if err != nil {
		sl.ReportError(req.EndDate, "end_date", "EndDate", "datetime", "")
		return
	}
	if !end.After(start.Time) {
		sl.ReportError(req.EndDate, "end_date", "EndDate", "after_start", "")
	}
}

// fieldErrors converts validator errors into field -> message
func fieldErrors(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "password":
		return "must be at least 8 characters with a letter and a digit"
	case "vouchercode":
		return "must be 3-15 uppercase letters, digits or dashes"
	case "percent_or_amount":
		return "set exactly one of percent_off and amount_off"
	case "datetime":
		return "must be a valid date"
	case "after_start":
		return "must be after start_date"
	case "min", "max", "gt", "gte", "lte":
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	case "numeric":
		return "must contain digits only"
	default:
		return "is invalid"
	}
}

// decodeAndValidate reads a JSON body into dst and validates it. It writes
// the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "Invalid request format")
		return false
	}
	if err := v.Struct(dst); err != nil {
		ValidationFailed(w, fieldErrors(err))
		return false
	}
	return true
}
