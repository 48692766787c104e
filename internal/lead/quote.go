package lead

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// QuoteRequest is the public quote form payload.
type QuoteRequest struct {
	CompanyName      string   `json:"companyName" validate:"min=2"`
	Industry         string   `json:"industry" validate:"required"`
	FleetSize        string   `json:"fleetSize" validate:"required"`
	ProductNeeds     []string `json:"productNeeds" validate:"min=1"`
	ServiceInterests []string `json:"serviceInterests"`
	FuelType         string   `json:"fuelType" validate:"omitempty,oneof=Diesel Super Both"`
	Email            string   `json:"email" validate:"email"`
	Phone            string   `json:"phone" validate:"min=8"`
	CaptchaToken     string   `json:"captchaToken" validate:"-"`
}

// Normalize trims surrounding whitespace from the free-text fields.
func (q *QuoteRequest) Normalize() {
	q.CompanyName = strings.TrimSpace(q.CompanyName)
	q.Industry = strings.TrimSpace(q.Industry)
	q.FleetSize = strings.TrimSpace(q.FleetSize)
	q.Email = strings.TrimSpace(q.Email)
	q.Phone = strings.TrimSpace(q.Phone)
}

// FuelSummary is what the lead record stores as its fuel type: the explicit
// selection when given, otherwise the requested products.
func (q *QuoteRequest) FuelSummary() string {
	if q.FuelType != "" {
		return q.FuelType
	}
	return strings.Join(q.ProductNeeds, ", ")
}

// FieldErrors maps a JSON field name to its validation messages.
type FieldErrors map[string][]string

var fieldMessages = map[string]string{
	"companyName.min":    "Company name must be at least 2 characters",
	"industry.required":  "Industry is required",
	"fleetSize.required": "Fleet size is required",
	"productNeeds.min":   "Select at least one product",
	"fuelType.oneof":     "Fuel type must be one of Diesel, Super, Both",
	"email.email":        "Invalid email address",
	"phone.min":          "Phone number is too short",
}

type quoteValidator struct {
	v *validator.Validate
}

func newQuoteValidator() *quoteValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &quoteValidator{v: v}
}

// Validate returns nil when q is acceptable.
func (qv *quoteValidator) Validate(q *QuoteRequest) FieldErrors {
	err := qv.v.Struct(q)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": {err.Error()}}
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}
