package leads

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is the customer-entered intake state. It is reset after a successful
// submission and left untouched after a failed one.
type Form struct {
	Name          string `json:"name" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	Email         string `json:"email" validate:"required"`
	ServiceType   string `json:"serviceType" validate:"required"`
	Urgency       string `json:"urgency" validate:"required,urgency"`
	Address       string `json:"address,omitempty"`
	Budget        string `json:"budget,omitempty" validate:"omitempty,budget"`
	Description   string `json:"description,omitempty"`
	CustomService string `json:"customService,omitempty"`
	Variant       string `json:"variant,omitempty"`
}

// NewForm returns a form with empty defaults.
func NewForm() Form {
	return Form{Urgency: string(UrgencyNormal)}
}

// Reset restores the empty defaults, keeping the landing variant.
func (f *Form) Reset() {
	variant := f.Variant
	*f = NewForm()
	f.Variant = variant
}

// IsOther reports whether the free-text custom service applies.
func (f *Form) IsOther() bool {
	return strings.EqualFold(strings.TrimSpace(f.ServiceType), OtherService)
}

// EffectiveService substitutes the custom service for "Other".
func (f *Form) EffectiveService() string {
	if f.IsOther() {
		return strings.TrimSpace(f.CustomService)
	}
	return f.ServiceType
}

// Source labels where the submission came from.
func (f *Form) Source() string {
	if v := strings.TrimSpace(f.Variant); v != "" {
		return "landing:" + v
	}
	return "form"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("urgency", func(fl validator.FieldLevel) bool {
		_, ok := ParseUrgency(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("budget", func(fl validator.FieldLevel) bool {
		return validBudget(fl.Field().String())
	})
	return v
}

// Validate runs the required-field checks that gate a submission.
func (f *Form) Validate() error {
	var fields []string
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	for _, v := range []struct {
		name  string
		value string
	}{{"name", f.Name}, {"phone", f.Phone}, {"email", f.Email}, {"serviceType", f.ServiceType}} {
		if strings.TrimSpace(v.value) == "" && !contains(fields, v.name) {
			fields = append(fields, v.name)
		}
	}
	if f.IsOther() && strings.TrimSpace(f.CustomService) == "" {
		fields = append(fields, "customService")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
