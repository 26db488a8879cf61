package service

import (
	"regexp"

	"github.com/asaskevich/govalidator"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sakif/gym-tracker/internal/apperror"
	"github.com/sakif/gym-tracker/internal/model"
)

// Client-facing validation messages, checked in this order.
const (
	MsgMissingFields   = "required fields are missing"
	MsgInvalidEmail    = "invalid email"
	MsgInvalidHeight   = "invalid height"
	MsgInvalidWeight   = "invalid weight"
	MsgInvalidGender   = "invalid gender"
	MsgInvalidGoal     = "invalid goal_status"
	MsgWeakPassword    = "password does not meet complexity requirements"
	maxPasswordRunes   = 36
	minPasswordRunes   = 8
	maxPasswordBytes   = 72 // bcrypt input limit
	maxHeightExclusive = 300.0
	maxWeightExclusive = 500.0
)

var (
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasSpecial = regexp.MustCompile(`[^a-zA-Z0-9]`)

	// emailRule needs local@domain.tld; "a@gmail" is rejected.
	emailRule = validation.NewStringRule(govalidator.IsEmail, MsgInvalidEmail)
)

// fieldRules is one step of registration validation. Threshold and In rules
// skip empty values in ozzo, so each step starts with Required: a field that
// is present but zero ("height": 0) must fail as invalid, not pass.
type fieldRules struct {
	field   string
	value   interface{}
	message string
	rules   []validation.Rule
}

// validateRegistration checks form and returns the first failure as an
// apperror.ValidationFailed, or nil.
func validateRegistration(form *model.RegistrationForm) error {
	if form.Email == nil || form.Password == nil || form.Username == nil ||
		form.FirstName == nil || form.LastName == nil || form.Gender == nil ||
		form.Height == nil || form.Weight == nil || form.GoalStatus == nil {
		return apperror.ValidationFailed("", MsgMissingFields)
	}

	steps := []fieldRules{
		{"email", *form.Email, MsgInvalidEmail, []validation.Rule{
			validation.Required, emailRule,
		}},
		{"height", *form.Height, MsgInvalidHeight, []validation.Rule{
			validation.Required,
			validation.Min(0.0).Exclusive(),
			validation.Max(maxHeightExclusive).Exclusive(),
		}},
		{"weight", *form.Weight, MsgInvalidWeight, []validation.Rule{
			validation.Required,
			validation.Min(0.0).Exclusive(),
			validation.Max(maxWeightExclusive).Exclusive(),
		}},
		{"gender", *form.Gender, MsgInvalidGender, []validation.Rule{
			validation.Required, validation.In(enumValues(model.Genders)...),
		}},
		{"goal_status", *form.GoalStatus, MsgInvalidGoal, []validation.Rule{
			validation.Required, validation.In(enumValues(model.GoalStatuses)...),
		}},
		{"password", *form.Password, MsgWeakPassword, []validation.Rule{
			validation.Required,
			validation.RuneLength(minPasswordRunes, maxPasswordRunes),
			validation.Length(0, maxPasswordBytes),
			validation.Match(hasUpper),
			validation.Match(hasSpecial),
		}},
	}

	for _, s := range steps {
		if err := validation.Validate(s.value, s.rules...); err != nil {
			return apperror.ValidationFailed(s.field, s.message)
		}
	}
	return nil
}

// validEmail reports whether email is a well-formed address.
func validEmail(email string) bool {
	return validation.Validate(email, validation.Required, emailRule) == nil
}

// enumValues converts a typed string enum to the plain strings ozzo's In
// rule compares against.
func enumValues[T ~string](values []T) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
