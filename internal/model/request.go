package model

// RegistrationForm is the JSON body of a registration request.
//
// WHY POINTERS?
// A required field must be distinguishable from its zero value: a missing
// "height" and "height": 0 fail with different messages ("required fields
// are missing" vs "invalid height"). encoding/json leaves a pointer nil when
// the key is absent or null, so nil means "missing".
type RegistrationForm struct {
	Email      *string  `json:"email"`
	Password   *string  `json:"password"`
	Username   *string  `json:"username"`
	FirstName  *string  `json:"first_name"`
	LastName   *string  `json:"last_name"`
	Gender     *string  `json:"gender"`
	Height     *float64 `json:"height"`
	Weight     *float64 `json:"weight"`
	GoalStatus *string  `json:"goal_status"`

	// SendEmail is optional; nil means "use the configured default".
	SendEmail *bool `json:"send_email"`
}

// Credentials is the JSON body of a token request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResendRequest is the JSON body of a resend-verification request.
type ResendRequest struct {
	Email string `json:"email"`
}
