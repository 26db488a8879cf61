// Package model defines the data structures used throughout the application.
package model

import "time"

// Gender is the self-reported gender stored on an account.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Genders lists every accepted Gender, in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// GoalStatus is the training goal a user picked at registration.
type GoalStatus string

const (
	GoalBulking     GoalStatus = "bulking"
	GoalCutting     GoalStatus = "cutting"
	GoalMaintaining GoalStatus = "maintaining"
)

// GoalStatuses lists every accepted GoalStatus.
var GoalStatuses = []GoalStatus{GoalBulking, GoalCutting, GoalMaintaining}

// Account is one row of the users table.
//
// Email and Username are unique under case-insensitive comparison. The
// store enforces this with unique indexes on lower(email) and
// lower(username), so two concurrent registrations cannot both win.
//
// PasswordHash is the bcrypt output and is never serialised: the json:"-"
// tag keeps it out of every response even if an Account is encoded by
// mistake.
//
// IsVerified only ever moves from false to true.
type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Gender       Gender     `json:"gender"`
	Height       float64    `json:"height"`
	Weight       float64    `json:"weight"`
	GoalStatus   GoalStatus `json:"goal_status"`
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
